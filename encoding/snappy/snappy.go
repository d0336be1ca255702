// Package snappy compresses the payload of every frame of an inner byte
// codec with the snappy block format.
package snappy

import (
	"github.com/golang/snappy"

	"github.com/mesos/framed-go/encoding/framing"
)

// DefaultMaxDecodedLen bounds the size of a decompressed frame.
const DefaultMaxDecodedLen = 8 << 20 // 8MB

// ErrTooLarge is returned for a frame that would decompress to more than the
// maximum decoded length.
const ErrTooLarge = framing.Error("snappy: decoded frame too large")

// Codec compresses items before the inner codec frames them, and decompresses
// frames produced by the inner codec.
type Codec struct {
	inner         framing.Codec[[]byte, []byte]
	maxDecodedLen int
}

var (
	_ framing.Codec[[]byte, []byte]        = (*Codec)(nil)
	_ framing.EOFDecoder[[]byte]           = (*Codec)(nil)
	_ framing.DecoderWithSkipAhead[[]byte] = (*Codec)(nil)
)

// New wraps inner. Frames decompressing to more than maxDecodedLen bytes are
// rejected; a maxDecodedLen <= 0 means DefaultMaxDecodedLen.
func New(inner framing.Codec[[]byte, []byte], maxDecodedLen int) *Codec {
	if maxDecodedLen <= 0 {
		maxDecodedLen = DefaultMaxDecodedLen
	}
	return &Codec{inner: inner, maxDecodedLen: maxDecodedLen}
}

// Decode implements framing.Decoder.
func (c *Codec) Decode(src *framing.Buffer) ([]byte, bool, error) {
	return c.decompress(c.inner.Decode(src))
}

// DecodeEOF implements framing.EOFDecoder.
func (c *Codec) DecodeEOF(src *framing.Buffer) ([]byte, bool, error) {
	return c.decompress(framing.DecodeEOF[[]byte](c.inner, src))
}

func (c *Codec) decompress(frame []byte, ok bool, err error) ([]byte, bool, error) {
	if !ok || err != nil {
		return nil, ok, err
	}
	n, err := snappy.DecodedLen(frame)
	if err != nil {
		return nil, false, err
	}
	if n > c.maxDecodedLen {
		return nil, false, ErrTooLarge
	}
	b, err := snappy.Decode(make([]byte, n), frame)
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Encode implements framing.Encoder.
func (c *Codec) Encode(item []byte, dst *framing.Buffer) error {
	return c.inner.Encode(snappy.Encode(nil, item), dst)
}

// PrepareSkipAhead implements framing.DecoderWithSkipAhead using the inner
// codec's strategy, if it has one.
func (c *Codec) PrepareSkipAhead(src *framing.Buffer) framing.SkipAhead {
	if d, ok := c.inner.(framing.DecoderWithSkipAhead[[]byte]); ok {
		return d.PrepareSkipAhead(src)
	}
	return framing.SkipNothing
}
