// Package cbor frames a stream of concatenated CBOR data items.
package cbor

import (
	"errors"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/mesos/framed-go/encoding/framing"
)

// Codec decodes data items into values of type D and encodes values of type E.
type Codec[D, E any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// New returns a Codec using the default CBOR options.
func New[D, E any]() *Codec[D, E] {
	enc, _ := cbor.EncOptions{}.EncMode()
	dec, _ := cbor.DecOptions{}.DecMode()
	return &Codec[D, E]{enc: enc, dec: dec}
}

// NewWithModes returns a Codec using the given encoding and decoding modes.
func NewWithModes[D, E any](enc cbor.EncMode, dec cbor.DecMode) *Codec[D, E] {
	return &Codec[D, E]{enc: enc, dec: dec}
}

// Decode implements framing.Decoder. A data item cut short by the end of the
// buffered bytes yields no frame.
func (c *Codec[D, E]) Decode(src *framing.Buffer) (item D, ok bool, err error) {
	if src.Len() == 0 {
		return item, false, nil
	}
	rest, err := c.dec.UnmarshalFirst(src.Bytes(), &item)
	if err != nil {
		var zero D
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return zero, false, nil
		}
		return zero, false, err
	}
	src.Advance(src.Len() - len(rest))
	return item, true, nil
}

// Encode implements framing.Encoder.
func (c *Codec[D, E]) Encode(item E, dst *framing.Buffer) error {
	b, err := c.enc.Marshal(item)
	if err != nil {
		return err
	}
	dst.Write(b)
	return nil
}

// PrepareSkipAhead implements framing.DecoderWithSkipAhead. A malformed data
// item leaves no boundary to resynchronize on.
func (c *Codec[D, E]) PrepareSkipAhead(*framing.Buffer) framing.SkipAhead {
	return framing.SkipNothing
}
