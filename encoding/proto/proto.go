// Package proto frames protobuf messages, each preceded by its size as an
// unsigned varint.
package proto

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogo/protobuf/proto"

	"github.com/mesos/framed-go/encoding/framing"
)

// MaxSize is the default maximum message size.
const MaxSize = 4 << 20 // 4MB

var (
	// ErrSize is returned when a message exceeds the maximum size of a Codec.
	ErrSize = fmt.Errorf("proto: message exceeds %dMB", MaxSize>>20)

	// ErrHeader is returned when a size header does not fit 64 bits.
	ErrHeader = framing.Error("proto: malformed size header")
)

// Codec decodes and encodes messages of type T. Decoded messages are obtained
// from a factory, e.g. func() *pb.Event { return new(pb.Event) }.
type Codec[T proto.Message] struct {
	newMessage func() T
	maxSize    int
}

// New returns a Codec accepting messages of up to MaxSize bytes.
func New[T proto.Message](newMessage func() T) *Codec[T] {
	return &Codec[T]{newMessage: newMessage, maxSize: MaxSize}
}

// NewWithMaxSize returns a Codec accepting messages of up to maxSize bytes.
func NewWithMaxSize[T proto.Message](newMessage func() T, maxSize int) *Codec[T] {
	if maxSize <= 0 {
		maxSize = MaxSize
	}
	return &Codec[T]{newMessage: newMessage, maxSize: maxSize}
}

// Decode implements framing.Decoder.
func (c *Codec[T]) Decode(src *framing.Buffer) (m T, ok bool, err error) {
	size, hlen, err := c.header(src.Bytes())
	if err != nil || hlen == 0 {
		return m, false, err
	}
	if src.Len()-hlen < size {
		return m, false, nil
	}
	src.Advance(hlen)
	msg := c.newMessage()
	if err = proto.Unmarshal(src.Split(size), msg); err != nil {
		return m, false, err
	}
	return msg, true, nil
}

func (c *Codec[T]) header(b []byte) (size, hlen int, err error) {
	n, hlen := binary.Uvarint(b)
	switch {
	case hlen == 0:
		return 0, 0, nil
	case hlen < 0:
		return 0, 0, ErrHeader
	case n > uint64(c.maxSize):
		return 0, 0, ErrSize
	}
	return int(n), hlen, nil
}

// Encode implements framing.Encoder.
func (c *Codec[T]) Encode(m T, dst *framing.Buffer) error {
	bs, err := proto.Marshal(m)
	if err != nil {
		return err
	}
	if len(bs) > c.maxSize {
		return ErrSize
	}
	var header [binary.MaxVarintLen64]byte
	hlen := binary.PutUvarint(header[:], uint64(len(bs)))
	dst.Reserve(hlen + len(bs))
	dst.Write(header[:hlen])
	dst.Write(bs)
	return nil
}

// PrepareSkipAhead implements framing.DecoderWithSkipAhead by discarding the
// message at the head of the buffer, whatever its declared size.
func (c *Codec[T]) PrepareSkipAhead(*framing.Buffer) framing.SkipAhead {
	return skipMessage{}
}

type skipMessage struct{}

func (s skipMessage) ContinueSkipping(src []byte) (int, framing.SkipAhead, error) {
	n, hlen := binary.Uvarint(src)
	switch {
	case hlen == 0:
		return 0, s, nil
	case hlen < 0, n > math.MaxUint64-uint64(hlen):
		return 0, nil, ErrHeader
	}
	return framing.SkipBytes(n + uint64(hlen)).ContinueSkipping(src)
}
