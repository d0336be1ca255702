// Package length implements length-prefixed framing: every frame is a
// big-endian unsigned length header of a fixed width followed by that many
// payload bytes.
package length

import (
	"encoding/binary"
	"fmt"
	"math"

	log "github.com/golang/glog"

	"github.com/mesos/framed-go/encoding/framing"
)

// ErrOverflow is returned when a length can't be represented in the header
// width, or a decoded length doesn't fit an int.
const ErrOverflow = framing.Error("length overflow")

// Width is the size of the length header in bytes.
type Width int

const (
	Uint8  Width = 1
	Uint16 Width = 2
	Uint32 Width = 4
	Uint64 Width = 8
)

// ParseWidth returns the Width of n bytes.
func ParseWidth(n int) (Width, error) {
	w := Width(n)
	if !w.valid() {
		return 0, fmt.Errorf("unsupported length header width %d, expected one of 1, 2, 4, 8", n)
	}
	return w, nil
}

func (w Width) valid() bool {
	switch w {
	case Uint8, Uint16, Uint32, Uint64:
		return true
	}
	return false
}

func (w Width) max() uint64 {
	switch w {
	case Uint8:
		return math.MaxUint8
	case Uint16:
		return math.MaxUint16
	case Uint32:
		return math.MaxUint32
	}
	return math.MaxUint64
}

func (w Width) put(b []byte, n uint64) {
	switch w {
	case Uint8:
		b[0] = uint8(n)
	case Uint16:
		binary.BigEndian.PutUint16(b, uint16(n))
	case Uint32:
		binary.BigEndian.PutUint32(b, uint32(n))
	default:
		binary.BigEndian.PutUint64(b, n)
	}
}

func (w Width) get(b []byte) uint64 {
	switch w {
	case Uint8:
		return uint64(b[0])
	case Uint16:
		return uint64(binary.BigEndian.Uint16(b))
	case Uint32:
		return uint64(binary.BigEndian.Uint32(b))
	}
	return binary.BigEndian.Uint64(b)
}

func (w Width) String() string { return fmt.Sprintf("uint%d", 8*int(w)) }

// Codec frames byte slices with a length header of a fixed Width.
type Codec struct {
	width Width
}

var (
	_ framing.Codec[[]byte, []byte]        = (*Codec)(nil)
	_ framing.DecoderWithSkipAhead[[]byte] = (*Codec)(nil)
)

// New returns a Codec with the given header width. It panics if w is not one
// of Uint8, Uint16, Uint32 or Uint64.
func New(w Width) *Codec {
	if !w.valid() {
		panic(fmt.Sprintf("length: unsupported header width %d", int(w)))
	}
	return &Codec{width: w}
}

// Width returns the header width.
func (c *Codec) Width() Width { return c.width }

// Encode appends the length header and item to dst.
func (c *Codec) Encode(item []byte, dst *framing.Buffer) error {
	n := uint64(len(item))
	if n > c.width.max() {
		return ErrOverflow
	}
	var header [8]byte
	c.width.put(header[:c.width], n)

	dst.Reserve(int(c.width) + len(item))
	dst.Write(header[:c.width])
	dst.Write(item)
	return nil
}

// Decode returns the next payload. The header is only consumed together with
// a complete payload, so an incomplete frame leaves src untouched.
func (c *Codec) Decode(src *framing.Buffer) ([]byte, bool, error) {
	hlen := int(c.width)
	if src.Len() < hlen {
		return nil, false, nil
	}
	n, err := c.decodeLength(src.Bytes())
	if err != nil {
		return nil, false, err
	}
	if src.Len()-hlen < n {
		return nil, false, nil
	}
	src.Advance(hlen)
	return src.Split(n), true, nil
}

func (c *Codec) decodeLength(b []byte) (int, error) {
	n := c.width.get(b)
	if n > math.MaxInt {
		return 0, ErrOverflow
	}
	return int(n), nil
}

// PrepareSkipAhead returns a continuation that discards the frame at the head
// of src, header included, however long it claims to be.
func (c *Codec) PrepareSkipAhead(src *framing.Buffer) framing.SkipAhead {
	log.V(2).Infof("length: skipping oversized %s frame with %d bytes buffered", c.width, src.Len())
	return skipFrame(c.width)
}

// skipFrame waits for a complete header and then skips the frame it declares.
type skipFrame Width

func (s skipFrame) ContinueSkipping(src []byte) (int, framing.SkipAhead, error) {
	w := Width(s)
	if len(src) < int(w) {
		return 0, s, nil
	}
	n := w.get(src)
	if n > math.MaxUint64-uint64(w) {
		return 0, nil, ErrOverflow
	}
	return framing.SkipBytes(n + uint64(w)).ContinueSkipping(src)
}
