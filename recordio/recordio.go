// Package recordio implements RecordIO framing: every record is preceded by
// its length in decimal ASCII and a newline, e.g. "5\nhello".
package recordio

import (
	"bytes"
	"errors"
	"io"
	"strconv"

	log "github.com/golang/glog"

	"github.com/mesos/framed-go/encoding/framing"
)

const (
	ErrorBadSize        = framing.Error("bad frame size")
	ErrorOversizedFrame = framing.Error("oversized frame")
	ErrorUnderrun       = framing.Error("frame underrun, unexpected EOF")
)

const (
	// DefaultMaxMessageSize is the default maximum record size.
	DefaultMaxMessageSize = 4 << 20

	// a uint64 has at most 20 decimal digits
	maxHeaderLen = 20
)

type (
	Opt func(*Codec)

	// Codec decodes and encodes RecordIO records. Empty records are valid
	// frames.
	Codec struct {
		maxMessageSize int
	}
)

var (
	_ framing.Codec[[]byte, []byte]        = (*Codec)(nil)
	_ framing.EOFDecoder[[]byte]           = (*Codec)(nil)
	_ framing.DecoderWithSkipAhead[[]byte] = (*Codec)(nil)
)

// MaxMessageSize bounds the size of records a Codec accepts.
func MaxMessageSize(m int) Opt {
	return func(c *Codec) { c.maxMessageSize = m }
}

// New returns a Codec.
func New(opts ...Opt) *Codec {
	c := &Codec{maxMessageSize: DefaultMaxMessageSize}
	for _, f := range opts {
		if f != nil {
			f(c)
		}
	}
	return c
}

// NewReader returns a Reader of the records read from r. Unlike a
// framing.FramedRead, it reports codec errors as they are, without a
// *framing.CodecError around them.
func NewReader(r io.Reader, opts ...Opt) framing.Reader[[]byte] {
	fr := framing.NewFramedRead[[]byte](r, New(opts...))
	return framing.ReaderFunc[[]byte](func() ([]byte, error) {
		frame, err := fr.ReadFrame()
		var codecErr *framing.CodecError
		if errors.As(err, &codecErr) {
			return frame, codecErr.Err
		}
		return frame, err
	})
}

// NewWriter returns a Writer framing every record written to w.
func NewWriter(w io.Writer, opts ...Opt) framing.Writer[[]byte] {
	return framing.NewFramedWrite[[]byte](w, New(opts...))
}

// header parses the record header at the head of b. It returns hlen == 0 if
// the header isn't complete yet.
func (c *Codec) header(b []byte) (size, hlen int, err error) {
	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		if len(b) > maxHeaderLen {
			return 0, 0, ErrorBadSize
		}
		return 0, 0, nil
	}
	if i > maxHeaderLen {
		return 0, 0, ErrorBadSize
	}
	// NOTE(tsenart): https://github.com/golang/go/issues/2632
	n, err := strconv.ParseUint(string(bytes.TrimSpace(b[:i])), 10, 64)
	if err != nil {
		return 0, 0, ErrorBadSize
	}
	if n > uint64(c.maxMessageSize) {
		return 0, 0, ErrorOversizedFrame
	}
	return int(n), i + 1, nil
}

// Decode implements framing.Decoder.
func (c *Codec) Decode(src *framing.Buffer) ([]byte, bool, error) {
	size, hlen, err := c.header(src.Bytes())
	if err != nil || hlen == 0 {
		return nil, false, err
	}
	if src.Len()-hlen < size {
		return nil, false, nil
	}
	src.Advance(hlen)
	return src.Split(size), true, nil
}

// DecodeEOF implements framing.EOFDecoder. A partial record at the end of the
// stream is reported as ErrorUnderrun.
func (c *Codec) DecodeEOF(src *framing.Buffer) ([]byte, bool, error) {
	frame, ok, err := c.Decode(src)
	if ok || err != nil {
		return frame, ok, err
	}
	if src.Len() > 0 {
		return nil, false, ErrorUnderrun
	}
	return nil, false, nil
}

// Encode implements framing.Encoder.
func (c *Codec) Encode(item []byte, dst *framing.Buffer) error {
	if len(item) > c.maxMessageSize {
		return ErrorOversizedFrame
	}
	var header [maxHeaderLen + 1]byte
	h := append(strconv.AppendUint(header[:0], uint64(len(item)), 10), '\n')
	dst.Reserve(len(h) + len(item))
	dst.Write(h)
	dst.Write(item)
	return nil
}

// PrepareSkipAhead implements framing.DecoderWithSkipAhead. The record at the
// head of the buffer is skipped however large it claims to be, as long as its
// header is well formed.
func (c *Codec) PrepareSkipAhead(src *framing.Buffer) framing.SkipAhead {
	log.V(2).Infof("recordio: skipping record, %d bytes buffered", src.Len())
	return skipRecord{}
}

type skipRecord struct{}

func (s skipRecord) ContinueSkipping(src []byte) (int, framing.SkipAhead, error) {
	unbounded := Codec{maxMessageSize: int(^uint(0) >> 1)}
	size, hlen, err := unbounded.header(src)
	if err != nil {
		return 0, nil, err
	}
	if hlen == 0 {
		return 0, s, nil
	}
	return framing.SkipBytes(uint64(size) + uint64(hlen)).ContinueSkipping(src)
}
