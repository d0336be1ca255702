// Package lines implements newline delimited UTF-8 text framing.
//
// Every decoded frame is one line including its trailing '\n'. Bytes left
// over at the end of the stream without a terminating newline are reported as
// ErrUnterminated rather than silently dropped or turned into a frame.
package lines

import (
	"bytes"
	"unicode/utf8"

	log "github.com/golang/glog"

	"github.com/mesos/framed-go/encoding/framing"
)

const (
	ErrInvalidUTF8  = framing.Error("line is not valid UTF-8")
	ErrUnterminated = framing.Error("stream ended inside a line")
)

// Codec splits a byte stream into lines and writes strings verbatim.
type Codec struct{}

var (
	_ framing.Codec[string, string]        = Codec{}
	_ framing.EOFDecoder[string]           = Codec{}
	_ framing.DecoderWithSkipAhead[string] = Codec{}
)

// Decode implements framing.Decoder.
func (Codec) Decode(src *framing.Buffer) (string, bool, error) {
	i := bytes.IndexByte(src.Bytes(), '\n')
	if i < 0 {
		return "", false, nil
	}
	line := src.Split(i + 1)
	if !utf8.Valid(line) {
		return "", false, ErrInvalidUTF8
	}
	return string(line), true, nil
}

// DecodeEOF implements framing.EOFDecoder. It fails with ErrUnterminated when
// the stream ends with a partial line.
func (c Codec) DecodeEOF(src *framing.Buffer) (string, bool, error) {
	line, ok, err := c.Decode(src)
	if ok || err != nil {
		return line, ok, err
	}
	if src.Len() > 0 {
		return "", false, ErrUnterminated
	}
	return "", false, nil
}

// Encode implements framing.Encoder. The item is written as is; callers
// supply the delimiter.
func (Codec) Encode(item string, dst *framing.Buffer) error {
	dst.WriteString(item)
	return nil
}

// PrepareSkipAhead returns a continuation discarding everything up to and
// including the next newline.
func (Codec) PrepareSkipAhead(src *framing.Buffer) framing.SkipAhead {
	log.V(2).Infof("lines: skipping to the end of a line, %d bytes buffered", src.Len())
	return skipLine{}
}

type skipLine struct{}

func (skipLine) ContinueSkipping(src []byte) (int, framing.SkipAhead, error) {
	if i := bytes.IndexByte(src, '\n'); i >= 0 {
		return i + 1, nil, nil
	}
	return len(src), skipLine{}, nil
}
