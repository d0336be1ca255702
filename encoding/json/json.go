// Package json frames a stream of concatenated JSON values.
//
// Values need no delimiter between them. A value cut short by the end of the
// buffered bytes is not an error: decoding resumes once more bytes arrive.
// Top-level numbers are ambiguous in such a stream ("12" may be the start of
// "123"), so values are expected to be objects, arrays or strings.
package json

import (
	"bytes"
	stdjson "encoding/json"
	"io"

	"github.com/pquerna/ffjson/ffjson"

	"github.com/mesos/framed-go/encoding/framing"
)

// Codec decodes values of type D and encodes values of type E.
type Codec[D, E any] struct{}

// New returns a Codec.
func New[D, E any]() Codec[D, E] { return Codec[D, E]{} }

// Decode implements framing.Decoder.
func (Codec[D, E]) Decode(src *framing.Buffer) (item D, ok bool, err error) {
	dec := stdjson.NewDecoder(bytes.NewReader(src.Bytes()))
	if err = dec.Decode(&item); err != nil {
		var zero D
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return zero, false, nil
		}
		return zero, false, err
	}
	src.Advance(int(dec.InputOffset()))
	return item, true, nil
}

// Encode implements framing.Encoder.
func (Codec[D, E]) Encode(item E, dst *framing.Buffer) error {
	b, err := ffjson.Marshal(item)
	if err != nil {
		return err
	}
	dst.Write(b)
	ffjson.Pool(b)
	return nil
}

// PrepareSkipAhead implements framing.DecoderWithSkipAhead. A JSON stream has
// no frame boundary to resynchronize on, so nothing is skipped.
func (Codec[D, E]) PrepareSkipAhead(*framing.Buffer) framing.SkipAhead {
	return framing.SkipNothing
}
