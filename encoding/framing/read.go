package framing

import (
	"fmt"
	"io"
)

// FramedRead decodes frames of type T from a byte stream.
type FramedRead[T any] struct {
	id      string
	r       io.Reader
	decoder Decoder[T]
	state   *readState
}

// NewFramedRead returns a FramedRead decoding frames from r with decoder.
func NewFramedRead[T any](r io.Reader, decoder Decoder[T], opts ...Option) *FramedRead[T] {
	o := newOptions(opts)
	return &FramedRead[T]{
		id:      newID("framed-read"),
		r:       r,
		decoder: decoder,
		state:   newReadState(nil, o.readCapacity),
	}
}

// NewFramedReadBuffer is like NewFramedRead but starts out with the bytes
// already held in buf, e.g. the read buffer of detached Parts.
func NewFramedReadBuffer[T any](r io.Reader, decoder Decoder[T], buf *Buffer, opts ...Option) *FramedRead[T] {
	o := newOptions(opts)
	return &FramedRead[T]{
		id:      newID("framed-read"),
		r:       r,
		decoder: decoder,
		state:   newReadState(buf, o.readCapacity),
	}
}

// ReadFrame returns the next decoded frame, or io.EOF at the end of the
// stream. A decode error is reported once, as a *CodecError, and is followed
// by io.EOF.
func (f *FramedRead[T]) ReadFrame() (T, error) {
	return readFrame[T](f.id, f.r, f.decoder, f.state)
}

// Transport returns the underlying reader.
func (f *FramedRead[T]) Transport() io.Reader { return f.r }

// Decoder returns the decoder.
func (f *FramedRead[T]) Decoder() Decoder[T] { return f.decoder }

// ReadBuffer returns the buffered bytes not yet decoded.
func (f *FramedRead[T]) ReadBuffer() *Buffer { return f.state.buffer }

func (f *FramedRead[T]) String() string {
	return fmt.Sprintf("%s{io: %T, decoder: %T, buffered: %d}", f.id, f.r, f.decoder, f.state.buffer.Len())
}
