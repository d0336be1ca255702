package framing

import (
	"fmt"
	"io"
)

// FramedWrite encodes items of type T onto a byte stream.
type FramedWrite[T any] struct {
	id      string
	w       io.Writer
	encoder Encoder[T]
	state   *writeState
}

// NewFramedWrite returns a FramedWrite encoding items onto w with encoder.
func NewFramedWrite[T any](w io.Writer, encoder Encoder[T], opts ...Option) *FramedWrite[T] {
	o := newOptions(opts)
	return &FramedWrite[T]{
		id:      newID("framed-write"),
		w:       w,
		encoder: encoder,
		state:   newWriteState(nil, o.writeCapacity, o.boundary),
	}
}

// Ready drains the write buffer below the backpressure boundary if it
// reached it.
func (f *FramedWrite[T]) Ready() error { return f.state.ready(f.id, f.w) }

// StartSend encodes item into the write buffer without doing any I/O.
func (f *FramedWrite[T]) StartSend(item T) error {
	return encodeItem[T](f.id, f.encoder, f.state, item)
}

// Feed waits for room in the write buffer and encodes item into it. Several
// fed items may reach the transport in a single write.
func (f *FramedWrite[T]) Feed(item T) error {
	if err := f.Ready(); err != nil {
		return err
	}
	return f.StartSend(item)
}

// WriteFrame feeds item and flushes it to the transport.
func (f *FramedWrite[T]) WriteFrame(item T) error {
	if err := f.Feed(item); err != nil {
		return err
	}
	return f.Flush()
}

// Flush writes all buffered bytes and flushes the transport.
func (f *FramedWrite[T]) Flush() error { return f.state.flush(f.id, f.w, 0) }

// Close flushes and closes the transport, if it is an io.Closer.
func (f *FramedWrite[T]) Close() error { return f.state.close(f.id, f.w) }

// Transport returns the underlying writer.
func (f *FramedWrite[T]) Transport() io.Writer { return f.w }

// Encoder returns the encoder.
func (f *FramedWrite[T]) Encoder() Encoder[T] { return f.encoder }

// WriteBuffer returns the encoded bytes not yet written to the transport.
func (f *FramedWrite[T]) WriteBuffer() *Buffer { return f.state.buffer }

func (f *FramedWrite[T]) String() string {
	return fmt.Sprintf("%s{io: %T, encoder: %T, buffered: %d}", f.id, f.w, f.encoder, f.state.buffer.Len())
}
