package framing

import (
	"fmt"
	"io"

	log "github.com/golang/glog"
	"github.com/pborman/uuid"
)

// Framed turns a duplex byte stream into a stream of decoded frames of type D
// and a sink of items of type E.
//
// A Framed is driven by one goroutine at a time; it does no locking of its
// own. Deadlines are the business of the transport (e.g. net.Conn).
type Framed[D, E any] struct {
	id    string
	rw    io.ReadWriter
	codec Codec[D, E]
	read  *readState
	write *writeState
}

// NewFramed returns a Framed reading and writing frames over rw with codec.
func NewFramed[D, E any](rw io.ReadWriter, codec Codec[D, E], opts ...Option) *Framed[D, E] {
	o := newOptions(opts)
	return &Framed[D, E]{
		id:    newID("framed"),
		rw:    rw,
		codec: codec,
		read:  newReadState(nil, o.readCapacity),
		write: newWriteState(nil, o.writeCapacity, o.boundary),
	}
}

// FromParts rebuilds a Framed from parts detached from another one. Bytes left
// in the read buffer are decoded before anything new is read from the
// transport; bytes left in the write buffer are written ahead of new items.
func FromParts[D, E any](parts Parts[D, E], opts ...Option) *Framed[D, E] {
	o := newOptions(opts)
	f := &Framed[D, E]{
		id:    newID("framed"),
		rw:    parts.IO,
		codec: parts.Codec,
		read:  newReadState(parts.ReadBuf, o.readCapacity),
		write: newWriteState(parts.WriteBuf, o.writeCapacity, o.boundary),
	}
	log.V(2).Infof("%s: built from parts, %d bytes buffered for reading, %d for writing",
		f.id, f.read.buffer.Len(), f.write.buffer.Len())
	return f
}

// ReadFrame returns the next decoded frame. It returns io.EOF once the
// transport is exhausted and the decoder has nothing more to produce, and
// after a decode error has been reported.
func (f *Framed[D, E]) ReadFrame() (D, error) {
	return readFrame[D](f.id, f.rw, f.codec, f.read)
}

// Ready makes room for another item, draining the write buffer into the
// transport if it reached the backpressure boundary.
func (f *Framed[D, E]) Ready() error { return f.write.ready(f.id, f.rw) }

// StartSend encodes item into the write buffer without doing any I/O. Callers
// are expected to call Ready first.
func (f *Framed[D, E]) StartSend(item E) error {
	return encodeItem[E](f.id, f.codec, f.write, item)
}

// Feed waits for room in the write buffer and encodes item into it.
func (f *Framed[D, E]) Feed(item E) error {
	if err := f.Ready(); err != nil {
		return err
	}
	return f.StartSend(item)
}

// WriteFrame feeds item and flushes it to the transport.
func (f *Framed[D, E]) WriteFrame(item E) error {
	if err := f.Feed(item); err != nil {
		return err
	}
	return f.Flush()
}

// Flush writes all buffered bytes to the transport and flushes the transport.
func (f *Framed[D, E]) Flush() error { return f.write.flush(f.id, f.rw, 0) }

// Close flushes and then closes the transport, if it is an io.Closer.
func (f *Framed[D, E]) Close() error { return f.write.close(f.id, f.rw) }

// Transport returns the underlying transport.
func (f *Framed[D, E]) Transport() io.ReadWriter { return f.rw }

// Codec returns the codec.
func (f *Framed[D, E]) Codec() Codec[D, E] { return f.codec }

// ReadBuffer returns the buffered bytes not yet decoded.
func (f *Framed[D, E]) ReadBuffer() *Buffer { return f.read.buffer }

// WriteBuffer returns the encoded bytes not yet written to the transport.
func (f *Framed[D, E]) WriteBuffer() *Buffer { return f.write.buffer }

// IntoParts detaches the transport, codec and buffers. The Framed must not be
// used afterwards.
func (f *Framed[D, E]) IntoParts() Parts[D, E] {
	log.V(2).Infof("%s: detaching parts", f.id)
	parts := Parts[D, E]{
		IO:       f.rw,
		Codec:    f.codec,
		ReadBuf:  f.read.buffer,
		WriteBuf: f.write.buffer,
	}
	f.rw, f.codec, f.read, f.write = nil, nil, nil, nil
	return parts
}

func (f *Framed[D, E]) String() string {
	return fmt.Sprintf("%s{io: %T, codec: %T}", f.id, f.rw, f.codec)
}

// Parts are the components of a Framed. They allow switching codecs in the
// middle of a stream, e.g. after a handshake, without losing buffered bytes.
type Parts[D, E any] struct {
	IO       io.ReadWriter
	Codec    Codec[D, E]
	ReadBuf  *Buffer
	WriteBuf *Buffer
}

// NewParts returns Parts with empty buffers.
func NewParts[D, E any](rw io.ReadWriter, codec Codec[D, E]) Parts[D, E] {
	return Parts[D, E]{IO: rw, Codec: codec, ReadBuf: NewBuffer(0), WriteBuf: NewBuffer(0)}
}

func newID(kind string) string {
	return kind + "[" + uuid.New() + "]"
}
