// Package framing turns a byte stream into a stream of frames and back.
//
// A Decoder is offered the bytes buffered from the transport until it can
// produce a frame; an Encoder appends items to a write buffer that is drained
// into the transport under a backpressure boundary. FramedRead, FramedWrite
// and Framed drive codecs over io.Reader, io.Writer and io.ReadWriter.
package framing

// Error is a constant error condition reported by the framing layer and by
// codecs built on it.
type Error string

func (err Error) Error() string { return string(err) }

const (
	// ErrWriteZero is returned when a transport accepts zero bytes while
	// buffered frames remain to be written.
	ErrWriteZero = Error("failed to write frame to transport")

	errInvalidRead  = Error("transport returned an invalid read count")
	errInvalidWrite = Error("transport returned an invalid write count")
)

// CodecError is returned when a Decoder or Encoder fails. The read side
// reports a decode failure exactly once; the following ReadFrame reports
// io.EOF.
type CodecError struct {
	Err error
}

func (e *CodecError) Error() string { return "codec error: " + e.Err.Error() }

// Unwrap returns the error reported by the codec.
func (e *CodecError) Unwrap() error { return e.Err }

type (
	// Reader generates frames from some source, returning io.EOF once the
	// source is exhausted.
	Reader[T any] interface {
		ReadFrame() (frame T, err error)
	}

	// ReaderFunc is the functional adaptation of Reader.
	ReaderFunc[T any] func() (T, error)

	// Writer sends whole frames to some endpoint.
	Writer[T any] interface {
		WriteFrame(frame T) error
	}

	// WriterFunc is the functional adaptation of Writer.
	WriterFunc[T any] func(T) error
)

func (f ReaderFunc[T]) ReadFrame() (T, error) { return f() }
func (f WriterFunc[T]) WriteFrame(v T) error  { return f(v) }

var _ = Reader[[]byte](ReaderFunc[[]byte](nil))
var _ = Writer[[]byte](WriterFunc[[]byte](nil))
