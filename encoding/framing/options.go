package framing

const (
	// DefaultCapacity is the initial capacity of the read and write buffers.
	DefaultCapacity = 8 * 1024
	// DefaultBackpressureBoundary is the number of unflushed bytes at which
	// the write side stops accepting items until the buffer has been drained.
	DefaultBackpressureBoundary = DefaultCapacity
)

type options struct {
	readCapacity  int
	writeCapacity int
	boundary      int
}

// Option configures a framed transport.
type Option func(*options)

func newOptions(opts []Option) options {
	o := options{
		readCapacity:  DefaultCapacity,
		writeCapacity: DefaultCapacity,
		boundary:      DefaultBackpressureBoundary,
	}
	for _, f := range opts {
		if f != nil {
			f(&o)
		}
	}
	return o
}

// ReadCapacity sets the initial capacity of the read buffer.
func ReadCapacity(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.readCapacity = n
		}
	}
}

// WriteCapacity sets the initial capacity of the write buffer.
func WriteCapacity(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.writeCapacity = n
		}
	}
}

// BackpressureBoundary sets the number of unflushed bytes at which the write
// side drains its buffer before accepting another item.
func BackpressureBoundary(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.boundary = n
		}
	}
}
