package framing

import (
	"bytes"
	"errors"
	"io"
)

// limitedWriter accepts up to limit bytes in total and then reports zero
// bytes written, like a cursor over a fixed size slice.
type limitedWriter struct {
	bytes.Buffer
	limit int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	room := w.limit - w.Len()
	if room > len(p) {
		room = len(p)
	}
	return w.Buffer.Write(p[:room])
}

// nullWriter accepts everything and remembers how it was called.
type nullWriter struct {
	writes    int
	lastWrite int
	flushes   int
	closed    bool
}

func (w *nullWriter) Write(p []byte) (int, error) {
	w.writes++
	w.lastWrite = len(p)
	return len(p), nil
}

func (w *nullWriter) Flush() error {
	w.flushes++
	return nil
}

func (w *nullWriter) Close() error {
	w.closed = true
	return nil
}

// oneByteReader hands out its input one byte per Read.
type oneByteReader struct {
	input []byte
	reads int
}

func (r *oneByteReader) Read(p []byte) (int, error) {
	r.reads++
	if len(r.input) == 0 {
		return 0, io.EOF
	}
	p[0] = r.input[0]
	r.input = r.input[1:]
	return 1, nil
}

// readFunc adapts a function to io.Reader.
type readFunc func(p []byte) (int, error)

func (f readFunc) Read(p []byte) (int, error) { return f(p) }

// lineDecoder splits frames on '\n', keeping the delimiter.
var lineDecoder = DecoderFunc[string](func(src *Buffer) (string, bool, error) {
	i := bytes.IndexByte(src.Bytes(), '\n')
	if i < 0 {
		return "", false, nil
	}
	return string(src.Split(i + 1)), true, nil
})

// allTheAs yields one 'a' per call and throws away everything else.
var allTheAs = DecoderFunc[byte](func(src *Buffer) (byte, bool, error) {
	for src.Len() > 0 {
		c := src.Split(1)[0]
		if c == 'a' {
			return c, true, nil
		}
	}
	return 0, false, nil
})

var errBrokenPipe = errors.New("broken pipe")
