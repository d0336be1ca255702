package framing

import (
	"io"
	"time"

	log "github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/mesos/framed-go/metrics"
)

// maxConsecutiveEmptyReads bounds how often a transport may return (0, nil)
// before the read side gives up with io.ErrNoProgress.
const maxConsecutiveEmptyReads = 100

// readState is the read side of a framed transport.
//
// The states of the read loop map onto the flags as follows:
//
//	reading:  !isReadable && !eof
//	framing:   isReadable && !eof
//	pausing:   isReadable &&  eof
//	paused:   !isReadable &&  eof
//	errored:   hasErrored
type readState struct {
	buffer     *Buffer
	eof        bool
	hasErrored bool
	isReadable bool
	pendingErr error // transport error that arrived together with data
}

func newReadState(buffer *Buffer, capacity int) *readState {
	if buffer == nil {
		return &readState{buffer: NewBuffer(capacity)}
	}
	buffer.ensureCapacity(capacity)
	return &readState{
		buffer:     buffer,
		isReadable: buffer.Len() > 0,
	}
}

// readFrame drives the read state machine until it produces one frame, hits
// the end of the stream, or fails.
func readFrame[T any](id string, r io.Reader, dec Decoder[T], s *readState) (frame T, err error) {
	var ok bool
	for {
		// A failed decoder is not retried: the stream ends after one error.
		if s.hasErrored {
			log.V(3).Infof("%s: errored, pausing", id)
			s.isReadable = false
			s.hasErrored = false
			return frame, io.EOF
		}

		if s.isReadable {
			if s.eof {
				frame, ok, err = DecodeEOF(dec, s.buffer)
				if err != nil {
					return frame, s.decodeFailed(id, err)
				}
				if !ok {
					log.V(3).Infof("%s: pausing -> paused", id)
					s.isReadable = false
					return frame, io.EOF
				}
				metrics.FramesDecoded.Inc()
				return frame, nil
			}

			log.V(4).Infof("%s: attempting to decode a frame from %d bytes", id, s.buffer.Len())
			frame, ok, err = dec.Decode(s.buffer)
			if err != nil {
				return frame, s.decodeFailed(id, err)
			}
			if ok {
				log.V(4).Infof("%s: frame decoded from buffer", id)
				metrics.FramesDecoded.Inc()
				return frame, nil
			}
			// framing -> reading
			s.isReadable = false
		}

		var n int
		if n, err = s.fill(r); err != nil {
			log.V(3).Infof("%s: transport read failed, going to errored state: %v", id, err)
			s.hasErrored = true
			metrics.ErrorCount.WithLabelValues(metrics.ErrorTransport).Inc()
			return frame, errors.Wrap(err, "framing: read from transport")
		}
		if n == 0 {
			if s.eof {
				return frame, io.EOF
			}
			// reading -> pausing
			s.eof = true
		} else {
			// reading/paused -> framing
			s.eof = false
		}
		s.isReadable = true
	}
}

func (s *readState) decodeFailed(id string, err error) error {
	log.V(3).Infof("%s: decode failed, going to errored state: %v", id, err)
	s.hasErrored = true
	metrics.ErrorCount.WithLabelValues(metrics.ErrorDecode).Inc()
	return &CodecError{Err: err}
}

// fill reads from r once into the buffer. It reports end of input as a zero
// count with a nil error.
func (s *readState) fill(r io.Reader) (int, error) {
	if err := s.pendingErr; err != nil {
		s.pendingErr = nil
		return 0, err
	}
	for i := 0; i < maxConsecutiveEmptyReads; i++ {
		n, err := s.buffer.ReadOnce(r)
		if n > 0 {
			metrics.BytesRead.Add(float64(n))
			if err != nil && err != io.EOF {
				s.pendingErr = err
			}
			return n, nil
		}
		if err == io.EOF {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
	}
	return 0, io.ErrNoProgress
}

// writeState is the write side of a framed transport.
type writeState struct {
	buffer   *Buffer
	boundary int
}

func newWriteState(buffer *Buffer, capacity, boundary int) *writeState {
	if buffer == nil {
		buffer = NewBuffer(capacity)
	} else {
		buffer.ensureCapacity(capacity)
	}
	return &writeState{buffer: buffer, boundary: boundary}
}

// ready drains the buffer below the backpressure boundary, if it reached it.
func (s *writeState) ready(id string, w io.Writer) error {
	if s.buffer.Len() < s.boundary {
		return nil
	}
	log.V(3).Infof("%s: %d bytes buffered, draining below %d", id, s.buffer.Len(), s.boundary)
	return s.flush(id, w, s.boundary)
}

func encodeItem[T any](id string, enc Encoder[T], s *writeState, item T) error {
	if err := enc.Encode(item, s.buffer); err != nil {
		log.V(3).Infof("%s: encode failed: %v", id, err)
		metrics.ErrorCount.WithLabelValues(metrics.ErrorEncode).Inc()
		return &CodecError{Err: err}
	}
	metrics.FramesEncoded.Inc()
	return nil
}

// flush writes buffered bytes until fewer than limit remain and then flushes
// the transport itself, if it supports that.
func (s *writeState) flush(id string, w io.Writer, limit int) error {
	defer func(start time.Time) {
		metrics.FlushLatency.Observe(metrics.InMicroseconds(time.Since(start)))
	}(time.Now())

	for s.buffer.Len() > 0 && s.buffer.Len() >= limit {
		log.V(4).Infof("%s: remaining: %d, writing", id, s.buffer.Len())
		n, err := s.buffer.WriteOnce(w)
		metrics.BytesWritten.Add(float64(n))
		if err != nil {
			metrics.ErrorCount.WithLabelValues(metrics.ErrorTransport).Inc()
			return errors.Wrap(err, "framing: write to transport")
		}
		if n == 0 {
			metrics.ErrorCount.WithLabelValues(metrics.ErrorWriteZero).Inc()
			return ErrWriteZero
		}
	}

	if f, ok := w.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			metrics.ErrorCount.WithLabelValues(metrics.ErrorTransport).Inc()
			return errors.Wrap(err, "framing: flush transport")
		}
	}
	log.V(4).Infof("%s: framed transport flushed", id)
	return nil
}

func (s *writeState) close(id string, w io.Writer) error {
	if err := s.flush(id, w, 0); err != nil {
		return err
	}
	if c, ok := w.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return errors.Wrap(err, "framing: close transport")
		}
	}
	log.V(3).Infof("%s: framed transport closed", id)
	return nil
}
