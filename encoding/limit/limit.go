// Package limit bounds the size of frames a codec may buffer or produce.
//
// A Decoder wraps a decoder with a skip-ahead strategy. Once more than the
// maximum frame size is buffered without a frame coming out, the wrapped
// decoder is asked for a framing.SkipAhead continuation, and the offending
// bytes are discarded as they arrive rather than accumulated. A stream that
// can't be resynchronized leaves the Decoder defunct for good.
package limit

import (
	"fmt"

	log "github.com/golang/glog"

	"github.com/mesos/framed-go/encoding/framing"
	"github.com/mesos/framed-go/metrics"
)

const (
	// ErrLimitExceeded matches every *LimitExceededError via errors.Is.
	ErrLimitExceeded = framing.Error("frame size limit exceeded")

	// ErrDefunct is returned by every Decode call once a Decoder gave up on
	// its stream.
	ErrDefunct = framing.Error("codec couldn't recover from invalid or too big frame")
)

// LimitExceededError reports a frame larger than the configured maximum.
// Decoding may continue after it: subsequent calls skip the frame.
type LimitExceededError struct {
	Size int // buffered or encoded bytes when the violation was detected
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("frame size limit exceeded (detected at %d bytes)", e.Size)
}

func (e *LimitExceededError) Is(target error) bool { return target == ErrLimitExceeded }

// Decoder enforces a maximum frame size on an inner decoder.
type Decoder[T any] struct {
	inner   framing.DecoderWithSkipAhead[T]
	max     int
	skip    framing.SkipAhead // non-nil while recovering
	skipped int               // bytes discarded by the current recovery
	defunct bool
}

var _ framing.EOFDecoder[[]byte] = (*Decoder[[]byte])(nil)

// NewDecoder returns a Decoder that reports frames buffering more than max
// bytes and skips them.
func NewDecoder[T any](inner framing.DecoderWithSkipAhead[T], max int) *Decoder[T] {
	return &Decoder[T]{inner: inner, max: max}
}

// Decode implements framing.Decoder.
func (d *Decoder[T]) Decode(src *framing.Buffer) (T, bool, error) {
	return d.decode(src, false)
}

// DecodeEOF implements framing.EOFDecoder, handing the remainder to the
// inner decoder's terminal decode.
func (d *Decoder[T]) DecodeEOF(src *framing.Buffer) (T, bool, error) {
	return d.decode(src, true)
}

// Defunct reports whether the decoder gave up on its stream.
func (d *Decoder[T]) Defunct() bool { return d.defunct }

// Recovering reports whether an oversized frame is being skipped.
func (d *Decoder[T]) Recovering() bool { return d.skip != nil }

// MaxFrameSize returns the limit.
func (d *Decoder[T]) MaxFrameSize() int { return d.max }

// Inner returns the wrapped decoder.
func (d *Decoder[T]) Inner() framing.DecoderWithSkipAhead[T] { return d.inner }

func (d *Decoder[T]) decode(src *framing.Buffer, eof bool) (item T, ok bool, err error) {
	for d.skip != nil && !d.defunct {
		var (
			n    int
			next framing.SkipAhead
		)
		n, next, err = d.skip.ContinueSkipping(src.Bytes())
		if err != nil {
			d.giveUp(fmt.Sprintf("skip ahead failed: %v", err))
			break
		}
		if n < 0 || n > src.Len() {
			d.giveUp(fmt.Sprintf("skip ahead asked to discard %d of %d buffered bytes", n, src.Len()))
			break
		}
		src.Advance(n)
		d.skipped += n
		d.skip = next

		if next == nil {
			if d.skipped == 0 {
				d.giveUp("skip ahead completed without discarding anything")
				break
			}
			log.V(3).Infof("limit: resynchronized after skipping %d bytes", d.skipped)
			d.skipped = 0
		}
		if src.Len() == 0 || (next != nil && n == 0) {
			return item, false, nil
		}
	}

	if d.defunct {
		src.Reset()
		return item, false, ErrDefunct
	}

	if eof {
		item, ok, err = framing.DecodeEOF[T](d.inner, src)
	} else {
		item, ok, err = d.inner.Decode(src)
	}
	if err != nil || ok {
		return item, ok, err
	}
	if size := src.Len(); size > d.max {
		log.V(3).Infof("limit: %d bytes buffered without a frame, limit is %d", size, d.max)
		metrics.LimitExceeded.Inc()
		d.skip = d.inner.PrepareSkipAhead(src)
		d.skipped = 0
		return item, false, &LimitExceededError{Size: size}
	}
	return item, false, nil
}

func (d *Decoder[T]) giveUp(reason string) {
	log.V(2).Infof("limit: decoder is defunct: %s", reason)
	metrics.Defunct.Inc()
	d.defunct = true
	d.skip = nil
}

// Encoder rejects items whose encoding exceeds a maximum frame size. A
// rejected item leaves the destination untouched.
type Encoder[T any] struct {
	inner   framing.Encoder[T]
	max     int
	scratch *framing.Buffer
}

// NewEncoder returns an Encoder that fails on items encoding to more than max
// bytes.
func NewEncoder[T any](inner framing.Encoder[T], max int) *Encoder[T] {
	return &Encoder[T]{inner: inner, max: max, scratch: framing.NewBuffer(0)}
}

// Encode implements framing.Encoder.
func (e *Encoder[T]) Encode(item T, dst *framing.Buffer) error {
	defer e.scratch.Reset()
	if err := e.inner.Encode(item, e.scratch); err != nil {
		return err
	}
	if size := e.scratch.Len(); size > e.max {
		log.V(3).Infof("limit: refusing to encode a %d byte frame, limit is %d", size, e.max)
		metrics.LimitExceeded.Inc()
		return &LimitExceededError{Size: size}
	}
	dst.Write(e.scratch.Bytes())
	return nil
}

// CodecWithSkipAhead is a codec whose decoder can skip frames.
type CodecWithSkipAhead[D, E any] interface {
	framing.DecoderWithSkipAhead[D]
	framing.Encoder[E]
}

// Codec limits both directions of an inner codec.
type Codec[D, E any] struct {
	*Decoder[D]
	*Encoder[E]
}

var _ framing.Codec[[]byte, []byte] = (*Codec[[]byte, []byte])(nil)

// New returns a Codec limiting frames decoded and encoded by inner to max
// bytes.
func New[D, E any](inner CodecWithSkipAhead[D, E], max int) *Codec[D, E] {
	return &Codec[D, E]{
		Decoder: NewDecoder[D](inner, max),
		Encoder: NewEncoder[E](inner, max),
	}
}
