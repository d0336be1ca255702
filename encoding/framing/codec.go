package framing

type (
	// Decoder turns buffered bytes into frames.
	//
	// Decode returns ok == false when src does not yet hold a complete frame. In
	// that case src must be left untouched, or have only unambiguous prefix bytes
	// consumed, so that Decode can be called again once more bytes have been
	// appended. When a frame is produced, src is advanced past exactly the bytes
	// it was decoded from.
	Decoder[T any] interface {
		Decode(src *Buffer) (item T, ok bool, err error)
	}

	// EOFDecoder is implemented by decoders that need to treat the bytes left
	// over at end of input differently from a regular Decode call. Decoders
	// that don't implement it get Decode called instead.
	EOFDecoder[T any] interface {
		Decoder[T]
		DecodeEOF(src *Buffer) (item T, ok bool, err error)
	}

	// Encoder turns items into bytes. Encode appends exactly the serialized
	// form of item to dst, and leaves dst untouched when it fails.
	Encoder[T any] interface {
		Encode(item T, dst *Buffer) error
	}

	// Codec decodes frames of type D and encodes items of type E.
	Codec[D, E any] interface {
		Decoder[D]
		Encoder[E]
	}

	// DecoderFunc is the functional adaptation of Decoder.
	DecoderFunc[T any] func(src *Buffer) (T, bool, error)

	// EncoderFunc is the functional adaptation of Encoder.
	EncoderFunc[T any] func(item T, dst *Buffer) error
)

func (f DecoderFunc[T]) Decode(src *Buffer) (T, bool, error) { return f(src) }
func (f EncoderFunc[T]) Encode(item T, dst *Buffer) error    { return f(item, dst) }

// DecodeEOF runs the terminal decode of d against src.
func DecodeEOF[T any](d Decoder[T], src *Buffer) (T, bool, error) {
	if e, ok := d.(EOFDecoder[T]); ok {
		return e.DecodeEOF(src)
	}
	return d.Decode(src)
}

type (
	// SkipAhead is a continuation that discards bytes to resynchronize a stream
	// after an oversized or malformed frame.
	//
	// ContinueSkipping is handed the currently buffered bytes and returns how many
	// of them to discard, and the continuation to resume with once more bytes
	// arrive. A nil next means skipping is complete. An error means the stream
	// can't be resynchronized.
	SkipAhead interface {
		ContinueSkipping(src []byte) (n int, next SkipAhead, err error)
	}

	// SkipAheadFunc is the functional adaptation of SkipAhead.
	SkipAheadFunc func(src []byte) (int, SkipAhead, error)

	// DecoderWithSkipAhead is a Decoder that knows how to get past a frame it
	// can't or won't buffer completely.
	DecoderWithSkipAhead[T any] interface {
		Decoder[T]
		// PrepareSkipAhead is called with the buffered bytes once the frame at
		// their head was judged too large.
		PrepareSkipAhead(src *Buffer) SkipAhead
	}
)

func (f SkipAheadFunc) ContinueSkipping(src []byte) (int, SkipAhead, error) { return f(src) }

// SkipNothing is the continuation for decoders with no resynchronization
// strategy: it discards nothing and is immediately done.
var SkipNothing SkipAhead = SkipAheadFunc(func([]byte) (int, SkipAhead, error) { return 0, nil, nil })

// SkipBytes returns a continuation that discards exactly n bytes, spread over
// as many calls as it takes for them to arrive.
func SkipBytes(n uint64) SkipAhead {
	if n == 0 {
		return SkipNothing
	}
	return skipBytes(n)
}

type skipBytes uint64

func (s skipBytes) ContinueSkipping(src []byte) (int, SkipAhead, error) {
	if uint64(len(src)) >= uint64(s) {
		return int(s), nil, nil
	}
	return len(src), s - skipBytes(len(src)), nil
}
