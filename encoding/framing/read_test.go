package framing

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesos/framed-go/metrics"
)

func TestReadMultipleFramesFromOneRead(t *testing.T) {
	sent := false
	r := readFunc(func(p []byte) (int, error) {
		if sent {
			t.Fatal("transport read although frames were buffered")
		}
		sent = true
		return copy(p, "one\ntwo\n"), nil
	})
	framed := NewFramedRead[string](r, lineDecoder)

	one, err := framed.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "one\n", one)

	two, err := framed.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "two\n", two)
}

func TestReadFewMessagesOneByteAtATime(t *testing.T) {
	framed := NewFramedRead[byte](&oneByteReader{input: []byte("aabbbabbbabbbabb")}, allTheAs)
	for i := 0; i < 5; i++ {
		c, err := framed.ReadFrame()
		require.NoError(t, err)
		assert.Equal(t, byte('a'), c)
	}
	_, err := framed.ReadFrame()
	assert.Equal(t, io.EOF, err)
}

func TestReadEndOfStream(t *testing.T) {
	var decodes, eofDecodes int
	never := eofDecoderFuncs[int]{
		decode: func(*Buffer) (int, bool, error) {
			decodes++
			return 0, false, nil
		},
		decodeEOF: func(*Buffer) (int, bool, error) {
			eofDecodes++
			return 0, false, nil
		},
	}
	r := &oneByteReader{input: []byte("xyz")}
	framed := NewFramedRead[int](r, never)

	_, err := framed.ReadFrame()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 3, decodes)
	assert.Equal(t, 1, eofDecodes)
	assert.Equal(t, 4, r.reads)

	// paused: the transport is polled again but nothing more is produced
	for i := 0; i < 3; i++ {
		_, err = framed.ReadFrame()
		assert.Equal(t, io.EOF, err)
	}
	assert.Equal(t, 1, eofDecodes)
	assert.Equal(t, "xyz", framed.ReadBuffer().String())
}

func TestReadDecodeEOFYieldsRemainder(t *testing.T) {
	dec := eofDecoderFuncs[string]{
		decode: lineDecoder,
		decodeEOF: func(src *Buffer) (string, bool, error) {
			if s, ok, err := lineDecoder(src); ok || err != nil {
				return s, ok, err
			}
			if src.Len() == 0 {
				return "", false, nil
			}
			return string(src.Split(src.Len())), true, nil
		},
	}
	framed := NewFramedRead[string](strings.NewReader("a\nb\nrest"), dec)
	var frames []string
	for {
		s, err := framed.ReadFrame()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		frames = append(frames, s)
	}
	assert.Equal(t, []string{"a\n", "b\n", "rest"}, frames)
}

func TestReadDecodeErrorIsReportedOnce(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	failing := DecoderFunc[int](func(src *Buffer) (int, bool, error) {
		calls++
		return 0, false, boom
	})
	before := testutil.ToFloat64(metrics.ErrorCount.WithLabelValues(metrics.ErrorDecode))
	framed := NewFramedRead[int](strings.NewReader("junk"), failing)

	_, err := framed.ReadFrame()
	var codecErr *CodecError
	require.True(t, errors.As(err, &codecErr))
	assert.Equal(t, boom, codecErr.Err)
	assert.True(t, errors.Is(err, boom))

	_, err = framed.ReadFrame()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ErrorCount.WithLabelValues(metrics.ErrorDecode)))
}

func TestReadTransportError(t *testing.T) {
	r := readFunc(func([]byte) (int, error) { return 0, errBrokenPipe })
	framed := NewFramedRead[string](r, lineDecoder)

	_, err := framed.ReadFrame()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errBrokenPipe))

	_, err = framed.ReadFrame()
	assert.Equal(t, io.EOF, err)
}

func TestReadKeepsBytesThatArriveWithAnError(t *testing.T) {
	calls := 0
	r := readFunc(func(p []byte) (int, error) {
		calls++
		if calls > 1 {
			t.Fatal("transport read after it failed")
		}
		return copy(p, "last\n"), errBrokenPipe
	})
	framed := NewFramedRead[string](r, lineDecoder)

	s, err := framed.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "last\n", s)

	_, err = framed.ReadFrame()
	assert.True(t, errors.Is(err, errBrokenPipe))

	_, err = framed.ReadFrame()
	assert.Equal(t, io.EOF, err)
}

func TestReadNoProgress(t *testing.T) {
	r := readFunc(func([]byte) (int, error) { return 0, nil })
	framed := NewFramedRead[string](r, lineDecoder)
	_, err := framed.ReadFrame()
	assert.True(t, errors.Is(err, io.ErrNoProgress))
}

func TestReadCountsFrames(t *testing.T) {
	before := testutil.ToFloat64(metrics.FramesDecoded)
	beforeBytes := testutil.ToFloat64(metrics.BytesRead)
	framed := NewFramedRead[string](strings.NewReader("1\n2\n3\n"), lineDecoder)
	for i := 0; i < 3; i++ {
		_, err := framed.ReadFrame()
		require.NoError(t, err)
	}
	assert.Equal(t, before+3, testutil.ToFloat64(metrics.FramesDecoded))
	assert.Equal(t, beforeBytes+6, testutil.ToFloat64(metrics.BytesRead))
}

func TestBytesCodecDecodesEverything(t *testing.T) {
	expected := make([]byte, 32)
	framed := NewFramed[[]byte, []byte](&rwBuffer{Buffer: bytes.NewBuffer(expected)}, BytesCodec{})

	read, err := framed.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, expected, read)

	_, err = framed.ReadFrame()
	assert.Equal(t, io.EOF, err)
}

func TestPartsSwitchCodecMidStream(t *testing.T) {
	transport := &rwBuffer{Buffer: bytes.NewBufferString("HELLO\nraw payload")}
	handshake := NewFramed[string, string](transport, stringCodec{lineDecoder})

	greeting, err := handshake.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "HELLO\n", greeting)

	parts := handshake.IntoParts()
	assert.Equal(t, "raw payload", parts.ReadBuf.String())

	data := FromParts(Parts[[]byte, []byte]{
		IO:       parts.IO,
		Codec:    BytesCodec{},
		ReadBuf:  parts.ReadBuf,
		WriteBuf: parts.WriteBuf,
	})
	assert.GreaterOrEqual(t, data.ReadBuffer().Cap(), DefaultCapacity)

	payload, err := data.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "raw payload", string(payload))
}

func TestNewFramedReadBufferDecodesLeftovers(t *testing.T) {
	r := readFunc(func([]byte) (int, error) {
		t.Fatal("leftover bytes must be decoded before reading")
		return 0, nil
	})
	framed := NewFramedReadBuffer[string](r, lineDecoder, BufferFrom([]byte("x\n")))
	s, err := framed.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "x\n", s)
}

type eofDecoderFuncs[T any] struct {
	decode    DecoderFunc[T]
	decodeEOF DecoderFunc[T]
}

func (d eofDecoderFuncs[T]) Decode(src *Buffer) (T, bool, error)    { return d.decode(src) }
func (d eofDecoderFuncs[T]) DecodeEOF(src *Buffer) (T, bool, error) { return d.decodeEOF(src) }

type stringCodec struct{ DecoderFunc[string] }

func (stringCodec) Encode(item string, dst *Buffer) error {
	_, err := dst.WriteString(item)
	return err
}

// rwBuffer is an in-memory duplex transport: writes append, reads consume.
type rwBuffer struct{ *bytes.Buffer }
