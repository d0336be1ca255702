package framing

import (
	"bufio"
	"bytes"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesos/framed-go/metrics"
)

func TestWriteFrames(t *testing.T) {
	transport := &rwBuffer{Buffer: new(bytes.Buffer)}
	framed := NewFramed[string, string](transport, stringCodec{lineDecoder})
	require.NoError(t, framed.WriteFrame("Hello\n"))
	require.NoError(t, framed.WriteFrame("World\n"))
	assert.Equal(t, "Hello\nWorld\n", transport.String())
	assert.Equal(t, 0, framed.WriteBuffer().Len())
}

func TestWriteToFullTransport(t *testing.T) {
	w := &limitedWriter{limit: 16}
	framed := NewFramedWrite[string](w, stringCodec{lineDecoder})

	err := framed.WriteFrame("This will fill up the buffer\n")
	assert.Equal(t, ErrWriteZero, err)
	assert.Equal(t, "This will fill u", w.String())
	assert.Equal(t, "p the buffer\n", framed.WriteBuffer().String())
}

func TestWriteBackpressure(t *testing.T) {
	w := &nullWriter{}
	framed := NewFramedWrite[[]byte](w, BytesCodec{})

	zero := []byte{0}
	for i := 0; i < DefaultBackpressureBoundary; i++ {
		require.NoError(t, framed.Feed(zero))
	}
	assert.Equal(t, 0, w.writes, "nothing is written below the boundary")
	assert.Equal(t, DefaultBackpressureBoundary, framed.WriteBuffer().Len())

	// the boundary is reached, the next item has to wait for a drain
	require.NoError(t, framed.Feed(zero))
	assert.Equal(t, 1, w.writes)
	assert.Equal(t, DefaultBackpressureBoundary, w.lastWrite)
	assert.Equal(t, 1, framed.WriteBuffer().Len())

	require.NoError(t, framed.Flush())
	assert.Equal(t, 2, w.writes)
	assert.Equal(t, 1, w.lastWrite)
	assert.Equal(t, 2, w.flushes)
}

func TestWriteBackpressureBoundaryOption(t *testing.T) {
	w := &nullWriter{}
	framed := NewFramedWrite[[]byte](w, BytesCodec{}, BackpressureBoundary(4), WriteCapacity(4))
	for i := 0; i < 3; i++ {
		require.NoError(t, framed.Feed([]byte("ab")))
	}
	// "ab" then "abab" reached 4 before the third item
	assert.Equal(t, 1, w.writes)
	assert.Equal(t, 4, w.lastWrite)
}

func TestWriteDrainsPartialWrites(t *testing.T) {
	var out bytes.Buffer
	w := writeFunc(func(p []byte) (int, error) {
		if len(p) > 3 {
			p = p[:3]
		}
		return out.Write(p)
	})
	framed := NewFramedWrite[[]byte](w, BytesCodec{})
	require.NoError(t, framed.WriteFrame([]byte("partial writes")))
	assert.Equal(t, "partial writes", out.String())
}

func TestWriteFlushesBufferedTransport(t *testing.T) {
	var out bytes.Buffer
	bw := bufio.NewWriter(&out)
	framed := NewFramedWrite[[]byte](bw, BytesCodec{})
	require.NoError(t, framed.Feed([]byte("abc")))
	assert.Equal(t, 0, out.Len())
	require.NoError(t, framed.Flush())
	assert.Equal(t, "abc", out.String())
}

func TestWriteTransportError(t *testing.T) {
	w := writeFunc(func([]byte) (int, error) { return 0, errBrokenPipe })
	framed := NewFramedWrite[[]byte](w, BytesCodec{})
	err := framed.WriteFrame([]byte("x"))
	assert.True(t, errors.Is(err, errBrokenPipe))
}

func TestWriteEncodeErrorLeavesBufferUntouched(t *testing.T) {
	boom := errors.New("boom")
	enc := EncoderFunc[int](func(int, *Buffer) error { return boom })
	before := testutil.ToFloat64(metrics.ErrorCount.WithLabelValues(metrics.ErrorEncode))
	framed := NewFramedWrite[int](&nullWriter{}, enc)

	err := framed.Feed(1)
	var codecErr *CodecError
	require.True(t, errors.As(err, &codecErr))
	assert.Equal(t, boom, codecErr.Err)
	assert.Equal(t, 0, framed.WriteBuffer().Len())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ErrorCount.WithLabelValues(metrics.ErrorEncode)))
}

func TestWriteClose(t *testing.T) {
	w := &nullWriter{}
	framed := NewFramedWrite[[]byte](w, BytesCodec{})
	require.NoError(t, framed.Feed([]byte("bye")))
	require.NoError(t, framed.Close())
	assert.True(t, w.closed)
	assert.Equal(t, 1, w.writes)
	assert.Equal(t, 3, w.lastWrite)
}

type writeFunc func(p []byte) (int, error)

func (f writeFunc) Write(p []byte) (int, error) { return f(p) }
