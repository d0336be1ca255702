package json

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesos/framed-go/encoding/framing"
	"github.com/mesos/framed-go/encoding/limit"
)

type testStruct struct {
	Name string `json:"name"`
	Data uint16 `json:"data"`
}

func TestEncodeDecode(t *testing.T) {
	codec := New[testStruct, testStruct]()
	buf := framing.NewBuffer(0)

	item := testStruct{Name: "Test name", Data: 16}
	require.NoError(t, codec.Encode(item, buf))

	decoded, ok, err := codec.Decode(buf)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, item, decoded)

	_, ok, err = codec.Decode(buf)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, buf.Len())
}

func TestPartialDecode(t *testing.T) {
	codec := New[testStruct, testStruct]()
	buf := framing.NewBuffer(0)
	require.NoError(t, codec.Encode(testStruct{Name: "Test name", Data: 34}, buf))
	encoded := append([]byte(nil), buf.Bytes()...)

	for n := 0; n < len(encoded); n++ {
		start := framing.BufferFrom(append([]byte(nil), encoded[:n]...))
		_, ok, err := codec.Decode(start)
		require.NoError(t, err, "prefix of %d bytes", n)
		assert.False(t, ok, "prefix of %d bytes", n)
		assert.Equal(t, n, start.Len())
	}

	_, ok, err := codec.Decode(buf)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, buf.Len())
}

func TestSyntaxErrorIsReported(t *testing.T) {
	_, _, err := New[testStruct, testStruct]().Decode(framing.BufferFrom([]byte(`{"name": ]`)))
	assert.Error(t, err)
}

func TestStreamOfValues(t *testing.T) {
	transport := &rwBuffer{bytes.NewBufferString(`{"name":"a","data":1}` + "\n" + `{"name":"b","data":2}{"name":"c","data":3}`)}
	framed := framing.NewFramed[testStruct, testStruct](transport, New[testStruct, testStruct]())

	var got []testStruct
	for {
		item, err := framed.ReadFrame()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, item)
	}
	assert.Equal(t, []testStruct{{"a", 1}, {"b", 2}, {"c", 3}}, got)

	require.NoError(t, framed.WriteFrame(testStruct{"d", 4}))
	assert.JSONEq(t, `{"name":"d","data":4}`, transport.String())
}

func TestLimitWithoutResynchronizationIsDefunct(t *testing.T) {
	codec := limit.New[testStruct, testStruct](New[testStruct, testStruct](), 8)
	src := framing.BufferFrom([]byte(`{"name": "much too long`))

	_, _, err := codec.Decode(src)
	require.True(t, errors.Is(err, limit.ErrLimitExceeded))
	_, _, err = codec.Decode(src)
	assert.Equal(t, limit.ErrDefunct, err)
}

type rwBuffer struct{ *bytes.Buffer }
