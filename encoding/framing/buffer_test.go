package framing

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferSplitIsStable(t *testing.T) {
	b := NewBuffer(8)
	b.WriteString("abcdef")
	head := b.Split(3)
	assert.Equal(t, "abc", string(head))
	assert.Equal(t, 3, cap(head), "split prefix must have clipped capacity")

	// fill past the initial capacity and beyond, the prefix must not move
	b.WriteString("ghijklmnopqrstuvwxyz")
	b.Advance(b.Len())
	b.WriteString("0123456789")
	assert.Equal(t, "abc", string(head))
	assert.Equal(t, "0123456789", b.String())
}

func TestBufferReclaimsConsumedPrefix(t *testing.T) {
	b := NewBuffer(8)
	b.WriteString("abcdefgh")
	b.Advance(6)
	b.Reserve(4)
	assert.Equal(t, 8, b.Cap())
	assert.Equal(t, "gh", b.String())
}

func TestBufferDoesNotReclaimFrozenPrefix(t *testing.T) {
	b := NewBuffer(8)
	b.WriteString("abcdefgh")
	head := b.Split(6)
	b.Reserve(4)
	b.WriteString("ijkl")
	assert.Equal(t, "abcdef", string(head))
	assert.Equal(t, "ghijkl", b.String())
}

func TestBufferReadOnceUsesSpareCapacity(t *testing.T) {
	b := NewBuffer(4)
	n, err := b.ReadOnce(bytes.NewReader([]byte("hello world")))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "hell", b.String())

	n, err = b.ReadOnce(bytes.NewReader(nil))
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, "hell", b.String())
}

func TestBufferWriteOnceAdvancesByAccepted(t *testing.T) {
	b := BufferFrom([]byte("hello world"))
	w := &limitedWriter{limit: 5}
	n, err := b.WriteOnce(w)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, " world", b.String())
	assert.Equal(t, "hello", w.String())
}

func TestBufferOutOfRange(t *testing.T) {
	b := BufferFrom([]byte("ab"))
	assert.Panics(t, func() { b.Split(3) })
	assert.Panics(t, func() { b.Advance(-1) })
	b.Reset()
	assert.Equal(t, 0, b.Len())
}
