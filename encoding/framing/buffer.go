package framing

import "io"

// Buffer is a growable byte buffer holding bytes received from, or destined
// for, a transport. Bytes are appended at the end and consumed from the front.
//
// Split hands out a prefix of the unconsumed bytes without copying. The
// returned slice is frozen: it remains valid and unchanged after any later
// operation on the Buffer, so decoded frames may safely alias buffer memory.
type Buffer struct {
	buf    []byte // buf[off:] holds the unconsumed bytes
	off    int
	frozen bool // some prefix of buf was handed out by Split
	min    int  // capacity to allocate when growing an almost empty buffer
}

// minGrowth is the smallest allocation made when a Buffer grows.
const minGrowth = 64

// NewBuffer returns an empty Buffer with at least the given capacity.
func NewBuffer(capacity int) *Buffer {
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer{buf: make([]byte, 0, capacity), min: capacity}
}

// BufferFrom returns a Buffer whose unconsumed bytes are p. The Buffer takes
// ownership of p.
func BufferFrom(p []byte) *Buffer {
	return &Buffer{buf: p, min: cap(p)}
}

// Len returns the number of unconsumed bytes.
func (b *Buffer) Len() int { return len(b.buf) - b.off }

// Cap returns the number of bytes the buffer can hold without growing.
func (b *Buffer) Cap() int { return cap(b.buf) - b.off }

// Bytes returns the unconsumed bytes. The slice aliases the buffer and is only
// valid until the next mutating call.
func (b *Buffer) Bytes() []byte { return b.buf[b.off:] }

// Reserve ensures that at least n more bytes can be appended without
// reallocating.
func (b *Buffer) Reserve(n int) {
	if n <= cap(b.buf)-len(b.buf) {
		return
	}
	length := b.Len()
	if !b.frozen && b.off > 0 && cap(b.buf)-length >= n {
		// nobody else references the consumed prefix, reuse it
		copy(b.buf, b.buf[b.off:])
		b.buf = b.buf[:length]
		b.off = 0
		return
	}
	size := 2 * length
	if size < length+n {
		size = length + n
	}
	if size < b.min {
		size = b.min
	}
	if size < minGrowth {
		size = minGrowth
	}
	grown := make([]byte, length, size)
	copy(grown, b.buf[b.off:])
	b.buf, b.off, b.frozen = grown, 0, false
}

// ensureCapacity makes Cap at least n and keeps n as the growth floor.
func (b *Buffer) ensureCapacity(n int) {
	if n > b.min {
		b.min = n
	}
	if spare := n - b.Len(); spare > 0 {
		b.Reserve(spare)
	}
}

// Write appends p to the buffer. It never fails.
func (b *Buffer) Write(p []byte) (int, error) {
	b.Reserve(len(p))
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// WriteString appends s to the buffer. It never fails.
func (b *Buffer) WriteString(s string) (int, error) {
	b.Reserve(len(s))
	b.buf = append(b.buf, s...)
	return len(s), nil
}

// WriteByte appends c to the buffer. It never fails.
func (b *Buffer) WriteByte(c byte) error {
	b.Reserve(1)
	b.buf = append(b.buf, c)
	return nil
}

// Split removes the first n unconsumed bytes from the buffer and returns them.
// It panics if n is negative or larger than Len.
func (b *Buffer) Split(n int) []byte {
	if n < 0 || n > b.Len() {
		panic("framing: Buffer.Split out of range")
	}
	p := b.buf[b.off : b.off+n : b.off+n]
	b.off += n
	if n > 0 {
		b.frozen = true
	}
	return p
}

// Advance discards the first n unconsumed bytes.
// It panics if n is negative or larger than Len.
func (b *Buffer) Advance(n int) {
	if n < 0 || n > b.Len() {
		panic("framing: Buffer.Advance out of range")
	}
	b.off += n
	if b.off == len(b.buf) && !b.frozen {
		b.buf, b.off = b.buf[:0], 0
	}
}

// Reset discards all unconsumed bytes.
func (b *Buffer) Reset() { b.Advance(b.Len()) }

// ReadOnce performs a single Read from r directly into the spare capacity of
// the buffer, growing it by at least one byte first. It returns whatever r
// returned; the n bytes read are appended even when err is non-nil.
func (b *Buffer) ReadOnce(r io.Reader) (int, error) {
	b.Reserve(1)
	n, err := r.Read(b.buf[len(b.buf):cap(b.buf)])
	if n < 0 || n > cap(b.buf)-len(b.buf) {
		return 0, errInvalidRead
	}
	b.buf = b.buf[:len(b.buf)+n]
	return n, err
}

// WriteOnce performs a single Write of the unconsumed bytes to w and discards
// the bytes w accepted.
func (b *Buffer) WriteOnce(w io.Writer) (int, error) {
	n, err := w.Write(b.Bytes())
	if n < 0 || n > b.Len() {
		return 0, errInvalidWrite
	}
	b.Advance(n)
	return n, err
}

func (b *Buffer) String() string { return string(b.Bytes()) }
