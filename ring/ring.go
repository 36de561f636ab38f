// Package ring implements the fixed-capacity byte ring that backs the
// driver's buffered receive mode. The write side is owned by the DMA engine:
// bytes land in the backing store without software involvement, and the
// driver's progress interrupt republishes the write cursor from the DMA
// remaining-transfer count. The read side is owned by the consuming thread.
package ring

import "sync/atomic"

// Buffer is a byte ring with wraparound read/write cursors. head is the read
// cursor, tail the write cursor; each side is advanced by exactly one party.
type Buffer struct {
	buf  []byte
	head atomic.Uint32 // read cursor, owned by the consumer
	tail atomic.Uint32 // write cursor, published by the interrupt handler
}

// New returns a zeroed ring with the given capacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		return &Buffer{}
	}
	return &Buffer{buf: make([]byte, capacity)}
}

// Capacity returns the size of the backing store.
func (b *Buffer) Capacity() int { return len(b.buf) }

// Bytes exposes the backing store so a circular DMA transfer can be armed
// directly onto it.
func (b *Buffer) Bytes() []byte { return b.buf }

// Used returns the number of unread bytes.
func (b *Buffer) Used() int {
	if len(b.buf) == 0 {
		return 0
	}
	n := len(b.buf)
	return (int(b.tail.Load()) - int(b.head.Load()) + n) % n
}

// SetWriteIndex publishes the DMA engine's write position. Called from the
// receive progress interrupt with capacity minus the remaining-transfer
// count.
func (b *Buffer) SetWriteIndex(i int) {
	if len(b.buf) == 0 {
		return
	}
	b.tail.Store(uint32(i % len(b.buf)))
}

// Peek returns the contiguous readable span starting at the read cursor. A
// run that wraps past the physical end of the store needs two Peek/Consume
// rounds.
func (b *Buffer) Peek() []byte {
	used := b.Used()
	if used == 0 {
		return nil
	}
	head := int(b.head.Load())
	if head+used > len(b.buf) {
		return b.buf[head:]
	}
	return b.buf[head : head+used]
}

// Consume advances the read cursor by n bytes. n must not exceed Used.
func (b *Buffer) Consume(n int) {
	if len(b.buf) == 0 || n <= 0 {
		return
	}
	b.head.Store(uint32((int(b.head.Load()) + n) % len(b.buf)))
}

// Reset discards all unread data.
func (b *Buffer) Reset() {
	b.head.Store(0)
	b.tail.Store(0)
}
