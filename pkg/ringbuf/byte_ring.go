package ringbuf

import "go.uber.org/atomic"

// ByteRing is a fixed capacity single-producer/single-consumer byte queue.
// The producer only advances head and the consumer only advances tail, so
// no lock is needed as long as each side stays on its own goroutine.
// One slot is always left free: a ring of size N holds at most N-1 bytes.
type ByteRing struct {
	buf  []byte
	head atomic.Uint32
	tail atomic.Uint32
}

// NewByteRing creates a ByteRing with size slots.
func NewByteRing(size int) *ByteRing {
	if size < 2 {
		panic("ringbuf: size must be at least 2")
	}
	return &ByteRing{buf: make([]byte, size)}
}

func (r *ByteRing) advance(i uint32) uint32 {
	if i++; int(i) == len(r.buf) {
		return 0
	}
	return i
}

// TryPush appends b. It returns false and leaves the ring untouched when full.
func (r *ByteRing) TryPush(b byte) bool {
	head := r.head.Load()
	next := r.advance(head)
	if next == r.tail.Load() {
		return false
	}
	r.buf[head] = b
	r.head.Store(next)
	return true
}

// TryPop removes the oldest byte.
func (r *ByteRing) TryPop() (byte, bool) {
	tail := r.tail.Load()
	if tail == r.head.Load() {
		return 0, false
	}
	b := r.buf[tail]
	r.tail.Store(r.advance(tail))
	return b, true
}

// Push appends as many bytes of p as fit and returns the count,
// the rest of p is dropped.
func (r *ByteRing) Push(p []byte) int {
	for n, b := range p {
		if !r.TryPush(b) {
			return n
		}
	}
	return len(p)
}

// Len returns the number of queued bytes.
func (r *ByteRing) Len() int {
	head, tail := int(r.head.Load()), int(r.tail.Load())
	if head >= tail {
		return head - tail
	}
	return len(r.buf) - tail + head
}

// Cap returns the usable capacity.
func (r *ByteRing) Cap() int {
	return len(r.buf) - 1
}

// Empty reports head == tail.
func (r *ByteRing) Empty() bool {
	return r.head.Load() == r.tail.Load()
}

// Full reports head+1 == tail (mod size).
func (r *ByteRing) Full() bool {
	return r.advance(r.head.Load()) == r.tail.Load()
}
