package comm

import "go.uber.org/atomic"

// MaxLineLength is the default capacity of the line accumulator.
const MaxLineLength = 32

// Frame is one complete received line without its terminator.
type Frame string

// FrameQueue is a fixed depth single-producer/single-consumer queue
// of frames. Slots are preallocated; a full queue rejects new lines
// and leaves queued frames intact.
type FrameQueue struct {
	slots   [][]byte
	lens    []int
	head    atomic.Uint64 // frames produced
	tail    atomic.Uint64 // frames consumed
	dropped atomic.Uint64
}

// NewFrameQueue creates a FrameQueue holding depth lines of up to
// lineLength bytes.
func NewFrameQueue(depth, lineLength int) *FrameQueue {
	if depth < 2 {
		panic("comm: frame queue depth must be at least 2")
	}
	q := &FrameQueue{
		slots: make([][]byte, depth),
		lens:  make([]int, depth),
	}
	for i := range q.slots {
		q.slots[i] = make([]byte, lineLength)
	}
	return q
}

// put copies line into the next free slot. Producer side only.
func (q *FrameQueue) put(line []byte) bool {
	head := q.head.Load()
	if int(head-q.tail.Load()) >= len(q.slots) {
		q.dropped.Inc()
		return false
	}
	i := int(head % uint64(len(q.slots)))
	q.lens[i] = copy(q.slots[i], line)
	q.head.Store(head + 1)
	return true
}

// Next pops the oldest frame. Consumer side only.
func (q *FrameQueue) Next() (Frame, bool) {
	tail := q.tail.Load()
	if tail == q.head.Load() {
		return "", false
	}
	i := int(tail % uint64(len(q.slots)))
	f := Frame(q.slots[i][:q.lens[i]])
	q.tail.Store(tail + 1)
	return f, true
}

// Len returns the number of queued frames.
func (q *FrameQueue) Len() int {
	return int(q.head.Load() - q.tail.Load())
}

// Depth returns the queue depth.
func (q *FrameQueue) Depth() int {
	return len(q.slots)
}

// Dropped counts lines rejected because the queue was full.
func (q *FrameQueue) Dropped() uint64 {
	return q.dropped.Load()
}
