package ringbuf

// Number is the constraint for samples kept in a Window.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Window keeps the last N samples for averaging.
// It is not safe for concurrent use.
type Window[T Number] struct {
	samples []T
	next    int
	count   int
}

// NewWindow creates a Window holding up to size samples.
func NewWindow[T Number](size int) *Window[T] {
	if size < 1 {
		panic("ringbuf: window size must be positive")
	}
	return &Window[T]{samples: make([]T, size)}
}

// Push records a sample, replacing the oldest one once the window is full.
func (w *Window[T]) Push(v T) {
	w.samples[w.next] = v
	if w.next++; w.next == len(w.samples) {
		w.next = 0
	}
	if w.count < len(w.samples) {
		w.count++
	}
}

// Len returns the number of filled entries.
func (w *Window[T]) Len() int {
	return w.count
}

// Cap returns the window size.
func (w *Window[T]) Cap() int {
	return len(w.samples)
}

// Last returns the most recent sample.
func (w *Window[T]) Last() (v T, ok bool) {
	if w.count == 0 {
		return
	}
	i := w.next - 1
	if i < 0 {
		i = len(w.samples) - 1
	}
	return w.samples[i], true
}

// Mean averages the filled entries. An empty window averages to 0.
func (w *Window[T]) Mean() float64 {
	if w.count == 0 {
		return 0
	}
	var sum float64
	for _, v := range w.samples[:w.count] {
		sum += float64(v)
	}
	return sum / float64(w.count)
}

// Reset empties the window.
func (w *Window[T]) Reset() {
	w.next, w.count = 0, 0
}
