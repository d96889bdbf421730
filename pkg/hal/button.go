package hal

import (
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/atomic"
)

// DefaultDebounce is the time edges are ignored after a press.
const DefaultDebounce = 20 * time.Millisecond

// Button debounces a push button in two phases. An accepted edge
// disables further edges and arms a one-shot timer; the timer re-enables
// edges. At most one press is latched per debounce window, however much
// the contact bounces.
type Button struct {
	Clock    clock.Clock
	Debounce time.Duration

	armed   atomic.Bool
	pending atomic.Bool
	ignored atomic.Uint64
}

// NewButton creates an armed Button timed by clk.
func NewButton(clk clock.Clock) *Button {
	b := &Button{Clock: clk, Debounce: DefaultDebounce}
	b.armed.Store(true)
	return b
}

// Edge is called from the edge source for every detected edge.
// It returns whether the edge was accepted as a press.
func (b *Button) Edge() bool {
	if !b.armed.CompareAndSwap(true, false) {
		b.ignored.Inc()
		return false
	}
	b.pending.Store(true)
	debounce := b.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	b.Clock.AfterFunc(debounce, b.rearm)
	return true
}

func (b *Button) rearm() {
	b.armed.Store(true)
}

// Armed reports whether the next edge will be accepted.
func (b *Button) Armed() bool {
	return b.armed.Load()
}

// TakePress consumes the latched press, if any.
func (b *Button) TakePress() bool {
	return b.pending.Swap(false)
}

// Ignored counts edges dropped inside debounce windows.
func (b *Button) Ignored() uint64 {
	return b.ignored.Load()
}
