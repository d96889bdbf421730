package framework

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"
	"go.uber.org/atomic"
)

// DefaultInterval is the default tick of a Loop.
const DefaultInterval = 2 * time.Millisecond

// Loop runs sensors, controllers and actuators on a fixed tick.
// All controllers run on the goroutine calling Run (or Step), in
// priority order, so they never observe each other mid-update.
type Loop struct {
	Interval time.Duration
	Clock    clock.Clock

	levels  [PriorityLevels]level
	runners []Runnable

	ticks    atomic.Uint64
	overruns atomic.Uint64
}

// LoopAdder is implemented by components that install their own
// controllers and runnables.
type LoopAdder interface {
	AddToLoop(*Loop)
}

// level holds the controllers of one priority. Hooks may be added from
// other goroutines, controllers only before Run.
type level struct {
	lock        sync.Mutex
	pre, post   []Controller
	controllers []Controller
}

func (lv *level) hook(pre bool, hooks []Controller) {
	lv.lock.Lock()
	defer lv.lock.Unlock()
	if pre {
		lv.pre = append(lv.pre, hooks...)
	} else {
		lv.post = append(lv.post, hooks...)
	}
}

func (lv *level) takeHooks(pre bool) (hooks []Controller) {
	lv.lock.Lock()
	defer lv.lock.Unlock()
	if pre {
		hooks, lv.pre = lv.pre, nil
	} else {
		hooks, lv.post = lv.post, nil
	}
	return
}

func (lv *level) run(it *iteration) {
	control(it, lv.takeHooks(true))
	control(it, lv.controllers)
	control(it, lv.takeHooks(false))
}

func control(it *iteration, ctls []Controller) {
	for _, ctl := range ctls {
		if err := ctl.Control(it); err != nil {
			glog.Errorf("tick %d level %d: %v", it.tick, it.level, err)
		}
	}
}

type ctxKey struct{}

// CtlCtxFrom gets the ControlContext a Controller was called with from
// its Context.
func CtlCtxFrom(ctx context.Context) ControlContext {
	return ctx.Value(ctxKey{}).(ControlContext)
}

// NewLoop creates a Loop ticking every DefaultInterval on the wall clock.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultInterval, Clock: clock.New()}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers at a priority level. Controllers
// that are also Runnable are started with the loop.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	lv := &l.levels[priorityLevel]
	lv.controllers = append(lv.controllers, ctls...)
	for _, ctl := range ctls {
		if r, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, r)
		}
	}
	return l
}

// AddRunnable adds Runnables started along with the loop.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Runnables returns the background Runnables collected so far.
func (l *Loop) Runnables() []Runnable {
	return l.runners
}

func (l *Loop) interval() time.Duration {
	if l.Interval <= 0 {
		return DefaultInterval
	}
	return l.Interval
}

func (l *Loop) clk() clock.Clock {
	if l.Clock == nil {
		l.Clock = clock.New()
	}
	return l.Clock
}

// Run implements Runnable. Background runnables are started first and
// then an iteration runs on every tick until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	runner := NewRunnerWith(ctx).Go(l.runners...)
	defer runner.Wait()

	interval := l.interval()
	ticker := l.clk().Ticker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := l.Clock.Now()
			l.Step(ctx)
			if elapsed := l.Clock.Since(start); elapsed > interval {
				l.overruns.Inc()
				glog.V(1).Infof("tick %d overran: %v", l.ticks.Load(), elapsed)
			}
		}
	}
}

// Step runs exactly one iteration on the calling goroutine.
func (l *Loop) Step(ctx context.Context) {
	it := &iteration{loop: l, time: l.clk().Now(), tick: l.ticks.Inc()}
	it.ctx = context.WithValue(ctx, ctxKey{}, it)
	for n := range l.levels {
		it.level = n
		l.levels[n].run(it)
	}
}

// Ticks returns the number of iterations run.
func (l *Loop) Ticks() uint64 {
	return l.ticks.Load()
}

// Overruns counts iterations that took longer than the interval.
func (l *Loop) Overruns() uint64 {
	return l.overruns.Load()
}

// PreRunAt implements LoopControl.
func (l *Loop) PreRunAt(priorityLevel int, hooks ...Controller) {
	l.levels[priorityLevel].hook(true, hooks)
}

// PostRunAt implements LoopControl.
func (l *Loop) PostRunAt(priorityLevel int, hooks ...Controller) {
	l.levels[priorityLevel].hook(false, hooks)
}

// iteration is the ControlContext and MessageStore of one Step.
type iteration struct {
	loop     *Loop
	ctx      context.Context
	time     time.Time
	tick     uint64
	level    int
	messages []Message
}

func (it *iteration) Context() context.Context { return it.ctx }
func (it *iteration) Time() time.Time          { return it.time }
func (it *iteration) Tick() uint64             { return it.tick }
func (it *iteration) Interval() time.Duration  { return it.loop.interval() }
func (it *iteration) PriorityLevel() int       { return it.level }
func (it *iteration) Messages() MessageStore   { return it }

func (it *iteration) PostRun(hooks ...Controller) {
	it.loop.PostRunAt(it.level, hooks...)
}

func (it *iteration) PreRunAt(priorityLevel int, hooks ...Controller) {
	it.loop.PreRunAt(priorityLevel, hooks...)
}

func (it *iteration) PostRunAt(priorityLevel int, hooks ...Controller) {
	it.loop.PostRunAt(priorityLevel, hooks...)
}

func (it *iteration) AddMessages(msgs ...Message) {
	it.messages = append(it.messages, msgs...)
}

// ProcessMessages visits the pending messages in order. Messages added
// while processing are kept after the ones not taken.
func (it *iteration) ProcessMessages(proc MessageProcessor) {
	pending := it.messages
	it.messages = nil
	kept := make([]Message, 0, len(pending))
	for n, msg := range pending {
		mc := &messageContext{it: it, msg: msg}
		proc.ProcessMessage(mc)
		if !mc.taken {
			kept = append(kept, msg)
		}
		if mc.stop {
			kept = append(kept, pending[n+1:]...)
			break
		}
	}
	it.messages = append(kept, it.messages...)
}

type messageContext struct {
	it    *iteration
	msg   Message
	taken bool
	stop  bool
}

func (c *messageContext) CurrentMessage() Message     { return c.msg }
func (c *messageContext) MessageTaken()               { c.taken = true }
func (c *messageContext) StopProcessing()             { c.stop = true }
func (c *messageContext) AddMessages(msgs ...Message) { c.it.AddMessages(msgs...) }
