package framework

import (
	"context"
	"time"
)

// Runnable is anything that runs in the background until its context
// is cancelled or it fails.
type Runnable interface {
	Run(context.Context) error
}

// Named runnables are logged by name.
type Named interface {
	Name() string
}

// RunFunc adapts a func to Runnable.
type RunFunc func(context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error { return f(ctx) }

// Message is passed between controllers within one iteration.
type Message interface {
	// NewMessage returns a zero value of the same kind.
	NewMessage() Message
}

// Controller runs once per iteration at its priority level.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc adapts a func to Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(cc ControlContext) error { return f(cc) }

// ControlContext is what a Controller sees of the current iteration.
type ControlContext interface {
	Context() context.Context
	// Time is the clock reading taken when the iteration started.
	Time() time.Time
	// Tick counts iterations from 1.
	Tick() uint64
	// Interval is the nominal period of the loop.
	Interval() time.Duration
	PriorityLevel() int
	// Messages holds what earlier levels produced in this iteration.
	Messages() MessageStore
	// PostRun schedules one-shot hooks after the current level.
	// Hooks added from a hook run in the next iteration.
	PostRun(hooks ...Controller)

	LoopControl
}

// PriorityLevels is the number of levels; 0 runs first.
const PriorityLevels = 16

// Levels used by the robot components, in execution order.
const (
	PrLvSense    = 4
	PrLvProtocol = 5
	PrLvControl  = 8
	PrLvAcuate   = 12
	PrLvPostProc = 14
	PrLvIdle     = PriorityLevels - 1
)

// LoopControl injects one-shot hooks into the loop.
type LoopControl interface {
	PreRunAt(priorityLevel int, hooks ...Controller)
	PostRunAt(priorityLevel int, hooks ...Controller)
}

// MessageAppender adds messages for the levels that follow.
type MessageAppender interface {
	AddMessages(msgs ...Message)
}

// MessageStore holds the messages of one iteration.
type MessageStore interface {
	ProcessMessages(MessageProcessor)
	MessageAppender
}

// MessageProcessor visits messages in a MessageStore.
type MessageProcessor interface {
	ProcessMessage(MessageProcessingContext)
}

// ProcessMessageFunc adapts a func to MessageProcessor.
type ProcessMessageFunc func(MessageProcessingContext)

// ProcessMessage implements MessageProcessor.
func (f ProcessMessageFunc) ProcessMessage(mc MessageProcessingContext) { f(mc) }

// MessageProcessingContext is passed per visited message.
type MessageProcessingContext interface {
	CurrentMessage() Message
	// MessageTaken removes the current message from the store.
	MessageTaken()
	// StopProcessing skips the remaining messages.
	StopProcessing()

	MessageAppender
}
