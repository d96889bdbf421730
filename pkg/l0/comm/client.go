package comm

import (
	"context"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/diffbot/pkg/l0/msgs"
)

// Result is the outcome of a command sent with Do.
type Result struct {
	Err   error
	Reply msgs.Message
}

// Client provides host side operations over a UART.
// Replies carry no sequence number, so they are matched with pending
// commands in the order the commands were sent.
type Client struct {
	uart     *UART
	eventCh  chan msgs.Message
	cmdsHead *Command
	cmdsTail *Command
	cmdsLock sync.Mutex
}

// Command represents a sent command.
type Command struct {
	msg      msgs.Command
	resultCh chan Result
	next     *Command
}

// Msg returns the command message.
func (c *Command) Msg() msgs.Command {
	return c.msg
}

// ResultChan returns the chan to retrieve result.
func (c *Command) ResultChan() <-chan Result {
	return c.resultCh
}

// NewClient creates a client wrapping the UART.
func NewClient(uart *UART) *Client {
	return &Client{
		uart:    uart,
		eventCh: make(chan msgs.Message, 16),
	}
}

// UART gets the wrapped UART.
func (c *Client) UART() *UART {
	return c.uart
}

// EventChan delivers telemetry. Events are dropped when nobody reads.
func (c *Client) EventChan() <-chan msgs.Message {
	return c.eventCh
}

// DoWith sends a command and reports the result into ch.
// Commands without a reply complete as soon as they are queued.
func (c *Client) DoWith(msg msgs.Command, ch chan Result) *Command {
	cmd := &Command{msg: msg, resultCh: ch}

	c.cmdsLock.Lock()
	defer c.cmdsLock.Unlock()
	if !c.uart.Send(msg.Line()) {
		cmd.resultCh <- Result{Err: ErrNoReply}
		return cmd
	}
	if !msg.ReplyExpected() {
		cmd.resultCh <- Result{}
		return cmd
	}
	if c.cmdsHead == nil {
		c.cmdsHead = cmd
	} else {
		c.cmdsTail.next = cmd
	}
	c.cmdsTail = cmd
	return cmd
}

// Do sends a command and returns a Command for result.
func (c *Client) Do(msg msgs.Command) *Command {
	return c.DoWith(msg, make(chan Result, 1))
}

// Cancel removes cmd from the pending commands when its caller stops
// waiting, so the next reply goes to the command after it. It returns
// false if cmd was no longer pending.
func (c *Client) Cancel(cmd *Command) bool {
	c.cmdsLock.Lock()
	defer c.cmdsLock.Unlock()
	var prev *Command
	for cur := c.cmdsHead; cur != nil; prev, cur = cur, cur.next {
		if cur != cmd {
			continue
		}
		if prev == nil {
			c.cmdsHead = cur.next
		} else {
			prev.next = cur.next
		}
		if c.cmdsTail == cur {
			c.cmdsTail = prev
		}
		cur.next = nil
		return true
	}
	return false
}

// HandleLine processes one line received from the robot.
func (c *Client) HandleLine(line string) {
	msg, err := msgs.ParseMessage(line)
	if err != nil {
		glog.V(2).Infof("RX ignored: %v", err)
		return
	}
	if !msgs.IsReply(msg) {
		select {
		case c.eventCh <- msg:
		default:
			glog.V(2).Infof("event dropped: %s", line)
		}
		return
	}
	c.cmdsLock.Lock()
	cmd := c.cmdsHead
	if cmd != nil {
		if c.cmdsHead = cmd.next; c.cmdsHead == nil {
			c.cmdsTail = nil
		}
		cmd.next = nil
	}
	c.cmdsLock.Unlock()
	if cmd == nil {
		glog.V(2).Infof("unsolicited reply: %s", line)
		return
	}
	switch r := msg.(type) {
	case *msgs.Ack:
		if !r.Accepted {
			cmd.resultCh <- Result{Err: ErrRejected, Reply: r}
			return
		}
	case *msgs.Error:
		cmd.resultCh <- Result{Err: &CommandError{Reason: r.Reason}, Reply: r}
		return
	}
	cmd.resultCh <- Result{Reply: msg}
}

// Run runs the UART and dispatches received lines.
// Pending commands fail with ErrNoReply when it returns.
func (c *Client) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.failPending()
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.uart.Run(ctx)
	}()
	for {
		select {
		case err := <-errCh:
			c.dispatch()
			return err
		case <-c.uart.FrameReady():
			c.dispatch()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) dispatch() {
	for {
		f, ok := c.uart.NextFrame()
		if !ok {
			return
		}
		c.HandleLine(string(f))
	}
}

func (c *Client) failPending() {
	c.cmdsLock.Lock()
	head := c.cmdsHead
	c.cmdsHead, c.cmdsTail = nil, nil
	c.cmdsLock.Unlock()
	for ; head != nil; head = head.next {
		head.resultCh <- Result{Err: ErrNoReply}
	}
}
