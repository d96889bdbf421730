package comm

import (
	"context"
	"io"

	"github.com/golang/glog"
	"go.uber.org/atomic"

	"github.com/robotalks/diffbot/pkg/ringbuf"
)

// UARTConfig sizes the buffers of a UART.
type UARTConfig struct {
	LineLength   int
	FrameDepth   int
	TxBufferSize int
}

// DefaultUARTConfig matches the 9600 baud robot link.
var DefaultUARTConfig = UARTConfig{
	LineLength:   MaxLineLength,
	FrameDepth:   4,
	TxBufferSize: 128,
}

// UARTStats are the counters of a UART.
type UARTStats struct {
	RxBytes       uint64
	RxErrors      uint64
	RxTruncated   uint64
	FramesDropped uint64
	TxBytes       uint64
	TxDropped     uint64
}

// UART moves lines over a byte stream.
//
// The receive goroutine reads Port and feeds the Framer. The transmit
// goroutine sleeps until kicked and then drains the transmit ring into
// Port. Send and NextFrame belong to the single foreground consumer.
type UART struct {
	Port io.ReadWriter

	frames *FrameQueue
	framer *Framer

	tx       *ringbuf.ByteRing
	txActive atomic.Bool
	kickCh   chan struct{}
	frameCh  chan struct{}

	rxBytes     atomic.Uint64
	rxErrors    atomic.Uint64
	rxTruncated atomic.Uint64
	txBytes     atomic.Uint64
	txDropped   atomic.Uint64
}

// NewUART creates a UART with DefaultUARTConfig.
func NewUART(port io.ReadWriter) *UART {
	return NewUARTWith(port, DefaultUARTConfig)
}

// NewUARTWith creates a UART with specified buffer sizes.
func NewUARTWith(port io.ReadWriter, conf UARTConfig) *UART {
	frames := NewFrameQueue(conf.FrameDepth, conf.LineLength)
	return &UART{
		Port:    port,
		frames:  frames,
		framer:  NewFramer(frames, conf.LineLength),
		tx:      ringbuf.NewByteRing(conf.TxBufferSize),
		kickCh:  make(chan struct{}, 1),
		frameCh: make(chan struct{}, 1),
	}
}

// Frames exposes the receive frame queue.
func (u *UART) Frames() *FrameQueue {
	return u.frames
}

// NextFrame pops the oldest received line.
func (u *UART) NextFrame() (Frame, bool) {
	return u.frames.Next()
}

// FrameReady is signaled after a line is queued. Consumers that poll
// NextFrame on their own cadence can ignore it.
func (u *UART) FrameReady() <-chan struct{} {
	return u.frameCh
}

// Send queues line with a CRLF terminator without blocking. A line that
// does not fit in the transmit ring is dropped whole and false is
// returned, so what reaches Port is always a sequence of complete lines.
// Only one goroutine may call Send.
func (u *UART) Send(line string) bool {
	defer u.kick()
	size := len(line) + len(lineEnd)
	// the drainer only frees space, so the check holds until the push.
	if u.tx.Cap()-u.tx.Len() < size {
		u.txDropped.Add(uint64(size))
		return false
	}
	u.tx.Push([]byte(line))
	u.tx.Push(lineEnd)
	return true
}

var lineEnd = []byte("\r\n")

// kick re-arms the transmitter if it went idle. txActive is only set
// here and by the drainer re-arming itself, so a push landing while the
// drainer is about to go idle is picked up by one side or the other.
func (u *UART) kick() {
	if u.txActive.CompareAndSwap(false, true) {
		select {
		case u.kickCh <- struct{}{}:
		default:
		}
	}
}

// Receive delivers bytes as if read from Port.
// It must not be used while Run is active.
func (u *UART) Receive(p []byte) {
	for _, b := range p {
		u.receiveByte(b)
	}
}

// Flush synchronously drains the transmit ring into Port.
// It must not be used while Run is active.
func (u *UART) Flush() error {
	buf := make([]byte, u.tx.Cap())
	for {
		n := u.drain(buf)
		if n == 0 {
			return nil
		}
		if err := u.write(buf[:n]); err != nil {
			return err
		}
	}
}

// Stats returns a snapshot of the counters.
func (u *UART) Stats() UARTStats {
	return UARTStats{
		RxBytes:       u.rxBytes.Load(),
		RxErrors:      u.rxErrors.Load(),
		RxTruncated:   u.rxTruncated.Load(),
		FramesDropped: u.frames.Dropped(),
		TxBytes:       u.txBytes.Load(),
		TxDropped:     u.txDropped.Load(),
	}
}

// Run implements Runnable. When ctx is cancelled Run returns and, if
// Port is an io.Closer, closes it to unblock the pending Read.
func (u *UART) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 2)
	go u.receive(ctx, errCh)
	go func() {
		errCh <- u.transmit(ctx)
	}()
	select {
	case err := <-errCh:
		if err == io.EOF {
			return nil
		}
		return err
	case <-ctx.Done():
		if closer, ok := u.Port.(io.Closer); ok {
			closer.Close()
		}
		return ctx.Err()
	}
}

func (u *UART) receive(ctx context.Context, errCh chan<- error) {
	buf := make([]byte, 64)
	for {
		n, err := u.Port.Read(buf)
		if err != nil && IsLineError(err) {
			u.rxErrors.Inc()
			glog.V(2).Infof("RX discard %d bytes: %v", n, err)
			continue
		}
		u.Receive(buf[:n])
		if err != nil {
			errCh <- err
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (u *UART) receiveByte(b byte) {
	u.rxBytes.Inc()
	switch u.framer.Feed(b) {
	case Truncated:
		u.rxTruncated.Inc()
	case Framed:
		select {
		case u.frameCh <- struct{}{}:
		default:
		}
	case FrameDropped:
		glog.Warning("RX frame queue full, line dropped")
	}
}

func (u *UART) drain(buf []byte) (n int) {
	for n < len(buf) {
		b, ok := u.tx.TryPop()
		if !ok {
			break
		}
		buf[n] = b
		n++
	}
	return
}

func (u *UART) write(p []byte) error {
	if _, err := u.Port.Write(p); err != nil {
		return err
	}
	u.txBytes.Add(uint64(len(p)))
	return nil
}

func (u *UART) transmit(ctx context.Context) error {
	buf := make([]byte, u.tx.Cap())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-u.kickCh:
		}
		for {
			if n := u.drain(buf); n > 0 {
				if err := u.write(buf[:n]); err != nil {
					u.txActive.Store(false)
					return err
				}
				continue
			}
			u.txActive.Store(false)
			// re-arm ourselves if a push slipped in after the last pop.
			if u.tx.Empty() || !u.txActive.CompareAndSwap(false, true) {
				break
			}
		}
	}
}
