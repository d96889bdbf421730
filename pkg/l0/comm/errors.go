package comm

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrFraming reports a byte received with a framing error.
	ErrFraming = errors.New("framing error")
	// ErrOverrun reports receive data lost to an overrun.
	ErrOverrun = errors.New("overrun error")
	// ErrNoReply indicates the link stopped before a reply arrived.
	ErrNoReply = errors.New("no reply")
	// ErrRejected indicates the robot refused the command with $MACK,0*.
	ErrRejected = errors.New("command rejected")
)

// IsLineError tells whether err only affects the bytes of a single read.
// Such reads are discarded and receiving continues.
func IsLineError(err error) bool {
	cause := errors.Cause(err)
	return cause == ErrFraming || cause == ErrOverrun
}

// CommandError wraps the reason from an $ERR reply.
type CommandError struct {
	Reason string
}

// Error implements error.
func (e *CommandError) Error() string {
	return fmt.Sprintf("command error: %s", e.Reason)
}
