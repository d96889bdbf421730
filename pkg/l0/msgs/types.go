package msgs

import (
	fx "github.com/robotalks/diffbot/pkg/framework"
)

// Message is a single protocol line.
type Message interface {
	fx.Message
	// Line encodes the message without the line terminator.
	Line() string
}

// Command is a host to robot message.
type Command interface {
	Message
	// ReplyExpected indicates the robot answers this command.
	ReplyExpected() bool
}

// Line tags.
const (
	TagReference = "PCREF"
	TagStart     = "PCSTT"
	TagStop      = "PCSTP"
	TagRate      = "RATE"

	TagAck       = "MACK"
	TagOK        = "OK"
	TagError     = "ERR"
	TagDistance  = "MDIST"
	TagBattery   = "MBATT"
	TagAccel     = "MACC"
	TagEmergency = "MEMRG"
)

// Reference limits for speed and yaw.
const (
	ReferenceMin = -100
	ReferenceMax = 100
)

// ValidRates lists the accepted $RATE values in Hz.
var ValidRates = []int{0, 1, 2, 4, 5, 10}

// IsValidRate checks hz against ValidRates.
func IsValidRate(hz int) bool {
	for _, r := range ValidRates {
		if r == hz {
			return true
		}
	}
	return false
}

// Reasons carried by Error replies.
const (
	ReasonUnknownCommand = "Unknown command"
	ReasonBadRate        = "1"
)

// SetReference updates the drive reference.
type SetReference struct {
	Speed int8
	Yaw   int8
}

// Start requests WaitForStart -> Moving.
type Start struct{}

// Stop requests Moving -> WaitForStart.
type Stop struct{}

// SetRate sets the accelerometer report rate.
type SetRate struct {
	Hz int
}

// Unknown is any line not recognized as a command.
type Unknown struct {
	Text string
}

// Ack answers Start and Stop.
type Ack struct {
	Accepted bool
}

// OK answers a successful SetRate.
type OK struct{}

// Error is an error reply.
type Error struct {
	Reason string
}

// Distance reports the filtered obstacle distance.
type Distance struct {
	Centimeters int
}

// Battery reports the filtered battery voltage.
type Battery struct {
	Volts float64
}

// Accel reports bias corrected acceleration in mg.
type Accel struct {
	X, Y, Z int
}

// Emergency reports entering or leaving the Emergency state.
type Emergency struct {
	Active bool
}

// NewMessage implements Message.
func (m *SetReference) NewMessage() fx.Message { return &SetReference{} }

// NewMessage implements Message.
func (m *Start) NewMessage() fx.Message { return &Start{} }

// NewMessage implements Message.
func (m *Stop) NewMessage() fx.Message { return &Stop{} }

// NewMessage implements Message.
func (m *SetRate) NewMessage() fx.Message { return &SetRate{} }

// NewMessage implements Message.
func (m *Unknown) NewMessage() fx.Message { return &Unknown{} }

// NewMessage implements Message.
func (m *Ack) NewMessage() fx.Message { return &Ack{} }

// NewMessage implements Message.
func (m *OK) NewMessage() fx.Message { return &OK{} }

// NewMessage implements Message.
func (m *Error) NewMessage() fx.Message { return &Error{} }

// NewMessage implements Message.
func (m *Distance) NewMessage() fx.Message { return &Distance{} }

// NewMessage implements Message.
func (m *Battery) NewMessage() fx.Message { return &Battery{} }

// NewMessage implements Message.
func (m *Accel) NewMessage() fx.Message { return &Accel{} }

// NewMessage implements Message.
func (m *Emergency) NewMessage() fx.Message { return &Emergency{} }

// ReplyExpected implements Command.
func (m *SetReference) ReplyExpected() bool { return false }

// ReplyExpected implements Command.
func (m *Start) ReplyExpected() bool { return true }

// ReplyExpected implements Command.
func (m *Stop) ReplyExpected() bool { return true }

// ReplyExpected implements Command.
func (m *SetRate) ReplyExpected() bool { return true }

// ReplyExpected implements Command.
func (m *Unknown) ReplyExpected() bool { return true }
