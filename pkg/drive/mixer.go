// Package drive maps the speed/yaw reference onto differential motor duties.
package drive

// DefaultPeriod is the PWM period in timer counts (10kHz at 72MHz).
const DefaultPeriod = 7200

// ReferenceScale is the magnitude of a full speed or yaw reference.
const ReferenceScale = 100

// MotorCommand is a signed duty pair. The sign encodes direction.
type MotorCommand struct {
	Left  int
	Right int
}

// Stopped is the command holding both motors still.
var Stopped = MotorCommand{}

// Motors accepts duty pairs.
type Motors interface {
	SetMotorDuty(left, right int)
}

// Apply sends the command to motors.
func (c MotorCommand) Apply(m Motors) {
	m.SetMotorDuty(c.Left, c.Right)
}

// Mixer converts (speed, yaw) in [-100, 100] into duties in
// [-Period, Period]. Positive yaw speeds up the right wheel.
type Mixer struct {
	Period int
}

// NewMixer creates a Mixer with DefaultPeriod.
func NewMixer() *Mixer {
	return &Mixer{Period: DefaultPeriod}
}

// Mix computes the saturated duty pair.
func (m *Mixer) Mix(speed, yaw int8) MotorCommand {
	sp := int(speed) * m.Period / ReferenceScale
	yp := int(yaw) * m.Period / ReferenceScale
	return MotorCommand{
		Left:  clamp(sp-yp, -m.Period, m.Period),
		Right: clamp(sp+yp, -m.Period, m.Period),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
