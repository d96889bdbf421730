package drive

// Channel indices of a two H-bridge output stage.
const (
	LeftForward = iota
	LeftBackward
	RightForward
	RightBackward
	NumChannels
)

// Channels holds one unsigned duty per PWM output.
type Channels [NumChannels]int

// Split drives exactly one channel per motor with the duty magnitude,
// saturated to period.
func Split(cmd MotorCommand, period int) Channels {
	var ch Channels
	ch[LeftForward], ch[LeftBackward] = split(cmd.Left, period)
	ch[RightForward], ch[RightBackward] = split(cmd.Right, period)
	return ch
}

func split(duty, period int) (fwd, bwd int) {
	if duty >= 0 {
		return clamp(duty, 0, period), 0
	}
	return 0, clamp(-duty, 0, period)
}

// Merge is the inverse of Split.
func (c Channels) Merge() MotorCommand {
	return MotorCommand{
		Left:  c[LeftForward] - c[LeftBackward],
		Right: c[RightForward] - c[RightBackward],
	}
}
