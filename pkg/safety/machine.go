// Package safety implements the robot state machine.
package safety

import (
	"github.com/golang/glog"
	"go.uber.org/atomic"

	"github.com/robotalks/diffbot/pkg/drive"
)

// State is the robot state.
type State int32

// States.
const (
	WaitForStart State = iota
	Moving
	Emergency
)

func (s State) String() string {
	switch s {
	case WaitForStart:
		return "WaitForStart"
	case Moving:
		return "Moving"
	case Emergency:
		return "Emergency"
	}
	return "Invalid"
}

// DefaultThreshold is the obstacle distance in meters that triggers
// Emergency.
const DefaultThreshold = 0.2

// Observation is what a distance sample means for the emergency logic.
type Observation int

// Observations.
const (
	// Unaffected means the sample changes nothing.
	Unaffected Observation = iota
	// Entered means the sample moved the robot into Emergency.
	Entered
	// Obstructed means Emergency persists and the hold interval restarts.
	Obstructed
	// Clear means Emergency persists but the way is clear.
	Clear
)

// Machine holds the robot state. Transitions are only made by the
// control loop; State may be read from anywhere.
type Machine struct {
	Threshold float64

	motors drive.Motors
	state  atomic.Int32
}

// New creates a Machine in WaitForStart with motors stopped.
func New(motors drive.Motors) *Machine {
	m := &Machine{Threshold: DefaultThreshold, motors: motors}
	drive.Stopped.Apply(motors)
	return m
}

// State returns the current state.
func (m *Machine) State() State {
	return State(m.state.Load())
}

func (m *Machine) transit(from, to State) bool {
	if !m.state.CompareAndSwap(int32(from), int32(to)) {
		return false
	}
	if to != Moving {
		drive.Stopped.Apply(m.motors)
	}
	if from != to {
		glog.Infof("state %s -> %s", from, to)
	}
	return true
}

// moveTo changes to target from any state but Emergency.
func (m *Machine) moveTo(target State) bool {
	for {
		s := m.State()
		if s == Emergency {
			return false
		}
		if m.transit(s, target) {
			return true
		}
	}
}

// Start handles the host start command. It is refused in Emergency.
func (m *Machine) Start() bool {
	return m.moveTo(Moving)
}

// Stop handles the host stop command. It is refused in Emergency.
func (m *Machine) Stop() bool {
	return m.moveTo(WaitForStart)
}

// Button toggles between WaitForStart and Moving on a debounced press.
// Presses are ignored in Emergency.
func (m *Machine) Button() bool {
	switch s := m.State(); s {
	case WaitForStart:
		return m.transit(s, Moving)
	case Moving:
		return m.transit(s, WaitForStart)
	}
	return false
}

// ObserveDistance evaluates a fresh distance sample in meters.
func (m *Machine) ObserveDistance(d float64) Observation {
	near := d < m.Threshold
	switch m.State() {
	case Moving:
		if near && m.transit(Moving, Emergency) {
			return Entered
		}
	case Emergency:
		if near {
			return Obstructed
		}
		return Clear
	}
	return Unaffected
}

// ClearEmergency leaves Emergency once the hold interval has passed.
func (m *Machine) ClearEmergency() bool {
	return m.transit(Emergency, WaitForStart)
}
