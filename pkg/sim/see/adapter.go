// Package see streams the simulated arena to github.com/robotalks/see
// as JSON lines, with lengths in millimeters.
package see

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	fx "github.com/robotalks/diffbot/pkg/framework"
	"github.com/robotalks/diffbot/pkg/sim"
)

// DefaultPeriod is the time between two robot updates.
const DefaultPeriod = 50 * time.Millisecond

// RobotID is the object ID of the robot.
const RobotID = "robot"

// Adapter is the visualization adapter to visualize using
// github.com/robotalks/see.
type Adapter struct {
	Body   *sim.Body
	Period time.Duration
	Out    io.Writer

	initial bool
	elapsed time.Duration
	last    sim.Snapshot
}

// NewAdapter creates the adapter writing to stdout.
func NewAdapter(body *sim.Body) *Adapter {
	return &Adapter{Body: body, Period: DefaultPeriod, Out: os.Stdout, initial: true}
}

// AddToLoop implements LoopAdder.
func (a *Adapter) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvPostProc, fx.ControlFunc(a.ReportChanges))
}

func mm(m float64) float64 {
	return m * 1000
}

// Scene returns the messages drawing the arena and its obstacles.
func (a *Adapter) Scene() []Message {
	conf := &a.Body.Config
	w, h := mm(conf.Arena.CX), mm(conf.Arena.CY)
	msgs := []Message{
		{Action: ActionReset},
		{Action: ActionObject, Object: NewObject("arena", "arena").Rc(0, 0, w, h)},
	}
	for n, o := range conf.Obstacles {
		msgs = append(msgs, Message{
			Action: ActionObject,
			Object: NewObject("obstacle", fmt.Sprintf("obstacle-%d", n)).Rc(mm(o.X), mm(o.Y), mm(o.CX), mm(o.CY)),
		})
	}
	return msgs
}

// RobotObject renders the robot from a snapshot.
func (a *Adapter) RobotObject(s sim.Snapshot) Object {
	style := "normal"
	switch {
	case s.Side:
		style = "emergency"
	case s.Motors.Left != 0 || s.Motors.Right != 0:
		style = "moving"
	}
	return NewObject("robot", RobotID).
		At(mm(s.Pose.X), mm(s.Pose.Y)).
		Radius(mm(a.Body.Config.WheelBase/2)).
		Rotate(s.Pose.Orientation.Degrees()).
		Style(style).
		With("led", s.LED).
		With("collisions", s.Collisions)
}

// ReportChanges is a controller writing the scene once and the robot
// whenever it changed, at most once per Period.
func (a *Adapter) ReportChanges(cc fx.ControlContext) error {
	var msgs []Message
	if a.initial {
		msgs = a.Scene()
	}
	a.elapsed += cc.Interval()
	if a.initial || a.elapsed >= a.Period {
		a.elapsed = 0
		if s := a.Body.Snapshot(); a.initial || s != a.last {
			a.last = s
			msgs = append(msgs, Message{Action: ActionObject, Object: a.RobotObject(s)})
		}
	}
	a.initial = false
	if len(msgs) == 0 {
		return nil
	}
	encoded, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.Out, string(encoded))
	return err
}
