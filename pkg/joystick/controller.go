// Package joystick drives the robot from a joystick: one stick sets
// the speed and yaw reference, two buttons start and stop.
package joystick

import (
	"context"
	"math"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/diffbot/pkg/framework"
	"github.com/robotalks/diffbot/pkg/joystick/device"
	"github.com/robotalks/diffbot/pkg/l0/comm"
	"github.com/robotalks/diffbot/pkg/l0/msgs"
)

// Teleop turns joystick events into commands on a Client.
type Teleop struct {
	Config *Config
	Client *comm.Client
	// Open opens the device, defaults to the configured device index.
	Open func() (device.Device, error)

	eventCh chan device.Event
	lostCh  chan struct{}

	speed, yaw int
	sent       msgs.SetReference
	dirty      bool
	elapsed    time.Duration
}

// NewTeleop creates a Teleop.
func NewTeleop(conf *Config, client *comm.Client) *Teleop {
	if conf == nil {
		conf = NewConfig()
	}
	t := &Teleop{
		Config:  conf,
		Client:  client,
		eventCh: make(chan device.Event, 16),
		lostCh:  make(chan struct{}, 1),
	}
	t.Open = t.openDevice
	return t
}

// AddToLoop implements LoopAdder.
func (t *Teleop) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(t)
	loop.AddController(fx.PrLvControl, fx.ControlFunc(t.control))
}

func (t *Teleop) openDevice() (device.Device, error) {
	if t.Config.DeviceIndex >= 0 {
		return device.Open(t.Config.DeviceIndex)
	}
	return device.DetectAndOpen(0)
}

// Run implements Runnable. The device is reopened a second after it is
// lost or when none was found.
func (t *Teleop) Run(ctx context.Context) error {
	retry := time.After(0)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-retry:
		}
		js, err := t.Open()
		switch {
		case err == device.ErrUnsupported:
			return err
		case err != nil:
			glog.Warningf("open joystick: %v", err)
		case js == nil:
			glog.V(1).Info("no joystick detected")
		default:
			glog.Infof("joystick %d %q opened, %d axes %d buttons",
				js.Index(), js.Name(), js.AxisCount(), js.ButtonCount())
			fx.RunWithContextCloser(ctx, js, func() error {
				return t.poll(js)
			})
			select {
			case t.lostCh <- struct{}{}:
			default:
			}
		}
		retry = time.After(time.Second)
	}
}

func (t *Teleop) poll(js device.Device) error {
	for {
		ev, err := js.ReadEvent()
		if err != nil {
			glog.Warningf("joystick read: %v", err)
			return err
		}
		if t.Config.Verbose {
			switch e := ev.(type) {
			case device.AxisEvent:
				glog.Infof("axis %d: %d init=%v", e.Index(), e.Value(), e.IsInit())
			case device.ButtonEvent:
				glog.Infof("button %d: %v init=%v", e.Index(), e.Pressed(), e.IsInit())
			}
		}
		t.eventCh <- ev
	}
}

// Scale maps an axis value onto a reference in [-100, 100] with the
// deadzone removed.
func Scale(value int, deadzone float64) int8 {
	v := float64(value) / device.AxisMax
	mag := math.Abs(v)
	if mag <= deadzone {
		return 0
	}
	mag = math.Min((mag-deadzone)/(1-deadzone), 1)
	return int8(math.Round(math.Copysign(mag*msgs.ReferenceMax, v)))
}

// Reference returns the reference for the current stick position.
// Pushing the stick forward reads negative and drives forward; pushing
// it left reads negative and turns left.
func (t *Teleop) Reference() msgs.SetReference {
	return msgs.SetReference{
		Speed: -Scale(t.speed, t.Config.Deadzone),
		Yaw:   -Scale(t.yaw, t.Config.Deadzone),
	}
}

// HandleEvent applies one joystick event.
func (t *Teleop) HandleEvent(ev device.Event) {
	switch e := ev.(type) {
	case device.AxisEvent:
		switch e.Index() {
		case t.Config.SpeedAxis:
			t.speed = e.Value()
		case t.Config.YawAxis:
			t.yaw = e.Value()
		default:
			return
		}
		t.dirty = t.Reference() != t.sent
	case device.ButtonEvent:
		if !e.Pressed() || e.IsInit() {
			return
		}
		switch e.Index() {
		case t.Config.StartButton:
			t.do(&msgs.Start{})
		case t.Config.StopButton:
			t.do(&msgs.Stop{})
		}
	}
}

// Lost zeroes the stick and stops the robot.
func (t *Teleop) Lost() {
	t.speed, t.yaw = 0, 0
	t.dirty = t.Reference() != t.sent
	t.do(&msgs.Stop{})
}

func (t *Teleop) do(cmd msgs.Command) {
	glog.V(1).Infof("TX %s", cmd.Line())
	t.Client.Do(cmd)
}

// Update sends the reference when it changed and at least Period
// passed since the last one.
func (t *Teleop) Update(dt time.Duration) {
	t.elapsed += dt
	if !t.dirty || t.elapsed < t.Config.Period {
		return
	}
	ref := t.Reference()
	t.do(&ref)
	t.sent, t.dirty, t.elapsed = ref, false, 0
}

func (t *Teleop) control(cc fx.ControlContext) error {
	for drained := false; !drained; {
		select {
		case ev := <-t.eventCh:
			t.HandleEvent(ev)
		case <-t.lostCh:
			t.Lost()
		default:
			drained = true
		}
	}
	t.Update(cc.Interval())
	return nil
}
