// Package robot wires sensing, protocol, safety and actuation onto the
// control loop.
package robot

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"

	"github.com/robotalks/diffbot/pkg/drive"
	fx "github.com/robotalks/diffbot/pkg/framework"
	"github.com/robotalks/diffbot/pkg/hal"
	"github.com/robotalks/diffbot/pkg/l0/comm"
	"github.com/robotalks/diffbot/pkg/l0/msgs"
	"github.com/robotalks/diffbot/pkg/safety"
	"github.com/robotalks/diffbot/pkg/sensors"
)

// Controller is the control core. All of its state except the button
// latch and the UART internals is owned by the loop goroutine.
type Controller struct {
	Config    *Config
	Hardware  hal.Hardware
	UART      *comm.UART
	Button    *hal.Button
	Machine   *safety.Machine
	Fusion    *sensors.Fusion
	Mixer     *drive.Mixer
	Reporters []StatusReporter

	speed     int8
	yaw       int8
	accelRate int
	output    drive.MotorCommand
	fresh     float64
	led       bool
	side      bool

	batterySample  counter
	accelSample    counter
	hold           counter
	distanceReport counter
	batteryReport  counter
	accelReport    counter
	ledBlink       counter
	sideBlink      counter
	status         counter
}

// counter accumulates loop time and fires once per period.
type counter struct {
	elapsed time.Duration
}

func (c *counter) advance(dt, period time.Duration) bool {
	if period <= 0 {
		return false
	}
	c.elapsed += dt
	if c.elapsed < period {
		return false
	}
	c.elapsed = 0
	return true
}

func (c *counter) reset() {
	c.elapsed = 0
}

// New creates a Controller. The motors are stopped immediately.
func New(conf *Config, hw hal.Hardware, uart *comm.UART, clk clock.Clock) *Controller {
	if conf == nil {
		conf = NewConfig()
	}
	c := &Controller{
		Config:    conf,
		Hardware:  hw,
		UART:      uart,
		Button:    hal.NewButton(clk),
		Machine:   safety.New(hw),
		Fusion:    sensors.NewFusion(),
		Mixer:     &drive.Mixer{Period: conf.PWMPeriod},
		accelRate: conf.AccelRate,
	}
	c.Button.Debounce = conf.Debounce
	c.Machine.Threshold = conf.Threshold
	if !conf.AccelFilter {
		c.Fusion.AccelMode = sensors.AccelLatest
	}
	hw.SetLED(false)
	hw.SetSideIndicators(false)
	return c
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvSense, fx.ControlFunc(c.acquire))
	l.AddController(fx.PrLvProtocol, fx.ControlFunc(c.decode))
	l.AddController(fx.PrLvControl, fx.ControlFunc(c.evaluate))
	l.AddController(fx.PrLvAcuate, fx.ControlFunc(c.actuate))
	l.AddController(fx.PrLvPostProc, fx.ControlFunc(c.report))
	l.AddRunnable(c.UART)
}

// Reference returns the current speed and yaw reference.
func (c *Controller) Reference() (speed, yaw int8) {
	return c.speed, c.yaw
}

// AccelRate returns the acceleration report rate in Hz.
func (c *Controller) AccelRate() int {
	return c.accelRate
}

// Output returns the duties applied in the last tick.
func (c *Controller) Output() drive.MotorCommand {
	return c.output
}

// Status takes a snapshot.
func (c *Controller) Status(tick uint64) Status {
	return Status{
		Tick:         tick,
		State:        c.Machine.State(),
		Speed:        c.speed,
		Yaw:          c.yaw,
		Motors:       c.output,
		Distance:     c.Fusion.Distance(),
		BatteryVolts: c.Fusion.BatteryVolts(),
		Accel:        c.Fusion.Accel(),
		AccelRate:    c.accelRate,
		LED:          c.led,
		UART:         c.UART.Stats(),
	}
}

func (c *Controller) send(msg msgs.Message) {
	line := msg.Line()
	if !c.UART.Send(line) {
		glog.Warningf("TX overflow, dropped %q", line)
		return
	}
	glog.V(3).Infof("TX %s", line)
}

// acquire samples the distance sensor every tick and the slower sensors
// on their own periods.
func (c *Controller) acquire(cc fx.ControlContext) error {
	dt := cc.Interval()
	c.fresh = c.Fusion.AddDistance(c.Hardware.ReadDistanceSample())
	if c.batterySample.advance(dt, c.Config.Periods.BatterySample) {
		c.Fusion.AddBattery(c.Hardware.ReadBatterySample())
	}
	if c.accelSample.advance(dt, c.Config.Periods.AccelSample) {
		c.Fusion.AddAccel(c.Hardware.ReadAccelTriple())
	}
	return nil
}

// decode drains received lines. References are applied right away,
// everything else, including the rejection of a malformed $RATE, is
// queued as a message so evaluate answers in arrival order.
func (c *Controller) decode(cc fx.ControlContext) error {
	for {
		frame, ok := c.UART.NextFrame()
		if !ok {
			return nil
		}
		line := string(frame)
		glog.V(2).Infof("RX %s", line)
		cmd, err := msgs.ParseCommand(line)
		switch {
		case msgs.IsParseError(err, msgs.TagRate):
			cc.Messages().AddMessages(&msgs.Error{Reason: msgs.ReasonBadRate})
		case err != nil:
			glog.V(2).Infof("drop: %v", err)
		default:
			if ref, ok := cmd.(*msgs.SetReference); ok {
				c.speed, c.yaw = ref.Speed, ref.Yaw
				continue
			}
			cc.Messages().AddMessages(cmd)
		}
	}
}

// evaluate runs the state machine: button and host commands first so a
// near obstacle in the same tick still wins. Every queued command is
// answered here, one reply per line in the order the lines arrived.
func (c *Controller) evaluate(cc fx.ControlContext) error {
	if c.Button.TakePress() {
		c.Machine.Button()
	}
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mc fx.MessageProcessingContext) {
		switch m := mc.CurrentMessage().(type) {
		case *msgs.Start:
			mc.MessageTaken()
			c.send(&msgs.Ack{Accepted: c.Machine.Start()})
		case *msgs.Stop:
			mc.MessageTaken()
			c.send(&msgs.Ack{Accepted: c.Machine.Stop()})
		case *msgs.SetRate:
			mc.MessageTaken()
			c.accelRate = m.Hz
			c.accelReport.reset()
			c.send(&msgs.OK{})
		case *msgs.Error:
			mc.MessageTaken()
			c.send(m)
		case msgs.Command:
			mc.MessageTaken()
			c.send(&msgs.Error{Reason: msgs.ReasonUnknownCommand})
		}
	}))

	switch c.Machine.ObserveDistance(c.fresh) {
	case safety.Entered:
		c.hold.reset()
		c.sideBlink.reset()
		glog.Warningf("obstacle at %.3fm, emergency", c.fresh)
		cc.PostRunAt(fx.PrLvPostProc, emergencyEvent(c, true))
	case safety.Obstructed:
		c.hold.reset()
	case safety.Clear:
		if c.hold.advance(cc.Interval(), c.Config.EmergencyHold) && c.Machine.ClearEmergency() {
			c.setSide(false)
			cc.PostRunAt(fx.PrLvPostProc, emergencyEvent(c, false))
		}
	}
	return nil
}

func emergencyEvent(c *Controller, active bool) fx.Controller {
	return fx.ControlFunc(func(fx.ControlContext) error {
		c.send(&msgs.Emergency{Active: active})
		return nil
	})
}

// actuate drives the motors only while Moving.
func (c *Controller) actuate(cc fx.ControlContext) error {
	cmd := drive.Stopped
	if c.Machine.State() == safety.Moving {
		cmd = c.Mixer.Mix(c.speed, c.yaw)
	}
	cmd.Apply(c.Hardware)
	c.output = cmd
	return nil
}

// report emits periodic telemetry and blinks the indicators.
func (c *Controller) report(cc fx.ControlContext) error {
	dt, p := cc.Interval(), &c.Config.Periods
	if c.distanceReport.advance(dt, p.DistanceReport) {
		c.send(&msgs.Distance{Centimeters: c.Fusion.DistanceCentimeters()})
	}
	if c.batteryReport.advance(dt, p.BatteryReport) {
		c.send(&msgs.Battery{Volts: c.Fusion.BatteryVolts()})
	}
	if c.accelRate > 0 && c.accelReport.advance(dt, time.Second/time.Duration(c.accelRate)) {
		a := c.Fusion.Accel()
		c.send(&msgs.Accel{X: a.X, Y: a.Y, Z: a.Z})
	}
	if c.ledBlink.advance(dt, p.LED) {
		c.led = !c.led
		c.Hardware.SetLED(c.led)
	}
	if c.Machine.State() == safety.Emergency {
		if c.sideBlink.advance(dt, p.SideIndicator) {
			c.setSide(!c.side)
		}
	} else if c.side {
		c.setSide(false)
	}
	if len(c.Reporters) > 0 && c.status.advance(dt, p.Status) {
		s := c.Status(cc.Tick())
		for _, r := range c.Reporters {
			r.ReportStatus(s)
		}
	}
	return nil
}

func (c *Controller) setSide(on bool) {
	c.side = on
	c.sideBlink.reset()
	c.Hardware.SetSideIndicators(on)
}
