package sim

import (
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"

	"github.com/robotalks/diffbot/pkg/drive"
	"github.com/robotalks/diffbot/pkg/sensors"
)

// standard gravity in m/s^2.
const gravity = 9.80665

// maxStep bounds a single integration step.
const maxStep = 10 * time.Millisecond

// Body is a simulated robot implementing hal.Hardware. The pose is
// integrated lazily up to the clock's current time whenever the body
// is read or driven.
type Body struct {
	Config Config
	Clock  clock.Clock
	// ButtonEdge receives the edges of Press, typically hal.Button.Edge.
	ButtonEdge func() bool

	lock       sync.Mutex
	pose       Pose2D
	channels   drive.Channels
	speeds     [2]float64
	accel      float64
	last       time.Time
	elapsed    time.Duration
	led        bool
	side       bool
	collisions int
	stuck      bool
}

// Snapshot is the observable state of a Body.
type Snapshot struct {
	Pose       Pose2D
	Motors     drive.MotorCommand
	Speed      float64
	LED        bool
	Side       bool
	Collisions int
}

// Snapshot advances the body and returns its state.
func (b *Body) Snapshot() Snapshot {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.update()
	return Snapshot{
		Pose:       b.pose,
		Motors:     b.channels.Merge(),
		Speed:      (b.speeds[0] + b.speeds[1]) / 2,
		LED:        b.led,
		Side:       b.side,
		Collisions: b.collisions,
	}
}

// Place moves the body, stopping the wheels.
func (b *Body) Place(pose Pose2D) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.update()
	b.pose, b.speeds, b.stuck = pose, [2]float64{}, false
}

// SetMotorDuty implements drive.Motors.
func (b *Body) SetMotorDuty(left, right int) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.update()
	b.channels = drive.Split(drive.MotorCommand{Left: left, Right: right}, b.Config.PWMPeriod)
}

// ReadDistanceSample implements hal.Sensors.
func (b *Body) ReadDistanceSample() float64 {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.update()
	return adc(SensorVoltage(b.obstacleDistance()))
}

// ReadBatterySample implements hal.Sensors.
func (b *Body) ReadBatterySample() float64 {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.update()
	cmd := b.channels.Merge()
	load := float64(abs(cmd.Left)+abs(cmd.Right)) / float64(2*b.Config.PWMPeriod)
	v := b.Config.BatteryFull - b.Config.BatterySag*load - b.Config.BatteryDrain*b.elapsed.Hours()
	return adc(math.Max(v, 0) / sensors.BatteryDividerRatio)
}

// ReadAccelTriple implements hal.Sensors. At rest the board reads its
// bias; forward acceleration adds on X.
func (b *Body) ReadAccelTriple() (x, y, z int16) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.update()
	bias := sensors.AccelBias
	forward := b.accel / gravity * 1000
	return accelRegisters(float64(bias.X) + forward),
		accelRegisters(float64(bias.Y)),
		accelRegisters(float64(bias.Z))
}

// SetLED implements hal.Indicators.
func (b *Body) SetLED(on bool) {
	b.lock.Lock()
	b.led = on
	b.lock.Unlock()
}

// SetSideIndicators implements hal.Indicators.
func (b *Body) SetSideIndicators(on bool) {
	b.lock.Lock()
	changed := b.side != on
	b.side = on
	b.lock.Unlock()
	if changed {
		glog.V(2).Infof("side indicators %v", on)
	}
}

// Press simulates a button press whose contact bounces the given number
// of times. It returns the number of edges accepted.
func (b *Body) Press(bounces int) (accepted int) {
	if b.ButtonEdge == nil {
		return 0
	}
	for i := 0; i <= bounces; i++ {
		if b.ButtonEdge() {
			accepted++
		}
	}
	return
}

func (b *Body) obstacleDistance() float64 {
	sensor := b.pose.Pos2D.Add(b.pose.Orientation.Project(b.Config.SensorOffset))
	arena := Rect{Size2D: b.Config.Arena}
	d := arena.RayExit(arena.Clamp(sensor), b.pose.Orientation)
	for _, o := range b.Config.Obstacles {
		if hit, ok := o.RayHit(sensor, b.pose.Orientation); ok && hit < d {
			d = hit
		}
	}
	return d
}

func (b *Body) targetSpeeds() [2]float64 {
	cmd := b.channels.Merge()
	scale := b.Config.MaxWheelSpeed / float64(b.Config.PWMPeriod)
	return [2]float64{float64(cmd.Left) * scale, float64(cmd.Right) * scale}
}

// update integrates up to now. Lock must be held.
func (b *Body) update() {
	now := b.Clock.Now()
	dt := now.Sub(b.last)
	if dt <= 0 {
		return
	}
	b.last = now
	b.elapsed += dt
	for dt > 0 {
		step := dt
		if step > maxStep {
			step = maxStep
		}
		b.integrate(step.Seconds())
		dt -= step
	}
}

func (b *Body) integrate(secs float64) {
	target, prev := b.targetSpeeds(), b.speeds
	var travel [2]float64
	for i := range b.speeds {
		b.speeds[i], travel[i] = ramp(prev[i], target[i], b.Config.WheelAccel, secs)
	}
	v0, v1 := (prev[0]+prev[1])/2, (b.speeds[0]+b.speeds[1])/2
	b.accel = (v1 - v0) / secs

	left, right := travel[0]/secs, travel[1]/secs
	v, w := (left+right)/2, (right-left)/b.Config.WheelBase
	mid := b.pose.Orientation.AddRadians(w * secs / 2)
	next := b.pose.Pos2D.Add(mid.Project(v * secs))
	if b.blocked(next) {
		if !b.stuck {
			b.collisions++
			glog.V(1).Infof("collision at (%.3f, %.3f)", next.X, next.Y)
		}
		b.stuck = true
		b.accel, b.speeds = -v1/secs, [2]float64{}
	} else {
		b.stuck = false
		b.pose.Pos2D = next
	}
	b.pose.Orientation = b.pose.Orientation.AddRadians(w * secs)
}

func (b *Body) blocked(p Pos2D) bool {
	radius := b.Config.WheelBase / 2
	if !(Rect{Size2D: b.Config.Arena}).Inset(radius).Contains(p) {
		return true
	}
	for _, o := range b.Config.Obstacles {
		grown := Rect{
			Pos2D:  Pos2D{X: o.X - radius, Y: o.Y - radius},
			Size2D: Size2D{CX: o.CX + 2*radius, CY: o.CY + 2*radius},
		}
		if grown.Contains(p) {
			return true
		}
	}
	return false
}

// ramp moves a wheel speed toward target limited by accel and returns
// the new speed and the distance traveled during secs.
func ramp(from, to, accel, secs float64) (speed, travel float64) {
	if accel <= 0 {
		return to, to * secs
	}
	reach := math.Abs(to-from) / accel
	if reach >= secs {
		speed = from + math.Copysign(accel*secs, to-from)
		return speed, (from + speed) / 2 * secs
	}
	return to, (from+to)/2*reach + to*(secs-reach)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
