package sensors

import (
	"math"

	"github.com/robotalks/diffbot/pkg/ringbuf"
)

// WindowSize is the number of samples averaged per quantity.
const WindowSize = 5

// AccelMode selects how acceleration is reported.
type AccelMode int

// Accel modes.
const (
	// AccelFiltered reports the window mean.
	AccelFiltered AccelMode = iota
	// AccelLatest reports the most recent sample.
	AccelLatest
)

// Fusion keeps the sample windows. It is owned by the control loop.
type Fusion struct {
	AccelMode AccelMode
	Bias      Vector3

	distance *ringbuf.Window[float64]
	battery  *ringbuf.Window[float64]
	// bias corrected samples in mg
	ax, ay, az *ringbuf.Window[int]
}

// NewFusion creates a Fusion with WindowSize windows and AccelBias.
func NewFusion() *Fusion {
	return &Fusion{
		Bias:     AccelBias,
		distance: ringbuf.NewWindow[float64](WindowSize),
		battery:  ringbuf.NewWindow[float64](WindowSize),
		ax:       ringbuf.NewWindow[int](WindowSize),
		ay:       ringbuf.NewWindow[int](WindowSize),
		az:       ringbuf.NewWindow[int](WindowSize),
	}
}

// AddDistance converts a sensor voltage and records it.
// It returns the distance of this sample in meters.
func (f *Fusion) AddDistance(volts float64) float64 {
	d := VoltageToDistance(volts)
	f.distance.Push(d)
	return d
}

// AddBattery records a sample taken behind the voltage divider
// and returns the battery voltage it stands for.
func (f *Fusion) AddBattery(volts float64) float64 {
	v := volts * BatteryDividerRatio
	f.battery.Push(v)
	return v
}

// AddAccel converts raw axis readings to mg, subtracts the bias and
// records the result.
func (f *Fusion) AddAccel(x, y, z int16) {
	f.ax.Push(RawToMilliG(float64(x)) - f.Bias.X)
	f.ay.Push(RawToMilliG(float64(y)) - f.Bias.Y)
	f.az.Push(RawToMilliG(float64(z)) - f.Bias.Z)
}

// Distance is the mean distance in meters.
func (f *Fusion) Distance() float64 {
	return f.distance.Mean()
}

// DistanceCentimeters is the mean distance scaled to centimeters and
// truncated.
func (f *Fusion) DistanceCentimeters() int {
	return int(f.distance.Mean() * 100)
}

// BatteryVolts is the mean battery voltage.
func (f *Fusion) BatteryVolts() float64 {
	return f.battery.Mean()
}

// Accel is the bias corrected acceleration in mg, the rounded window
// mean or the latest sample depending on AccelMode. Without samples it
// reports zero on every axis.
func (f *Fusion) Accel() Vector3 {
	if f.ax.Len() == 0 {
		return Vector3{}
	}
	var v [3]int
	for i, w := range []*ringbuf.Window[int]{f.ax, f.ay, f.az} {
		if f.AccelMode == AccelLatest {
			v[i], _ = w.Last()
		} else {
			v[i] = int(math.Round(w.Mean()))
		}
	}
	return Vector3{X: v[0], Y: v[1], Z: v[2]}
}

// Samples reports the fill count of each window, for diagnostics.
func (f *Fusion) Samples() (distance, battery, accel int) {
	return f.distance.Len(), f.battery.Len(), f.ax.Len()
}
