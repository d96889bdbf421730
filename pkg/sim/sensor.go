package sim

import (
	"math"

	"github.com/robotalks/diffbot/pkg/sensors"
)

// Output range of the distance sensor. The calibration polynomial is
// monotonic between these voltages.
const (
	SensorMinVolts = 0.3
	SensorMaxVolts = 2.04
)

// SensorRange returns the distances the sensor can report, in meters.
func SensorRange() (near, far float64) {
	return sensors.VoltageToDistance(SensorMaxVolts), sensors.VoltageToDistance(SensorMinVolts)
}

// SensorVoltage finds the voltage the distance sensor outputs for d
// meters. Distances out of range saturate.
func SensorVoltage(d float64) float64 {
	lo, hi := SensorMinVolts, SensorMaxVolts
	near, far := SensorRange()
	if d >= far {
		return lo
	}
	if d <= near {
		return hi
	}
	for i := 0; i < 48 && hi-lo > 1e-9; i++ {
		mid := (lo + hi) / 2
		if sensors.VoltageToDistance(mid) > d {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// adc quantizes v the way the 10-bit converter does.
func adc(v float64) float64 {
	return sensors.CodeToVoltage(sensors.VoltageToCode(v))
}

// accelRegisters renders an acceleration in mg as register bytes and
// reads them back, including the 13-bit range limit.
func accelRegisters(mg float64) int16 {
	raw := math.Round(mg / sensors.AccelScale)
	raw = math.Max(math.Min(raw, 4095), -4096)
	lsb, msb := sensors.EncodeAccelAxis(int16(raw))
	return sensors.DecodeAccelAxis(lsb, msb)
}
