// Package sensors converts raw samples into physical units and keeps the
// moving averages the control loop reports.
package sensors

import "math"

// ADC and divider constants.
const (
	Vref                = 3.3
	ADCFullScale        = 1023
	BatteryDividerRatio = 3.0
)

// AccelScale is the accelerometer sensitivity in mg per LSB.
const AccelScale = 0.977

// DistanceCoefficients fit d(v) = c0 + c1*v + c2*v^2 + c3*v^3 + c4*v^4,
// with v in volts and d in meters, for the infrared distance sensor.
var DistanceCoefficients = [5]float64{2.34, -4.74, 4.06, -1.60, 0.24}

// Vector3 is an acceleration in mg.
type Vector3 struct {
	X, Y, Z int
}

// Sub subtracts per axis.
func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// AccelBias is the reading of the board at rest, subtracted per axis.
var AccelBias = Vector3{X: -70, Y: -94, Z: 983}

// CodeToVoltage converts a 10-bit ADC code.
func CodeToVoltage(code uint16) float64 {
	return float64(code) * Vref / ADCFullScale
}

// VoltageToCode is the inverse of CodeToVoltage, saturated to the ADC range.
func VoltageToCode(v float64) uint16 {
	code := math.Round(v * ADCFullScale / Vref)
	if code < 0 {
		return 0
	}
	if code > ADCFullScale {
		return ADCFullScale
	}
	return uint16(code)
}

// VoltageToDistance evaluates the distance polynomial.
func VoltageToDistance(v float64) float64 {
	c := DistanceCoefficients
	return c[0] + v*(c[1]+v*(c[2]+v*(c[3]+v*c[4])))
}

// DecodeAccelAxis assembles one 13-bit two's complement axis from its
// register pair. The low 3 bits of lsb carry no data.
func DecodeAccelAxis(lsb, msb byte) int16 {
	return int16(uint16(msb)<<8|uint16(lsb&0xf8)) >> 3
}

// EncodeAccelAxis is the inverse of DecodeAccelAxis for raw in [-4096, 4095].
func EncodeAccelAxis(raw int16) (lsb, msb byte) {
	v := uint16(raw << 3)
	return byte(v) & 0xf8, byte(v >> 8)
}

// RawToMilliG converts a (possibly averaged) raw reading to mg.
func RawToMilliG(raw float64) int {
	return int(math.Round(AccelScale * raw))
}
