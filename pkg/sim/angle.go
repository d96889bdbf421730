package sim

import "math"

// Angle is a heading in radians, kept within [-Pi, Pi]. Zero faces +X,
// positive turns toward +Y.
type Angle float64

func wrap(r float64) Angle {
	return Angle(math.Remainder(r, 2*math.Pi))
}

// AngleFromDegrees creates Angle from degrees.
func AngleFromDegrees(d float64) Angle {
	return wrap(d * math.Pi / 180)
}

// AngleFromRadians creates Angle from radians.
func AngleFromRadians(r float64) Angle {
	return wrap(r)
}

// AddRadians turns the heading by r.
func (a Angle) AddRadians(r float64) Angle {
	return wrap(float64(a) + r)
}

// Radians gets angle in radians.
func (a Angle) Radians() float64 { return float64(a) }

// Degrees gets angle in degrees.
func (a Angle) Degrees() float64 { return float64(a) * 180 / math.Pi }

// Cos is the X component of the unit heading.
func (a Angle) Cos() float64 { return math.Cos(float64(a)) }

// Sin is the Y component of the unit heading.
func (a Angle) Sin() float64 { return math.Sin(float64(a)) }

// Project returns the offset of moving dist along the heading.
func (a Angle) Project(dist float64) Pos2D {
	sin, cos := math.Sincos(float64(a))
	return Pos2D{X: dist * cos, Y: dist * sin}
}
