// Package hal defines what the control core needs from the board.
package hal

import (
	"github.com/robotalks/diffbot/pkg/drive"
)

// Sensors takes one sample per call without blocking.
type Sensors interface {
	// ReadDistanceSample returns the distance sensor output in volts.
	ReadDistanceSample() float64
	// ReadBatterySample returns the battery divider output in volts.
	ReadBatterySample() float64
	// ReadAccelTriple returns raw 13-bit accelerometer readings.
	ReadAccelTriple() (x, y, z int16)
}

// Indicators drives the status lights.
type Indicators interface {
	SetLED(on bool)
	SetSideIndicators(on bool)
}

// Hardware is everything the control core drives.
type Hardware interface {
	Sensors
	drive.Motors
	Indicators
}
