package joystick

import (
	"flag"
	"time"
)

// Config defines the configurations for the teleop.
type Config struct {
	DeviceIndex int
	Verbose     bool
	// Deadzone is the fraction of an axis ignored around center.
	Deadzone float64
	// Period is the minimum time between two references sent.
	Period time.Duration

	SpeedAxis   int
	YawAxis     int
	StartButton int
	StopButton  int
}

var defaultConfig = Config{
	DeviceIndex: -1,
	Deadzone:    0.05,
	Period:      50 * time.Millisecond,
	SpeedAxis:   1,
	YawAxis:     0,
	StartButton: 0,
	StopButton:  1,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.IntVar(&defaultConfig.DeviceIndex, "device", defaultConfig.DeviceIndex, "Device index, -1 for auto detection.")
	flag.BoolVar(&defaultConfig.Verbose, "verbose", defaultConfig.Verbose, "Print Joystick events.")
	flag.Float64Var(&defaultConfig.Deadzone, "deadzone", defaultConfig.Deadzone, "Fraction of axis travel ignored around center.")
	flag.DurationVar(&defaultConfig.Period, "ref-period", defaultConfig.Period, "Minimum time between two references.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}
