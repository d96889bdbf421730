package robot

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/robotalks/diffbot/pkg/drive"
	fx "github.com/robotalks/diffbot/pkg/framework"
	"github.com/robotalks/diffbot/pkg/hal"
	"github.com/robotalks/diffbot/pkg/l0/comm"
	"github.com/robotalks/diffbot/pkg/l0/msgs"
	"github.com/robotalks/diffbot/pkg/safety"
)

// Periods of the rate gated tasks.
type Periods struct {
	LED            time.Duration `yaml:"led"`
	SideIndicator  time.Duration `yaml:"side_indicator"`
	DistanceReport time.Duration `yaml:"distance_report"`
	BatterySample  time.Duration `yaml:"battery_sample"`
	BatteryReport  time.Duration `yaml:"battery_report"`
	AccelSample    time.Duration `yaml:"accel_sample"`
	Status         time.Duration `yaml:"status"`
}

// Config defines the control core settings.
type Config struct {
	Interval      time.Duration `yaml:"interval"`
	Threshold     float64       `yaml:"threshold"`
	EmergencyHold time.Duration `yaml:"emergency_hold"`
	Debounce      time.Duration `yaml:"debounce"`
	PWMPeriod     int           `yaml:"pwm_period"`
	AccelRate     int           `yaml:"accel_rate"`
	AccelFilter   bool          `yaml:"accel_filter"`
	Periods       Periods       `yaml:"periods"`

	LineLength   int `yaml:"line_length"`
	FrameDepth   int `yaml:"frame_depth"`
	TxBufferSize int `yaml:"tx_buffer_size"`
}

var defaultConfig = Config{
	Interval:      fx.DefaultInterval,
	Threshold:     safety.DefaultThreshold,
	EmergencyHold: 5 * time.Second,
	Debounce:      hal.DefaultDebounce,
	PWMPeriod:     drive.DefaultPeriod,
	AccelRate:     10,
	AccelFilter:   true,
	Periods: Periods{
		LED:            time.Second,
		SideIndicator:  500 * time.Millisecond,
		DistanceReport: 100 * time.Millisecond,
		BatterySample:  200 * time.Millisecond,
		BatteryReport:  time.Second,
		AccelSample:    10 * time.Millisecond,
		Status:         time.Second,
	},
	LineLength:   comm.DefaultUARTConfig.LineLength,
	FrameDepth:   comm.DefaultUARTConfig.FrameDepth,
	TxBufferSize: comm.DefaultUARTConfig.TxBufferSize,
}

func init() {
	if val := os.Getenv("ROBO_THRESHOLD"); val != "" {
		if v, err := strconv.ParseFloat(val, 64); err == nil {
			defaultConfig.Threshold = v
		}
	}
	if val := os.Getenv("ROBO_ACCEL_RATE"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			defaultConfig.AccelRate = v
		}
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.DurationVar(&defaultConfig.Interval, "tick", defaultConfig.Interval, "Control loop tick.")
	flag.Float64Var(&defaultConfig.Threshold, "threshold", defaultConfig.Threshold, "Obstacle distance (m) entering Emergency.")
	flag.DurationVar(&defaultConfig.EmergencyHold, "emergency-hold", defaultConfig.EmergencyHold, "Clear distance duration to leave Emergency.")
	flag.DurationVar(&defaultConfig.Debounce, "debounce", defaultConfig.Debounce, "Button debounce window.")
	flag.IntVar(&defaultConfig.AccelRate, "accel-rate", defaultConfig.AccelRate, "Acceleration report rate (Hz): 0, 1, 2, 4, 5 or 10; 0 disables.")
	flag.BoolVar(&defaultConfig.AccelFilter, "accel-filter", defaultConfig.AccelFilter, "Report averaged acceleration instead of the latest sample.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// LoadFile overlays settings from a YAML file.
func (c *Config) LoadFile(fn string) error {
	data, err := os.ReadFile(fn)
	if err != nil {
		return errors.Wrapf(err, "read config %s", fn)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.Wrapf(err, "parse config %s", fn)
	}
	return c.Validate()
}

// Validate checks the settings are usable.
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return errors.Errorf("invalid tick %v", c.Interval)
	}
	if c.Threshold <= 0 {
		return errors.Errorf("invalid threshold %v", c.Threshold)
	}
	if c.PWMPeriod <= 0 {
		return errors.Errorf("invalid PWM period %d", c.PWMPeriod)
	}
	if !msgs.IsValidRate(c.AccelRate) {
		return errors.Errorf("invalid acceleration rate %d, want one of %v", c.AccelRate, msgs.ValidRates)
	}
	if c.FrameDepth < 2 {
		return errors.Errorf("frame depth must be at least 2, got %d", c.FrameDepth)
	}
	if c.LineLength < 1 || c.TxBufferSize < 2 {
		return errors.New("invalid UART buffer sizes")
	}
	return nil
}

// UARTConfig derives the UART buffer sizes.
func (c *Config) UARTConfig() comm.UARTConfig {
	return comm.UARTConfig{
		LineLength:   c.LineLength,
		FrameDepth:   c.FrameDepth,
		TxBufferSize: c.TxBufferSize,
	}
}
