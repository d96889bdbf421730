package sim

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/benbjohnson/clock"

	"github.com/robotalks/diffbot/pkg/drive"
)

// Config defines the simulated robot and its arena. Lengths are in
// meters.
type Config struct {
	Arena         Size2D
	Obstacles     []Rect
	Start         Pose2D
	WheelBase     float64
	MaxWheelSpeed float64 // m/s at full duty
	WheelAccel    float64 // m/s^2, 0 means instant
	SensorOffset  float64 // from center to the distance sensor
	PWMPeriod     int

	BatteryFull  float64 // V
	BatterySag   float64 // V lost at full load on both motors
	BatteryDrain float64 // V per hour
}

var defaultConfig = Config{
	Arena:         Size2D{CX: 4, CY: 3},
	Start:         Pose2D{Pos2D: Pos2D{X: 1, Y: 1.5}},
	WheelBase:     0.15,
	MaxWheelSpeed: 0.5,
	WheelAccel:    2,
	SensorOffset:  0.06,
	PWMPeriod:     drive.DefaultPeriod,
	BatteryFull:   8.4,
	BatterySag:    0.6,
	BatteryDrain:  0.5,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.Float64Var(&defaultConfig.Arena.CX, "arena-width", defaultConfig.Arena.CX, "Arena width (m).")
	flag.Float64Var(&defaultConfig.Arena.CY, "arena-depth", defaultConfig.Arena.CY, "Arena depth (m).")
	flag.Float64Var(&defaultConfig.Start.X, "start-x", defaultConfig.Start.X, "Initial X position (m).")
	flag.Float64Var(&defaultConfig.Start.Y, "start-y", defaultConfig.Start.Y, "Initial Y position (m).")
	flag.Var((*Obstacles)(&defaultConfig.Obstacles), "obstacle", "Obstacle X,Y,W,D (m), repeatable.")
	flag.Float64Var(&defaultConfig.MaxWheelSpeed, "wheel-speed-max", defaultConfig.MaxWheelSpeed, "Wheel speed (m/s) at full duty.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates the default configuration.
func NewConfig() *Config {
	conf := defaultConfig
	conf.Obstacles = append([]Rect(nil), defaultConfig.Obstacles...)
	return &conf
}

// NewBody creates the simulated robot.
func (c *Config) NewBody(clk clock.Clock) *Body {
	if clk == nil {
		clk = clock.New()
	}
	return &Body{
		Config: *c,
		Clock:  clk,
		pose:   c.Start,
		last:   clk.Now(),
	}
}

// Obstacles is a flag.Value collecting rectangles as "x,y,w,d".
type Obstacles []Rect

// String implements flag.Value.
func (o *Obstacles) String() string {
	if o == nil {
		return ""
	}
	items := make([]string, len(*o))
	for n, r := range *o {
		items[n] = fmt.Sprintf("%g,%g,%g,%g", r.X, r.Y, r.CX, r.CY)
	}
	return strings.Join(items, " ")
}

// Set implements flag.Value.
func (o *Obstacles) Set(val string) error {
	fields := strings.Split(val, ",")
	if len(fields) != 4 {
		return fmt.Errorf("obstacle %q: expect X,Y,W,D", val)
	}
	var v [4]float64
	for n, f := range fields {
		num, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return fmt.Errorf("obstacle %q: %v", val, err)
		}
		v[n] = num
	}
	if v[2] <= 0 || v[3] <= 0 {
		return fmt.Errorf("obstacle %q: size must be positive", val)
	}
	*o = append(*o, Rect{Pos2D: Pos2D{X: v[0], Y: v[1]}, Size2D: Size2D{CX: v[2], CY: v[3]}})
	return nil
}
