// Package env provides the identity and registry settings shared by
// the robot and host commands.
package env

import (
	"flag"
	"os"

	"github.com/pkg/errors"

	"github.com/robotalks/diffbot/pkg/l1"
)

// DefaultMQTTBrokerURL is the broker used by host tools when none is set.
const DefaultMQTTBrokerURL = "mqtt://localhost:1883/robo/"

// RobotType is the type of robots this repository controls.
const RobotType = "diffbot"

// Config provides identity and registry settings.
type Config struct {
	Info l1.Info

	// MQTTBrokerURL specifies the MQTT broker to use.
	// e.g. mqtt://host:port/topic-prefix/
	MQTTBrokerURL string
}

var defaultConfig = Config{
	Info: l1.Info{
		Ref: l1.Ref{Type: RobotType},
		Meta: l1.Meta{
			Description: "two-wheeled robot control core",
			Protocol:    "lines",
		},
	},
}

func init() {
	if val := os.Getenv("ROBO_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("ROBO_TYPE"); val != "" {
		defaultConfig.Info.Ref.Type = val
	}
	if val := os.Getenv("ROBO_ID"); val != "" {
		defaultConfig.Info.Ref.ID = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Info.Ref.Type, "type", defaultConfig.Info.Ref.Type, "Robot type.")
	flag.StringVar(&defaultConfig.Info.Ref.ID, "id", defaultConfig.Info.Ref.ID, "Robot ID, defaults to one derived from the machine ID.")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL.")
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

// Ref returns the robot reference, filling the ID from the machine ID
// when it is not set.
func (c *Config) Ref() (l1.Ref, error) {
	ref := c.Info.Ref
	if ref.ID == "" {
		ref.ID = MachineID()
	}
	if !ref.IsValid() {
		return ref, errors.Errorf("invalid robot reference %q", ref.Name())
	}
	return ref, nil
}

// BrokerURL returns MQTTBrokerURL or DefaultMQTTBrokerURL.
func (c *Config) BrokerURL() string {
	if c.MQTTBrokerURL != "" {
		return c.MQTTBrokerURL
	}
	return DefaultMQTTBrokerURL
}
