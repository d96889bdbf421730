package robot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	fn := filepath.Join(t.TempDir(), "robot.yaml")
	require.NoError(t, os.WriteFile(fn, []byte(content), 0644))
	return fn
}

func TestConfigDefaults(t *testing.T) {
	conf := NewConfig()
	require.NoError(t, conf.Validate())
	require.Equal(t, 2*time.Millisecond, conf.Interval)
	require.Equal(t, 5*time.Second, conf.EmergencyHold)
	require.Equal(t, 7200, conf.PWMPeriod)
	require.Equal(t, 4, conf.UARTConfig().FrameDepth)
	require.NotSame(t, Default(), conf)
}

func TestConfigLoadFile(t *testing.T) {
	conf := NewConfig()
	fn := writeConfig(t, `
threshold: 0.3
emergency_hold: 3s
accel_rate: 5
accel_filter: false
periods:
  led: 500ms
frame_depth: 8
`)
	require.NoError(t, conf.LoadFile(fn))
	require.Equal(t, 0.3, conf.Threshold)
	require.Equal(t, 3*time.Second, conf.EmergencyHold)
	require.Equal(t, 5, conf.AccelRate)
	require.False(t, conf.AccelFilter)
	require.Equal(t, 500*time.Millisecond, conf.Periods.LED)
	require.Equal(t, 100*time.Millisecond, conf.Periods.DistanceReport)
	require.Equal(t, 8, conf.FrameDepth)
}

func TestConfigLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "threshold: [1"},
		{"threshold", "threshold: -1"},
		{"frame depth", "frame_depth: 1"},
		{"rate", "accel_rate: -2"},
		{"unsupported rate", "accel_rate: 3"},
		{"fast rate", "accel_rate: 1000"},
		{"tick", "interval: 0s"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Error(t, NewConfig().LoadFile(writeConfig(t, test.content)))
		})
	}
	require.Error(t, NewConfig().LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestConfigValidateRates(t *testing.T) {
	conf := NewConfig()
	for _, hz := range []int{0, 1, 2, 4, 5, 10} {
		conf.AccelRate = hz
		require.NoError(t, conf.Validate(), "rate %d", hz)
	}
	for _, hz := range []int{-1, 3, 20, 1000} {
		conf.AccelRate = hz
		require.Error(t, conf.Validate(), "rate %d", hz)
	}
}
