package sim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/diffbot/pkg/sensors"
)

func TestSensorVoltageInverse(t *testing.T) {
	near, far := SensorRange()
	require.InDelta(t, 0.139, near, 0.001)
	require.InDelta(t, 1.242, far, 0.001)
	for d := 0.15; d < 1.2; d += 0.05 {
		require.InDelta(t, d, sensors.VoltageToDistance(SensorVoltage(d)), 1e-6, "d=%v", d)
	}
	require.Equal(t, SensorMinVolts, SensorVoltage(3))
	require.Equal(t, SensorMaxVolts, SensorVoltage(0.05))
}

func TestAccelRegisters(t *testing.T) {
	testCases := []struct {
		mg     float64
		expect int16
	}{
		{0, 0},
		{983, 1006},
		{-70, -72},
		{-1e6, -4096},
		{1e6, 4095},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expect, accelRegisters(tc.mg), "mg=%v", tc.mg)
	}
}
