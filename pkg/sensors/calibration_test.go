package sensors

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeAccelAxis(t *testing.T) {
	testCases := []struct {
		name     string
		lsb, msb byte
		expect   int16
	}{
		{"zero", 0x00, 0x00, 0},
		{"low bits ignored", 0x07, 0x00, 0},
		{"one", 0x08, 0x00, 1},
		{"minus one", 0xf8, 0xff, -1},
		{"max", 0xf8, 0x7f, 4095},
		{"min", 0x00, 0x80, -4096},
		{"1g", 0x18, 0x20, 1027},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, DecodeAccelAxis(tc.lsb, tc.msb))
		})
	}
	for raw := int16(-4096); raw <= 4095; raw += 7 {
		lsb, msb := EncodeAccelAxis(raw)
		require.Equal(t, raw, DecodeAccelAxis(lsb, msb))
	}
}

func TestVoltageToDistance(t *testing.T) {
	require.InDelta(t, 2.34, VoltageToDistance(0), 1e-12)
	require.InDelta(t, 0.30, VoltageToDistance(1), 1e-12)
	require.InDelta(t, 0.14, VoltageToDistance(2), 1e-9)
	prev := VoltageToDistance(0.3)
	for v := 0.31; v <= 2.0; v += 0.01 {
		d := VoltageToDistance(v)
		require.Lessf(t, d, prev, "not decreasing at %.2fV", v)
		prev = d
	}
}

func TestCodeToVoltage(t *testing.T) {
	require.Zero(t, CodeToVoltage(0))
	require.InDelta(t, Vref, CodeToVoltage(ADCFullScale), 1e-12)
	for _, code := range []uint16{0, 1, 310, 511, 1022, 1023} {
		require.Equal(t, code, VoltageToCode(CodeToVoltage(code)))
	}
	require.Equal(t, uint16(ADCFullScale), VoltageToCode(5))
	require.Zero(t, VoltageToCode(-1))
}

func TestRawToMilliG(t *testing.T) {
	require.Equal(t, 0, RawToMilliG(0))
	require.Equal(t, 977, RawToMilliG(1000))
	require.Equal(t, -977, RawToMilliG(-1000))
	require.Equal(t, 1, RawToMilliG(1.2))
}
