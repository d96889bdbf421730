package mqtt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/diffbot/pkg/drive"
	"github.com/robotalks/diffbot/pkg/robot"
	"github.com/robotalks/diffbot/pkg/safety"
	"github.com/robotalks/diffbot/pkg/sensors"
)

func TestEncodeStatus(t *testing.T) {
	s := robot.Status{
		Tick:         500,
		State:        safety.Moving,
		Speed:        50,
		Yaw:          -20,
		Motors:       drive.MotorCommand{Left: 5040, Right: 2160},
		Distance:     0.5,
		BatteryVolts: 7.5,
		Accel:        sensors.Vector3{X: 1, Y: 2, Z: 3},
		AccelRate:    10,
		LED:          true,
	}
	payload, err := EncodeStatus(s)
	require.NoError(t, err)

	st, err := DecodeStatus(payload)
	require.NoError(t, err)
	require.Equal(t, "Moving", st.Fields["state"].GetStringValue())
	require.Equal(t, 5040.0, st.Fields["left"].GetNumberValue())
	require.True(t, st.Fields["led"].GetBoolValue())
	require.Equal(t, 3.0, st.Fields["accel"].GetStructValue().Fields["z"].GetNumberValue())

	text, err := StatusJSON(payload)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text), &decoded))
	require.Equal(t, "Moving", decoded["state"])
	require.Equal(t, -20.0, decoded["yaw"])

	_, err = DecodeStatus([]byte{0xff, 0xff})
	require.Error(t, err)
}

func TestNewStruct(t *testing.T) {
	st, err := NewStruct(map[string]interface{}{
		"n":    nil,
		"i":    3,
		"list": []interface{}{"a", 1.5, false},
	})
	require.NoError(t, err)
	require.Len(t, st.Fields["list"].GetListValue().Values, 3)
	require.Equal(t, 3.0, st.Fields["i"].GetNumberValue())

	_, err = NewStruct(map[string]interface{}{"bad": struct{}{}})
	require.Error(t, err)
}
