package sh

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/diffbot/pkg/l0/comm"
	"github.com/robotalks/diffbot/pkg/l0/msgs"
	"github.com/robotalks/diffbot/pkg/l1"
)

func TestParseReference(t *testing.T) {
	msg, err := ParseReference([]string{"50", "-20"})
	require.NoError(t, err)
	require.Equal(t, &msgs.SetReference{Speed: 50, Yaw: -20}, msg)

	for _, args := range [][]string{
		nil,
		{"50"},
		{"101", "0"},
		{"0", "-101"},
		{"fast", "0"},
	} {
		_, err := ParseReference(args)
		require.Error(t, err, "%v", args)
	}
}

func TestParseRate(t *testing.T) {
	msg, err := ParseRate([]string{"5"})
	require.NoError(t, err)
	require.Equal(t, 5, msg.Hz)
	// the robot rejects it.
	msg, err = ParseRate([]string{"3"})
	require.NoError(t, err)
	require.Equal(t, 3, msg.Hz)

	_, err = ParseRate(nil)
	require.Error(t, err)
	_, err = ParseRate([]string{"x"})
	require.Error(t, err)
}

func TestParseWatch(t *testing.T) {
	cases := []struct {
		args     []string
		count    int
		duration time.Duration
		err      bool
	}{
		{count: 10},
		{args: []string{"3"}, count: 3},
		{args: []string{"2s"}, duration: 2 * time.Second},
		{args: []string{"5", "1m"}, count: 5, duration: time.Minute},
		{args: []string{"soon"}, err: true},
		{args: []string{"-1"}, err: true},
	}
	for _, c := range cases {
		count, duration, err := ParseWatch(c.args)
		if c.err {
			require.Error(t, err, "%v", c.args)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, c.count, count, "%v", c.args)
		require.Equal(t, c.duration, duration, "%v", c.args)
	}
}

func TestFormatInfo(t *testing.T) {
	info := l1.Info{Ref: l1.Ref{Type: "diffbot", ID: "r1"}}
	require.Equal(t, "diffbot/r1", FormatInfo(info))
	info.Meta.Description = "lab"
	require.Equal(t, "diffbot/r1: lab", FormatInfo(info))
}

func TestFormatResult(t *testing.T) {
	out, err := FormatResult(comm.Result{}, false)
	require.NoError(t, err)
	require.Equal(t, "OK", out)

	out, err = FormatResult(comm.Result{Reply: &msgs.Ack{Accepted: true}}, false)
	require.NoError(t, err)
	require.Equal(t, "$MACK,1*", out)

	_, err = FormatResult(comm.Result{Err: comm.ErrRejected, Reply: &msgs.Ack{}}, false)
	require.True(t, errors.Is(err, comm.ErrRejected))

	out, err = FormatResult(comm.Result{Err: comm.ErrRejected, Reply: &msgs.Ack{}}, true)
	require.NoError(t, err)
	require.JSONEq(t, `{"reply":"$MACK,0*","error":"`+comm.ErrRejected.Error()+`"}`, out)
}
