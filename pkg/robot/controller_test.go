package robot

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/diffbot/pkg/drive"
	fx "github.com/robotalks/diffbot/pkg/framework"
	"github.com/robotalks/diffbot/pkg/l0/comm"
	"github.com/robotalks/diffbot/pkg/l0/msgs"
	"github.com/robotalks/diffbot/pkg/safety"
)

const (
	// 0.6V is about 0.64m, 2.0V about 0.14m.
	farVolts  = 0.6
	nearVolts = 2.0
)

type fakeHardware struct {
	distance float64
	battery  float64
	accel    [3]int16

	left, right int
	led, side   bool
	ledChanges  int
	sideChanges int
}

func (h *fakeHardware) ReadDistanceSample() float64 { return h.distance }
func (h *fakeHardware) ReadBatterySample() float64  { return h.battery }
func (h *fakeHardware) ReadAccelTriple() (x, y, z int16) {
	return h.accel[0], h.accel[1], h.accel[2]
}

func (h *fakeHardware) SetMotorDuty(left, right int) {
	h.left, h.right = left, right
}

func (h *fakeHardware) SetLED(on bool) {
	if on != h.led {
		h.ledChanges++
	}
	h.led = on
}

func (h *fakeHardware) SetSideIndicators(on bool) {
	if on != h.side {
		h.sideChanges++
	}
	h.side = on
}

func (h *fakeHardware) motors() drive.MotorCommand {
	return drive.MotorCommand{Left: h.left, Right: h.right}
}

type coreTestEnv struct {
	t     *testing.T
	hw    *fakeHardware
	port  bytes.Buffer
	clk   *clock.Mock
	loop  *fx.Loop
	core  *Controller
	lines []string
}

func newCoreTestEnv(t *testing.T, conf *Config) *coreTestEnv {
	if conf == nil {
		conf = NewConfig()
	}
	e := &coreTestEnv{
		t:   t,
		hw:  &fakeHardware{distance: farVolts, battery: 2.5},
		clk: clock.NewMock(),
	}
	uart := comm.NewUARTWith(&e.port, conf.UARTConfig())
	e.core = New(conf, e.hw, uart, e.clk)
	e.loop = &fx.Loop{Interval: conf.Interval, Clock: e.clk}
	e.loop.Add(e.core)
	return e
}

func (e *coreTestEnv) input(lines ...string) *coreTestEnv {
	for _, line := range lines {
		e.core.UART.Receive([]byte(line + "\r\n"))
	}
	return e
}

func (e *coreTestEnv) step(n int) *coreTestEnv {
	for i := 0; i < n; i++ {
		e.loop.Step(context.Background())
		require.NoError(e.t, e.core.UART.Flush())
		out := e.port.String()
		e.port.Reset()
		for _, line := range strings.Split(out, "\r\n") {
			if line != "" {
				e.lines = append(e.lines, line)
			}
		}
	}
	return e
}

// take returns and clears the lines sent so far.
func (e *coreTestEnv) take() []string {
	lines := e.lines
	e.lines = nil
	return lines
}

// takeMatching returns the sent lines starting with prefix and clears
// all sent lines.
func (e *coreTestEnv) takeMatching(prefix string) []string {
	var matched []string
	for _, line := range e.take() {
		if strings.HasPrefix(line, prefix) {
			matched = append(matched, line)
		}
	}
	return matched
}

func (e *coreTestEnv) state() safety.State {
	return e.core.Machine.State()
}

// quiet disables periodic telemetry so replies can be asserted exactly.
func quiet() *Config {
	conf := NewConfig()
	conf.AccelRate = 0
	conf.Periods.DistanceReport = 0
	conf.Periods.BatteryReport = 0
	return conf
}

func TestControllerStartsStopped(t *testing.T) {
	e := newCoreTestEnv(t, quiet())
	e.step(10)
	require.Equal(t, safety.WaitForStart, e.state())
	require.Equal(t, drive.Stopped, e.hw.motors())
	require.Empty(t, e.take())
}

func TestControllerReference(t *testing.T) {
	e := newCoreTestEnv(t, quiet())
	e.input("$PCREF,50,-20*").step(1)
	require.Empty(t, e.take())
	speed, yaw := e.core.Reference()
	require.Equal(t, int8(50), speed)
	require.Equal(t, int8(-20), yaw)
	require.Equal(t, drive.Stopped, e.hw.motors())

	e.input("$PCSTT,*").step(1)
	require.Equal(t, []string{"$MACK,1*"}, e.take())
	require.Equal(t, safety.Moving, e.state())
	require.Equal(t, drive.MotorCommand{Left: 5040, Right: 2160}, e.hw.motors())

	e.input("$PCREF,150,0*", "$PCREF,abc*").step(1)
	require.Empty(t, e.take())
	require.Equal(t, drive.MotorCommand{Left: 5040, Right: 2160}, e.hw.motors())

	e.input("$PCREF,100,100*").step(1)
	require.Equal(t, drive.MotorCommand{Left: 0, Right: 7200}, e.hw.motors())
	require.Equal(t, drive.MotorCommand{Left: 0, Right: 7200}, e.core.Output())
}

func TestControllerStopIdempotent(t *testing.T) {
	e := newCoreTestEnv(t, quiet())
	e.input("$PCREF,30,0*", "$PCSTT,*").step(1)
	require.Equal(t, []string{"$MACK,1*"}, e.take())
	require.NotEqual(t, drive.Stopped, e.hw.motors())

	e.input("$PCSTP,*").step(1)
	e.input("$PCSTP,*").step(1)
	require.Equal(t, []string{"$MACK,1*", "$MACK,1*"}, e.take())
	require.Equal(t, safety.WaitForStart, e.state())
	require.Equal(t, drive.Stopped, e.hw.motors())
	speed, _ := e.core.Reference()
	require.Equal(t, int8(30), speed)
}

func TestControllerEmergency(t *testing.T) {
	e := newCoreTestEnv(t, quiet())
	hold := int(e.core.Config.EmergencyHold / e.core.Config.Interval)
	require.Equal(t, 2500, hold)

	e.input("$PCREF,40,0*", "$PCSTT,*").step(1)
	require.Equal(t, safety.Moving, e.state())
	e.take()

	e.hw.distance = nearVolts
	e.step(1)
	require.Equal(t, safety.Emergency, e.state())
	require.Equal(t, drive.Stopped, e.hw.motors())
	require.Equal(t, []string{"$MEMRG,1*"}, e.take())

	e.step(100)
	require.Empty(t, e.take())

	e.input("$PCSTT,*", "$PCSTP,*").step(1)
	require.Equal(t, []string{"$MACK,0*", "$MACK,0*"}, e.take())
	require.Equal(t, safety.Emergency, e.state())

	e.hw.distance = farVolts
	e.step(hold - 10)
	e.hw.distance = nearVolts
	e.step(1)
	e.hw.distance = farVolts
	e.step(hold - 1)
	require.Equal(t, safety.Emergency, e.state())
	require.Empty(t, e.take())
	require.Equal(t, drive.Stopped, e.hw.motors())

	e.step(1)
	require.Equal(t, safety.WaitForStart, e.state())
	require.Equal(t, []string{"$MEMRG,0*"}, e.take())
	require.False(t, e.hw.side)

	e.step(10)
	require.Empty(t, e.take())
	require.Equal(t, drive.Stopped, e.hw.motors())
}

func TestControllerNearWhileWaiting(t *testing.T) {
	e := newCoreTestEnv(t, quiet())
	e.hw.distance = nearVolts
	e.step(10)
	require.Equal(t, safety.WaitForStart, e.state())
	require.Empty(t, e.take())

	// the obstacle wins over a start in the same tick.
	e.input("$PCSTT,*").step(1)
	require.Equal(t, []string{"$MACK,1*", "$MEMRG,1*"}, e.take())
	require.Equal(t, safety.Emergency, e.state())
	require.Equal(t, drive.Stopped, e.hw.motors())
}

func TestControllerSideIndicators(t *testing.T) {
	e := newCoreTestEnv(t, quiet())
	e.input("$PCSTT,*").step(1)
	e.hw.distance = nearVolts
	e.step(1)
	require.Equal(t, safety.Emergency, e.state())
	require.False(t, e.hw.side)

	// the entry tick counts toward the first blink.
	e.step(248)
	require.False(t, e.hw.side)
	e.step(1)
	require.True(t, e.hw.side)
	e.step(250)
	require.False(t, e.hw.side)
	e.step(250)
	require.True(t, e.hw.side)

	e.hw.distance = farVolts
	e.step(2500)
	require.Equal(t, safety.WaitForStart, e.state())
	require.False(t, e.hw.side)
	changes := e.hw.sideChanges
	e.step(1000)
	require.Equal(t, changes, e.hw.sideChanges)
}

func TestControllerReplies(t *testing.T) {
	tests := []struct {
		line  string
		reply []string
	}{
		{"$FOO*", []string{"$ERR,Unknown command*"}},
		{"hello", []string{"$ERR,Unknown command*"}},
		{"$RATE,3*", []string{"$ERR,1*"}},
		{"$RATE,x*", []string{"$ERR,1*"}},
		{"$RATE,5*", []string{"$OK*"}},
		{"$PCREF,1*", nil},
	}
	for _, test := range tests {
		t.Run(test.line, func(t *testing.T) {
			e := newCoreTestEnv(t, quiet())
			e.input(test.line).step(1)
			require.Equal(t, test.reply, e.take())
		})
	}
}

func TestControllerFrameOrder(t *testing.T) {
	e := newCoreTestEnv(t, quiet())
	e.input("$FOO*", "$PCSTT,*", "$RATE,2*", "$PCSTP,*").step(1)
	require.Equal(t, []string{"$ERR,Unknown command*", "$MACK,1*", "$OK*", "$MACK,1*"}, e.take())
	require.Equal(t, 2, e.core.AccelRate())
}

func TestControllerRepliesInArrivalOrder(t *testing.T) {
	conf := quiet()
	conf.FrameDepth = 8
	e := newCoreTestEnv(t, conf)
	e.input("$PCSTT,*", "$RATE,3*", "$FOO*", "$PCREF,10,0*", "$RATE,4*", "$PCSTP,*").step(1)
	require.Equal(t, []string{"$MACK,1*", "$ERR,1*", "$ERR,Unknown command*", "$OK*", "$MACK,1*"}, e.take())

	host := comm.NewClient(comm.NewUART(&bytes.Buffer{}))
	unknown := host.Do(&msgs.Unknown{Text: "$FOO*"})
	start := host.Do(&msgs.Start{})
	e.input(unknown.Msg().Line(), start.Msg().Line()).step(1)
	for _, line := range e.take() {
		host.HandleLine(line)
	}
	r := <-unknown.ResultChan()
	require.Equal(t, &comm.CommandError{Reason: msgs.ReasonUnknownCommand}, r.Err)
	r = <-start.ResultChan()
	require.NoError(t, r.Err)
	require.Equal(t, safety.Moving, e.state())
}

func TestControllerTelemetryRates(t *testing.T) {
	e := newCoreTestEnv(t, nil)
	e.step(500)
	lines := e.take()
	count := func(prefix string) (n int) {
		for _, line := range lines {
			if strings.HasPrefix(line, prefix) {
				n++
			}
		}
		return
	}
	require.Equal(t, 10, count("$MDIST,"))
	require.Equal(t, 1, count("$MBATT,"))
	require.Equal(t, 10, count("$MACC,"))
	require.Contains(t, lines, "$MDIST,64*")
	require.Contains(t, lines, "$MBATT,7.50*")
	require.Contains(t, lines, "$MACC,70,94,-983*")
	require.Equal(t, 1, e.hw.ledChanges)
	require.True(t, e.hw.led)

	e.input("$RATE,2*").step(500)
	require.Len(t, e.takeMatching("$MACC,"), 2)

	e.input("$RATE,0*").step(1000)
	require.Empty(t, e.takeMatching("$MACC,"))
	require.Equal(t, 4, e.hw.ledChanges)
}

func TestControllerButton(t *testing.T) {
	e := newCoreTestEnv(t, quiet())
	require.True(t, e.core.Button.Edge())
	e.step(1)
	require.Equal(t, safety.Moving, e.state())

	e.clk.Add(5 * time.Millisecond)
	require.False(t, e.core.Button.Edge())
	e.step(1)
	require.Equal(t, safety.Moving, e.state())

	e.clk.Add(20 * time.Millisecond)
	require.Eventually(t, e.core.Button.Armed, time.Second, time.Millisecond)
	require.True(t, e.core.Button.Edge())
	e.step(1)
	require.Equal(t, safety.WaitForStart, e.state())
	require.Empty(t, e.take())
}

func TestControllerButtonIgnoredInEmergency(t *testing.T) {
	e := newCoreTestEnv(t, quiet())
	e.input("$PCSTT,*").step(1)
	e.hw.distance = nearVolts
	e.step(1)
	require.Equal(t, safety.Emergency, e.state())

	require.True(t, e.core.Button.Edge())
	e.step(1)
	require.Equal(t, safety.Emergency, e.state())
	require.Equal(t, drive.Stopped, e.hw.motors())
}

func TestControllerStatusReporter(t *testing.T) {
	e := newCoreTestEnv(t, quiet())
	var reports []Status
	e.core.Reporters = append(e.core.Reporters, StatusReporterFunc(func(s Status) {
		reports = append(reports, s)
	}))
	e.input("$PCREF,10,5*", "$PCSTT,*").step(1000)
	require.Len(t, reports, 2)
	s := reports[1]
	require.Equal(t, uint64(1000), s.Tick)
	require.Equal(t, safety.Moving, s.State)
	require.Equal(t, int8(10), s.Speed)
	require.Equal(t, int8(5), s.Yaw)
	require.Equal(t, drive.MotorCommand{Left: 360, Right: 1080}, s.Motors)
	require.InDelta(t, 7.5, s.BatteryVolts, 1e-9)
	require.Equal(t, "Moving", s.Fields()["state"])
}

func TestControllerAccelLatest(t *testing.T) {
	conf := NewConfig()
	conf.AccelFilter = false
	e := newCoreTestEnv(t, conf)
	e.hw.accel = [3]int16{0, 0, 1024}
	e.step(45)
	e.hw.accel = [3]int16{0, 0, 0}
	e.step(5)
	require.Equal(t, []string{"$MACC,70,94,-983*"}, e.takeMatching("$MACC,"))
}
