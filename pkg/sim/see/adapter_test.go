package see

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/diffbot/pkg/framework"
	"github.com/robotalks/diffbot/pkg/sim"
)

type seeTestEnv struct {
	t    *testing.T
	clk  *clock.Mock
	body *sim.Body
	out  bytes.Buffer
	loop *fx.Loop
}

func newSeeTestEnv(t *testing.T) *seeTestEnv {
	e := &seeTestEnv{t: t, clk: clock.NewMock()}
	conf := sim.NewConfig()
	conf.Obstacles = []sim.Rect{{Pos2D: sim.Pos2D{X: 3, Y: 1}, Size2D: sim.Size2D{CX: 0.5, CY: 0.5}}}
	e.body = conf.NewBody(e.clk)
	a := NewAdapter(e.body)
	a.Out = &e.out
	e.loop = &fx.Loop{Interval: 10 * time.Millisecond, Clock: e.clk}
	e.loop.Add(a)
	return e
}

// step advances one tick and returns the messages written.
func (e *seeTestEnv) step() []Message {
	e.clk.Add(e.loop.Interval)
	e.loop.Step(context.Background())
	out := strings.TrimSpace(e.out.String())
	e.out.Reset()
	if out == "" {
		return nil
	}
	var msgs []Message
	require.NoError(e.t, json.Unmarshal([]byte(out), &msgs))
	return msgs
}

func TestAdapterScene(t *testing.T) {
	e := newSeeTestEnv(t)
	msgs := e.step()
	require.Len(t, msgs, 4)
	require.Equal(t, ActionReset, msgs[0].Action)
	require.Equal(t, "arena", msgs[1].Object[PropID])
	require.Equal(t, map[string]interface{}{"x": 0.0, "y": 0.0, "w": 4000.0, "h": 3000.0}, msgs[1].Object[PropRect])
	require.Equal(t, "obstacle-0", msgs[2].Object[PropID])
	robot := msgs[3].Object
	require.Equal(t, RobotID, robot[PropID])
	require.Equal(t, map[string]interface{}{"x": 1000.0, "y": 1500.0}, robot[PropOrigin])
	require.Equal(t, "normal", robot[PropStyle])
}

func TestAdapterUpdates(t *testing.T) {
	e := newSeeTestEnv(t)
	e.step()
	// nothing changed.
	for i := 0; i < 10; i++ {
		require.Empty(t, e.step())
	}

	e.body.SetMotorDuty(3600, 3600)
	var updates []Message
	for i := 0; i < 10; i++ {
		updates = append(updates, e.step()...)
	}
	require.Len(t, updates, 2)
	require.Equal(t, "moving", updates[0].Object[PropStyle])

	e.body.SetSideIndicators(true)
	for i := 0; i < 5; i++ {
		updates = e.step()
	}
	require.Len(t, updates, 1)
	require.Equal(t, "emergency", updates[0].Object[PropStyle])
}
