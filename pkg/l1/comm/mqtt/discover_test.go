package mqtt

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/diffbot/pkg/l1"
)

func TestRobotList(t *testing.T) {
	var robots robotList
	robots.handle("diffbot/b/meta", []byte(`{"meta":{"description":"second"}}`))
	robots.handle("diffbot/a/meta", []byte(`{"meta":{"description":"first","labels":{"room":"lab"}}}`))
	robots.handle("diffbot/c/meta", []byte(`not json`))
	robots.handle("diffbot/d/status", []byte(`{}`))
	robots.handle("bad/meta", []byte(`{}`))

	infos := robots.list()
	require.Len(t, infos, 3)
	require.Equal(t, l1.Ref{Type: "diffbot", ID: "a"}, infos[0].Ref)
	require.Equal(t, "first", infos[0].Meta.Description)
	require.Equal(t, "lab", infos[0].Meta.Labels["room"])
	require.Equal(t, "second", infos[1].Meta.Description)
	require.Equal(t, "diffbot/c", infos[2].Ref.Name())

	robots.handle("diffbot/b/meta", nil)
	require.Len(t, robots.list(), 2)
}
