package mqtt

import (
	"io"
	"testing"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/diffbot/pkg/l1"
	"github.com/robotalks/diffbot/pkg/l1/comm"
)

type testPublisher struct {
	published map[string][]string
}

func (p *testPublisher) Pub(topic string, payload []byte) paho.Token {
	if p.published == nil {
		p.published = make(map[string][]string)
	}
	p.published[topic] = append(p.published[topic], string(payload))
	return &paho.DummyToken{}
}

func newTestReadWriter(t *testing.T) (*ReadWriter, *testPublisher) {
	q, err := NewQueueFromURL("mqtt://localhost:1883/robo/")
	require.NoError(t, err)
	pub := &testPublisher{}
	rw := NewPacketReadWriter(q)
	rw.pub = pub
	return rw, pub
}

func TestReadWriterTopics(t *testing.T) {
	ref := l1.Ref{Type: "diffbot", ID: "a"}
	rw, _ := newTestReadWriter(t)
	rw.ForRobot(ref)
	require.Equal(t, "diffbot/a/cmd", rw.SubTopic)
	require.Equal(t, "diffbot/a/msg", rw.PubTopic)
	rw.ForHost(ref)
	require.Equal(t, "diffbot/a/msg", rw.SubTopic)
	require.Equal(t, "diffbot/a/cmd", rw.PubTopic)
}

func TestReadWriterLines(t *testing.T) {
	rw, pub := newTestReadWriter(t)
	rw.ForRobot(l1.Ref{Type: "diffbot", ID: "a"})
	lines := comm.NewLines(rw)

	_, err := lines.Write([]byte("$MACK,1*\r\n$MDIST,40*\r\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"$MACK,1*", "$MDIST,40*"}, pub.published["diffbot/a/msg"])

	rw.HandleMsg("diffbot/a/cmd", []byte("$PCSTT,*"))
	buf := make([]byte, 32)
	n, err := lines.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "$PCSTT,*\r\n", string(buf[:n]))

	require.NoError(t, lines.Close())
	_, err = lines.Read(buf)
	require.Equal(t, io.EOF, err)
}

func TestReadWriterBacklog(t *testing.T) {
	rw, _ := newTestReadWriter(t)
	for i := 0; i < DefaultBacklog+5; i++ {
		rw.HandleMsg("x", []byte{byte('a' + i)})
	}
	for i := 0; i < DefaultBacklog; i++ {
		pkt, err := rw.ReadPacket()
		require.NoError(t, err)
		require.Equal(t, []byte{byte('a' + i)}, pkt)
	}
}
