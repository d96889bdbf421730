package mqtt

import (
	"context"
	"io"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/diffbot/pkg/l1"
)

// DefaultBacklog is the number of received packets buffered for ReadPacket.
const DefaultBacklog = 16

// publisher is the part of Queue a ReadWriter writes with.
type publisher interface {
	Pub(topic string, payload []byte) paho.Token
}

// ReadWriter implements PacketReadWriter with one packet per message.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	pub       publisher
	packetCh  chan []byte
	closeOnce sync.Once
	done      chan struct{}
}

// NewPacketReadWriter creates the ReadWriter.
func NewPacketReadWriter(q *Queue) *ReadWriter {
	return &ReadWriter{
		Queue:    q,
		pub:      q,
		packetCh: make(chan []byte, DefaultBacklog),
		done:     make(chan struct{}),
	}
}

// WithTopics specifies the topics.
func (p *ReadWriter) WithTopics(sub, pub string) *ReadWriter {
	p.SubTopic, p.PubTopic = sub, pub
	return p
}

// ForHost sets topics for the host side of a robot link:
// SubTopic = type/id/msg
// PubTopic = type/id/cmd
func (p *ReadWriter) ForHost(ref l1.Ref) *ReadWriter {
	prefix := ref.Name()
	return p.WithTopics(prefix+"/msg", prefix+"/cmd")
}

// ForRobot sets topics for the robot side of a robot link:
// SubTopic = type/id/cmd
// PubTopic = type/id/msg
func (p *ReadWriter) ForRobot(ref l1.Ref) *ReadWriter {
	prefix := ref.Name()
	return p.WithTopics(prefix+"/cmd", prefix+"/msg")
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.packetCh:
		return pkt, nil
	case <-p.done:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.pub.Pub(p.PubTopic, pkt)
	token.Wait()
	return token.Error()
}

// Close implements io.Closer. Pending and later reads return io.EOF.
func (p *ReadWriter) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	return nil
}

// Run implements Runnable.
func (p *ReadWriter) Run(ctx context.Context) error {
	sub := p.Queue.Sub(p.SubTopic, Handler(p.HandleMsg))
	defer sub.Close()
	defer p.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return nil
	}
}

// HandleMsg queues a received payload. It never blocks the MQTT client;
// payloads beyond the backlog are dropped.
func (p *ReadWriter) HandleMsg(_ string, payload []byte) {
	select {
	case p.packetCh <- payload:
	default:
		glog.Warningf("MQTT %s backlog full, dropped %q", p.SubTopic, payload)
	}
}
