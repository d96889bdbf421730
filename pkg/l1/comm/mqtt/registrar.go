package mqtt

import (
	"context"
	"encoding/json"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	fx "github.com/robotalks/diffbot/pkg/framework"
	"github.com/robotalks/diffbot/pkg/l1"
	"github.com/robotalks/diffbot/pkg/robot"
)

// Topic suffixes under the robot name.
const (
	TopicMeta   = "meta"
	TopicStatus = "status"
	TopicCmd    = "cmd"
	TopicMsg    = "msg"
)

// Registrar announces a robot with a retained meta message, cleared by
// the will when the robot goes away, and publishes status snapshots.
type Registrar struct {
	Queue *Queue
	Info  l1.Info

	metaJSON []byte
}

// NewRegistrar creates a Registrar.
func NewRegistrar(brokerURL string, info l1.Info) (*Registrar, error) {
	meta, err := json.Marshal(&info)
	if err != nil {
		return nil, errors.Wrap(err, "encode meta")
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	name := info.Ref.Name()
	opts.SetBinaryWill(topicPrefix+name+"/"+TopicMeta, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("robo:" + name)
	}
	r := &Registrar{
		Queue:    NewQueue(opts, topicPrefix),
		Info:     info,
		metaJSON: meta,
	}
	r.Queue.OnConnect = func(*Queue) { r.onConnected() }
	return r, nil
}

// Topic returns a topic under the robot name.
func (r *Registrar) Topic(suffix string) string {
	return r.Info.Ref.Name() + "/" + suffix
}

// ReportStatus implements robot.StatusReporter. The latest snapshot is
// retained on the broker.
func (r *Registrar) ReportStatus(s robot.Status) {
	payload, err := EncodeStatus(s)
	if err != nil {
		glog.Errorf("encode status: %v", err)
		return
	}
	r.Queue.PubWith(r.Topic(TopicStatus), payload, 0, true)
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(r)
}

// Run implements Runnable.
func (r *Registrar) Run(ctx context.Context) error {
	r.Queue.Connect()
	<-ctx.Done()
	r.Queue.PubWith(r.Topic(TopicMeta), nil, 1, true).Wait()
	r.Queue.Close()
	return nil
}

func (r *Registrar) onConnected() {
	glog.Infof("registered %s", r.Info.Ref.Name())
	r.Queue.PubWith(r.Topic(TopicMeta), r.metaJSON, 1, true)
}
