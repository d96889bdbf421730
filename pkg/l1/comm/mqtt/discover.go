package mqtt

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/diffbot/pkg/l1"
)

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// robotList collects robots from retained meta messages.
type robotList struct {
	lock  sync.Mutex
	infos map[string]l1.Info
}

func (l *robotList) handle(topic string, payload []byte) {
	name := strings.TrimSuffix(topic, "/"+TopicMeta)
	ref, ok := l1.ParseRef(name)
	if !ok || name == topic {
		return
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	if len(payload) == 0 {
		delete(l.infos, name)
		return
	}
	info := l1.Info{Ref: ref}
	if err := json.Unmarshal(payload, &info); err != nil {
		glog.Warningf("bad meta of %s: %v", name, err)
	}
	info.Ref = ref
	if l.infos == nil {
		l.infos = make(map[string]l1.Info)
	}
	l.infos[name] = info
}

func (l *robotList) list() []l1.Info {
	l.lock.Lock()
	defer l.lock.Unlock()
	res := make([]l1.Info, 0, len(l.infos))
	for _, info := range l.infos {
		res = append(res, info)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Ref.Name() < res[j].Ref.Name() })
	return res
}

// Discover lists robots registered on a connected Queue, collecting
// meta messages for timeout.
func Discover(ctx context.Context, q *Queue, timeout time.Duration) ([]l1.Info, error) {
	if timeout <= 0 {
		timeout = DefaultDiscoverTimeout
	}
	var robots robotList
	sub := q.Sub("+/+/"+TopicMeta, Handler(robots.handle))
	defer sub.Close()
	select {
	case <-time.After(timeout):
		return robots.list(), nil
	case <-ctx.Done():
		return robots.list(), ctx.Err()
	}
}
