package link

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	xws "golang.org/x/net/websocket"

	"github.com/robotalks/diffbot/pkg/l1/comm"
	"github.com/robotalks/diffbot/pkg/l1/comm/websocket"
)

// Listener serves a websocket endpoint and exposes the connected peer
// as a line stream. A new peer replaces the previous one. Reads block
// until a peer is connected; writes without a peer are discarded.
type Listener struct {
	Addr string
	Path string

	lock   sync.Mutex
	cond   *sync.Cond
	peer   *peer
	closed bool
}

type peer struct {
	*comm.Lines
	done     chan struct{}
	doneOnce sync.Once
}

func (p *peer) release() {
	p.doneOnce.Do(func() {
		p.Lines.Close()
		close(p.done)
	})
}

// NewListener creates a Listener.
func NewListener(addr, path string) *Listener {
	if path == "" {
		path = "/"
	}
	l := &Listener{Addr: addr, Path: path}
	l.cond = sync.NewCond(&l.lock)
	return l
}

// Handler returns the websocket handler of the endpoint.
func (l *Listener) Handler() http.Handler {
	return xws.Handler(l.serve)
}

func (l *Listener) serve(conn *xws.Conn) {
	p := &peer{Lines: comm.NewLines(websocket.New(conn)), done: make(chan struct{})}
	l.lock.Lock()
	if l.closed {
		l.lock.Unlock()
		p.release()
		return
	}
	if l.peer != nil {
		l.peer.release()
	}
	l.peer = p
	l.cond.Broadcast()
	l.lock.Unlock()
	glog.Infof("link peer connected %s", conn.Request().RemoteAddr)
	// the connection is closed once the handler returns.
	<-p.done
}

func (l *Listener) drop(p *peer) {
	l.lock.Lock()
	if l.peer == p {
		l.peer = nil
	}
	l.lock.Unlock()
	p.release()
}

func (l *Listener) waitPeer() (*peer, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	for l.peer == nil && !l.closed {
		l.cond.Wait()
	}
	if l.closed {
		return nil, io.EOF
	}
	return l.peer, nil
}

// Connected tells whether a peer is connected.
func (l *Listener) Connected() bool {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.peer != nil
}

// Read implements io.Reader.
func (l *Listener) Read(buf []byte) (int, error) {
	for {
		p, err := l.waitPeer()
		if err != nil {
			return 0, err
		}
		n, err := p.Read(buf)
		if err == nil || n > 0 {
			return n, nil
		}
		glog.V(1).Infof("link peer lost: %v", err)
		l.drop(p)
	}
}

// Write implements io.Writer.
func (l *Listener) Write(buf []byte) (int, error) {
	l.lock.Lock()
	p := l.peer
	l.lock.Unlock()
	if p == nil {
		return len(buf), nil
	}
	if _, err := p.Write(buf); err != nil {
		glog.V(1).Infof("link peer write: %v", err)
		l.drop(p)
	}
	return len(buf), nil
}

// Close implements io.Closer.
func (l *Listener) Close() error {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.closed = true
	if l.peer != nil {
		l.peer.release()
		l.peer = nil
	}
	l.cond.Broadcast()
	return nil
}

// Run implements Runnable.
func (l *Listener) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle(l.Path, l.Handler())
	ln, err := net.Listen("tcp", l.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen %s", l.Addr)
	}
	glog.Infof("link listening on ws://%s%s", ln.Addr(), l.Path)
	server := &http.Server{Handler: mux}
	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(ln) }()
	select {
	case <-ctx.Done():
		server.Close()
		l.Close()
		<-errCh
		return ctx.Err()
	case err = <-errCh:
		l.Close()
		return err
	}
}
