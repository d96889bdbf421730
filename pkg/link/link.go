// Package link opens the byte stream between the robot and its host.
package link

import (
	"context"
	"io"
	"net/url"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"go.bug.st/serial"

	fx "github.com/robotalks/diffbot/pkg/framework"
	"github.com/robotalks/diffbot/pkg/l1"
	"github.com/robotalks/diffbot/pkg/l1/comm"
	"github.com/robotalks/diffbot/pkg/l1/comm/mqtt"
	"github.com/robotalks/diffbot/pkg/l1/comm/websocket"
)

// DefaultBaudRate is the rate of the robot serial link.
const DefaultBaudRate = 9600

// Options customize Open.
type Options struct {
	// Ref selects the robot on MQTT links.
	Ref l1.Ref
	// Host opens the host end of the link: it writes commands and reads
	// telemetry.
	Host bool
	// Origin is the websocket origin when dialing.
	Origin string
}

// Conn is an opened link.
type Conn struct {
	io.ReadWriteCloser
	// URL is the parsed link URL.
	URL *url.URL
	// Runnables must be run for the link to work.
	Runnables []fx.Runnable
}

// Open opens a link from URL:
//
//	serial:///dev/ttyUSB0?baud=9600
//	ws://host:port/path          dial a websocket server
//	ws+listen://:port/path       serve one websocket peer at a time
//	mqtt://broker:1883/prefix/   lines over <prefix><type>/<id>/{cmd,msg}
//	stdio:
func Open(rawURL string, opts Options) (*Conn, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid link URL")
	}
	conn := &Conn{URL: u}
	switch u.Scheme {
	case "serial":
		conn.ReadWriteCloser, err = openSerial(u)
	case "ws", "wss":
		origin := opts.Origin
		if origin == "" {
			origin = "http://localhost/"
		}
		var rw *websocket.ReadWriter
		if rw, err = websocket.Dial(rawURL, origin); err == nil {
			conn.ReadWriteCloser = comm.NewLines(rw)
		}
	case "ws+listen":
		l := NewListener(u.Host, u.Path)
		conn.ReadWriteCloser = l
		conn.Runnables = append(conn.Runnables, l)
	case "mqtt", "mqtts":
		err = openMQTT(conn, rawURL, opts)
	case "stdio":
		conn.ReadWriteCloser = stdio{}
	default:
		err = errors.Errorf("unsupported link scheme %q", u.Scheme)
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// SerialMode parses the serial settings of a link URL.
func SerialMode(u *url.URL) (*serial.Mode, error) {
	mode := &serial.Mode{
		BaudRate: DefaultBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	if val := u.Query().Get("baud"); val != "" {
		baud, err := strconv.Atoi(val)
		if err != nil || baud <= 0 {
			return nil, errors.Errorf("invalid baud rate %q", val)
		}
		mode.BaudRate = baud
	}
	return mode, nil
}

func openSerial(u *url.URL) (io.ReadWriteCloser, error) {
	mode, err := SerialMode(u)
	if err != nil {
		return nil, err
	}
	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	if path == "" {
		return nil, errors.New("missing serial port")
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, errors.Wrapf(err, "open serial port %s", path)
	}
	return port, nil
}

// Ports lists the serial ports of the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

func openMQTT(conn *Conn, rawURL string, opts Options) error {
	if !opts.Ref.IsValid() {
		return errors.Errorf("invalid robot reference %q for MQTT link", opts.Ref.Name())
	}
	q, err := mqtt.NewQueueFromURL(rawURL)
	if err != nil {
		return err
	}
	rw := mqtt.NewPacketReadWriter(q)
	if opts.Host {
		rw.ForHost(opts.Ref)
	} else {
		rw.ForRobot(opts.Ref)
	}
	conn.ReadWriteCloser = &mqttLink{Lines: comm.NewLines(rw), queue: q}
	conn.Runnables = append(conn.Runnables, fx.RunFunc(func(ctx context.Context) error {
		if token := q.Connect(); token.Wait() && token.Error() != nil {
			return errors.Wrap(token.Error(), "MQTT connect")
		}
		return rw.Run(ctx)
	}))
	return nil
}

type mqttLink struct {
	*comm.Lines
	queue *mqtt.Queue
}

func (l *mqttLink) Close() error {
	l.Lines.Close()
	return l.queue.Close()
}

type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdio) Close() error                { return nil }
