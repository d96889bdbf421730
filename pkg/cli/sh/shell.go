// Package sh provides the interactive host shell of the robot.
package sh

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/pkg/errors"

	fx "github.com/robotalks/diffbot/pkg/framework"
	"github.com/robotalks/diffbot/pkg/l0/comm"
	"github.com/robotalks/diffbot/pkg/l0/msgs"
	"github.com/robotalks/diffbot/pkg/l1"
	"github.com/robotalks/diffbot/pkg/l1/comm/mqtt"
	"github.com/robotalks/diffbot/pkg/l1/env"
	"github.com/robotalks/diffbot/pkg/link"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	LinkURL     string
	Timeout     time.Duration

	Shell *ishell.Shell
	Env   *env.Config
	Link  *HostLink
}

// HostLink is a running link with a command client.
type HostLink struct {
	Name   string
	Ctx    context.Context
	Cancel func()
	Conn   *link.Conn
	Client *comm.Client
	Done   chan error
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	linkURL    string
	timeout    = time.Second

	// commands
	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&ConnectCmd,
		&DisconnectCmd,
		&PortsCmd,
		&StartCmd,
		&StopCmd,
		&ReferenceCmd,
		&RateCmd,
		&WatchCmd,
	}
)

func init() {
	if val := os.Getenv("ROBO_LINK"); val != "" {
		linkURL = val
	}
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.StringVar(&linkURL, "link", linkURL, "Link URL to connect at start, e.g. serial:///dev/ttyUSB0, ws://host:8080/link.")
	flag.DurationVar(&timeout, "timeout", timeout, "Command reply timeout.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		LinkURL:     linkURL,
		Timeout:     timeout,

		Shell: ishell.New(),
		Env:   conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Link == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// FormatInfo prints robot Info into friendly string for display.
func FormatInfo(info l1.Info) string {
	var w bytes.Buffer
	fmt.Fprintf(&w, "%s", info.Ref.Name())
	if info.Meta.Description != "" {
		fmt.Fprintf(&w, ": %s", info.Meta.Description)
	}
	return w.String()
}

// FormatResult renders a command result for display.
func FormatResult(res comm.Result, asJSON bool) (string, error) {
	if asJSON {
		out := struct {
			Reply string `json:"reply,omitempty"`
			Error string `json:"error,omitempty"`
		}{}
		if res.Reply != nil {
			out.Reply = res.Reply.Line()
		}
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
		data, err := json.Marshal(out)
		return string(data), err
	}
	if res.Err != nil {
		return "", res.Err
	}
	if res.Reply == nil {
		return "OK", nil
	}
	return res.Reply.Line(), nil
}

// DoCommand sends a command and waits for result.
func DoCommand(c *ishell.Context, msg msgs.Command) error {
	s := ShellFrom(c)
	if s.Link == nil {
		err := fmt.Errorf("not connected")
		c.Err(err)
		return err
	}
	f := s.Link.Client.Do(msg)
	select {
	case res := <-f.ResultChan():
		out, err := FormatResult(res, s.OutputJSON)
		if err != nil {
			c.Err(err)
			return err
		}
		c.Println(out)
		return res.Err
	case <-time.After(s.Timeout):
		s.Link.Client.Cancel(f)
		c.Err(fmt.Errorf("command timeout"))
		return context.DeadlineExceeded
	}
}

// Brokers opens a Queue on the configured broker and connects it.
func (s *Shell) Brokers() (*mqtt.Queue, error) {
	q, err := mqtt.NewQueueFromURL(s.Env.BrokerURL())
	if err != nil {
		return nil, err
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		return nil, errors.Wrap(token.Error(), "MQTT connect")
	}
	return q, nil
}

// DiscoverRobots lists the robots registered on the broker.
func (s *Shell) DiscoverRobots(filter func(l1.Info) bool) ([]l1.Info, error) {
	q, err := s.Brokers()
	if err != nil {
		return nil, err
	}
	defer q.Close()
	infoList, err := mqtt.Discover(context.TODO(), q, 0)
	if err != nil {
		return nil, err
	}
	if filter != nil {
		items := make([]l1.Info, 0, len(infoList))
		for _, info := range infoList {
			if filter(info) {
				items = append(items, info)
			}
		}
		infoList = items
	}
	return infoList, nil
}

// SelectRobot discovers robots and asks for a choice.
func (s *Shell) SelectRobot(filter func(l1.Info) bool) (*l1.Info, error) {
	infoList, err := s.DiscoverRobots(filter)
	if err != nil {
		return nil, err
	}
	if len(infoList) == 0 {
		return nil, nil
	}
	var index int
	if len(infoList) > 1 {
		if !s.Interactive {
			return nil, fmt.Errorf("more than 1 robots discovered in non-interactive mode")
		}
		items := make([]string, len(infoList))
		for n, info := range infoList {
			items[n] = FormatInfo(info)
		}
		index = s.Shell.MultiChoice(items, "Which one to connect?")
	}
	return &infoList[index], nil
}

// Connect opens a link and starts the command client on it.
func (s *Shell) Connect(rawURL string, ref l1.Ref) error {
	conn, err := link.Open(rawURL, link.Options{Ref: ref, Host: true})
	if err != nil {
		return err
	}
	hl := &HostLink{
		Name:   rawURL,
		Conn:   conn,
		Client: comm.NewClient(comm.NewUART(conn)),
		Done:   make(chan error, 1),
	}
	if ref.IsValid() {
		hl.Name = ref.Name()
	}
	hl.Ctx, hl.Cancel = context.WithCancel(context.Background())
	s.Disconnect()
	s.Link = hl
	runnables := append([]fx.Runnable{hl.Client}, conn.Runnables...)
	go func() {
		err := fx.RunAll(hl.Ctx, runnables...)
		conn.Close()
		hl.Done <- err
	}()
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", hl.Name))
	return nil
}

// Disconnect disconnects the current link.
func (s *Shell) Disconnect() {
	if s.Link != nil {
		s.Link.Cancel()
		s.Link.Conn.Close()
		s.Link = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.LinkURL != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.LinkURL)
		}
		if err := s.Connect(s.LinkURL, s.Env.Info.Ref); err != nil {
			log.Fatalf("connect %q failed: %v", s.LinkURL, err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).Run(flag.Args()...)
}
