package sh

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/diffbot/pkg/l0/msgs"
	"github.com/robotalks/diffbot/pkg/l1"
	"github.com/robotalks/diffbot/pkg/link"
)

// ParseReference parses the arguments of the ref command.
func ParseReference(args []string) (*msgs.SetReference, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("SPEED and YAW required")
	}
	var vals [2]int8
	for n, arg := range args {
		v, err := strconv.Atoi(arg)
		if err != nil || v < msgs.ReferenceMin || v > msgs.ReferenceMax {
			return nil, fmt.Errorf("invalid reference %q, expect %d..%d", arg, msgs.ReferenceMin, msgs.ReferenceMax)
		}
		vals[n] = int8(v)
	}
	return &msgs.SetReference{Speed: vals[0], Yaw: vals[1]}, nil
}

// ParseRate parses the argument of the rate command. Unsupported rates
// are passed through for the robot to reject.
func ParseRate(args []string) (*msgs.SetRate, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("HZ required")
	}
	hz, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q", args[0])
	}
	return &msgs.SetRate{Hz: hz}, nil
}

// ParseWatch parses the arguments of the watch command: an optional
// event count and an optional duration.
func ParseWatch(args []string) (count int, duration time.Duration, err error) {
	for _, arg := range args {
		if n, e := strconv.Atoi(arg); e == nil && n > 0 {
			count = n
			continue
		}
		if d, e := time.ParseDuration(arg); e == nil && d > 0 {
			duration = d
			continue
		}
		return 0, 0, fmt.Errorf("invalid argument %q, expect COUNT or DURATION", arg)
	}
	if count == 0 && duration == 0 {
		count = 10
	}
	return
}

var (
	// DiscoverCmd discovers robots on the MQTT broker.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			infoList, err := s.DiscoverRobots(nil)
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				type item struct {
					Name string  `json:"name"`
					Meta l1.Meta `json:"meta"`
				}
				// empty slice rather than null.
				items := make([]item, 0, len(infoList))
				for _, info := range infoList {
					items = append(items, item{Name: info.Ref.Name(), Meta: info.Meta})
				}
				out, err := json.Marshal(items)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			if len(infoList) == 0 {
				c.Println("No robots found")
				return
			}
			for _, info := range infoList {
				c.Println(FormatInfo(info))
			}
		},
	}

	// ConnectCmd connects a robot.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[URL] [TYPE/ID]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			rawURL, ref := s.LinkURL, s.Env.Info.Ref
			for _, arg := range c.Args {
				if r, ok := l1.ParseRef(arg); ok && !strings.Contains(arg, ":") {
					ref = r
				} else {
					rawURL = arg
				}
			}
			if rawURL == "" {
				rawURL = s.Env.BrokerURL()
			}
			if strings.HasPrefix(rawURL, "mqtt") && !ref.IsValid() {
				var filter func(l1.Info) bool
				if ref.Type != "" {
					filter = func(info l1.Info) bool { return info.Ref.Type == ref.Type }
				}
				info, err := s.SelectRobot(filter)
				if err != nil {
					c.Err(err)
					return
				}
				if info == nil {
					c.Err(fmt.Errorf("no robot discovered"))
					return
				}
				ref = info.Ref
			}
			if err := s.Connect(rawURL, ref); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current robot.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name: "ports",
		Help: "",
		Func: func(c *ishell.Context) {
			ports, err := link.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			for _, port := range ports {
				c.Println("serial://" + port)
			}
		},
	}

	// StartCmd requests motion.
	StartCmd = ishell.Cmd{
		Name:    "start",
		Aliases: []string{"go"},
		Help:    "",
		Func: MustBeConnected(func(c *ishell.Context) {
			DoCommand(c, &msgs.Start{})
		}),
	}

	// StopCmd requests stop.
	StopCmd = ishell.Cmd{
		Name: "stop",
		Help: "",
		Func: MustBeConnected(func(c *ishell.Context) {
			DoCommand(c, &msgs.Stop{})
		}),
	}

	// ReferenceCmd sets the speed and yaw reference.
	ReferenceCmd = ishell.Cmd{
		Name:    "ref",
		Aliases: []string{"r"},
		Help:    "SPEED YAW (-100..100)",
		Func: MustBeConnected(func(c *ishell.Context) {
			msg, err := ParseReference(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			DoCommand(c, msg)
		}),
	}

	// RateCmd sets the acceleration report rate.
	RateCmd = ishell.Cmd{
		Name: "rate",
		Help: "HZ (0 1 2 4 5 10)",
		Func: MustBeConnected(func(c *ishell.Context) {
			msg, err := ParseRate(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			DoCommand(c, msg)
		}),
	}

	// WatchCmd prints telemetry.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[COUNT] [DURATION]",
		Func: MustBeConnected(func(c *ishell.Context) {
			count, duration, err := ParseWatch(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			hl := ShellFrom(c).Link
			var deadline <-chan time.Time
			if duration > 0 {
				timer := time.NewTimer(duration)
				defer timer.Stop()
				deadline = timer.C
			}
			for n := 0; count == 0 || n < count; n++ {
				select {
				case msg := <-hl.Client.EventChan():
					c.Println(msg.Line())
				case err := <-hl.Done:
					hl.Done <- err
					if err != nil {
						c.Err(err)
					}
					return
				case <-deadline:
					return
				}
			}
		}),
	}
)
