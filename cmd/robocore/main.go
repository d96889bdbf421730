package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"

	fx "github.com/robotalks/diffbot/pkg/framework"
	"github.com/robotalks/diffbot/pkg/l0/comm"
	"github.com/robotalks/diffbot/pkg/l1/comm/mqtt"
	"github.com/robotalks/diffbot/pkg/l1/env"
	"github.com/robotalks/diffbot/pkg/link"
	"github.com/robotalks/diffbot/pkg/robot"
	"github.com/robotalks/diffbot/pkg/sim"
	"github.com/robotalks/diffbot/pkg/sim/see"
)

var (
	linkURL    = "ws+listen://:8080/link"
	configFile string
	register   bool
	visualize  bool
	bounces    = 3
)

func init() {
	if val := os.Getenv("ROBO_LINK"); val != "" {
		linkURL = val
	}
	flag.StringVar(&linkURL, "link", linkURL, "Host link URL: ws+listen://, ws://, serial://, mqtt:// or stdio:.")
	flag.StringVar(&configFile, "config", configFile, "YAML file overlaying the control settings.")
	flag.BoolVar(&register, "register", register, "Announce the robot and publish status on the MQTT broker.")
	flag.BoolVar(&visualize, "see", visualize, "Stream the arena to stdout for github.com/robotalks/see.")
	flag.IntVar(&bounces, "bounces", bounces, "Contact bounces of a simulated button press (SIGUSR1).")
	robot.SetupFlags()
	sim.SetupFlags()
	env.SetupFlags()
}

func main() {
	flag.Parse()

	conf := robot.NewConfig()
	if configFile != "" {
		if err := conf.LoadFile(configFile); err != nil {
			glog.Exit(err)
		}
	}
	if err := conf.Validate(); err != nil {
		glog.Exit(err)
	}
	envConf := env.NewConfig()
	ref, err := envConf.Ref()
	if err != nil {
		glog.Exit(err)
	}
	envConf.Info.Ref = ref

	clk := clock.New()
	body := sim.NewConfig().NewBody(clk)
	conn, err := link.Open(linkURL, link.Options{Ref: ref})
	if err != nil {
		glog.Exitf("open link %s: %v", linkURL, err)
	}
	defer conn.Close()

	ctl := robot.New(conf, body, comm.NewUARTWith(conn, conf.UARTConfig()), clk)
	body.ButtonEdge = ctl.Button.Edge

	loop := fx.NewLoop()
	loop.Interval, loop.Clock = conf.Interval, clk
	loop.Add(ctl).AddRunnable(conn.Runnables...)
	loop.AddRunnable(fx.NamedRun("button", fx.RunFunc(func(ctx context.Context) error {
		return pressOnSignal(ctx, body)
	})))
	if visualize {
		if conn.URL.Scheme == "stdio" {
			glog.Exit("-see cannot share stdout with a stdio link")
		}
		loop.Add(see.NewAdapter(body))
	}
	if register {
		reg, err := mqtt.NewRegistrar(envConf.BrokerURL(), envConf.Info)
		if err != nil {
			glog.Exit(err)
		}
		ctl.Reporters = append(ctl.Reporters, reg)
		loop.Add(reg)
	}

	glog.Infof("%s running, link %s", ref.Name(), linkURL)
	if err := fx.NewRunner().HandleSignals().Go(loop).Wait(); err != nil {
		glog.Exit(err)
	}
}

// pressOnSignal presses the simulated button on SIGUSR1.
func pressOnSignal(ctx context.Context, body *sim.Body) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGUSR1)
	defer signal.Stop(sigCh)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sigCh:
			glog.Infof("button pressed, %d edges accepted", body.Press(bounces))
		}
	}
}
