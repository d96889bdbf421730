package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"os"

	"github.com/golang/glog"

	fx "github.com/robotalks/diffbot/pkg/framework"
	"github.com/robotalks/diffbot/pkg/joystick"
	"github.com/robotalks/diffbot/pkg/l0/comm"
	"github.com/robotalks/diffbot/pkg/l1/env"
	"github.com/robotalks/diffbot/pkg/link"
)

var linkURL = "ws://localhost:8080/link"

func init() {
	if val := os.Getenv("ROBO_LINK"); val != "" {
		linkURL = val
	}
	flag.StringVar(&linkURL, "link", linkURL, "Robot link URL.")
	env.SetupFlags()
	joystick.SetupFlags()
}

func main() {
	flag.Parse()

	conn, err := link.Open(linkURL, link.Options{Ref: env.NewConfig().Info.Ref, Host: true})
	if err != nil {
		glog.Exitf("open link %s: %v", linkURL, err)
	}
	defer conn.Close()
	client := comm.NewClient(comm.NewUART(conn))
	teleop := joystick.NewTeleop(joystick.NewConfig(), client)

	loop := fx.NewLoop().Add(teleop)
	loop.AddRunnable(client).AddRunnable(conn.Runnables...)
	if err := fx.NewRunner().HandleSignals().Go(loop).Wait(); err != nil {
		glog.Exit(err)
	}
}
