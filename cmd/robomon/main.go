package main

import (
	"flag"
	"log"
	"strings"

	"github.com/robotalks/diffbot/pkg/l1/comm/mqtt"
	"github.com/robotalks/diffbot/pkg/l1/env"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(env.NewConfig().BrokerURL())
	if err != nil {
		log.Fatalln(err)
	}

	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		switch {
		case strings.HasSuffix(topic, "/"+mqtt.TopicMeta):
			if len(payload) == 0 {
				log.Printf("%s: gone", topic)
				return
			}
			log.Printf("%s: %s", topic, string(payload))
		case strings.HasSuffix(topic, "/"+mqtt.TopicStatus):
			out, err := mqtt.StatusJSON(payload)
			if err != nil {
				log.Printf("%s: bad status: %v", topic, err)
				return
			}
			log.Printf("%s: %s", topic, out)
		default:
			log.Printf("%s: %s", topic, strings.TrimSpace(string(payload)))
		}
	}))
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	<-(chan struct{})(nil)
}
