package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/victorjacobs/go-overkiz/bridge"
	"github.com/victorjacobs/go-overkiz/config"
	"github.com/victorjacobs/go-overkiz/overkiz"
	"github.com/victorjacobs/go-overkiz/routes"
)

func main() {
	configFile := flag.String("config", "overkiz.json", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfiguration(*configFile)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
		return
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var b *bridge.Bridge
	var gateway *overkiz.Gateway

	mqttOpts := cfg.Mqtt.ClientOptions()
	// Configure MQTT subscriptions in the ConnectHandler to make sure they are set up after reconnect
	mqttOpts.SetOnConnectHandler(func(client mqtt.Client) {
		gateway.SubscribeToEvents(client)
		b.SubscribeToCommands(client)
	})

	mqttClient := mqtt.NewClient(mqttOpts)
	gateway = overkiz.NewGateway(mqttClient, cfg.GatewayTopic, reg)

	b, err = bridge.New(cfg, gateway)
	if err != nil {
		log.Fatalf("Error setting up bridge: %v", err)
		return
	}
	defer b.Close()

	if t := mqttClient.Connect(); t.Wait() && t.Error() != nil {
		log.Printf("MQTT connection error: %v", t.Error())
		return
	}

	if err := b.RegisterEntities(mqttClient); err != nil {
		log.Printf("Registering entities failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	err = b.Start(ctx)
	cancel()
	if err != nil {
		log.Fatalf("Error starting bridge: %v", err)
		return
	}

	go loopSafely("state poller", func() {
		b.PollStates(mqttClient)

		time.Sleep(1 * time.Second)
	})

	router := routes.NewRouter(b, reg)

	go loopSafely("http server", func() {
		if err := http.ListenAndServe(cfg.HTTPAddress, router); err != nil {
			log.Printf("HTTP server failed: %v", err)
		}
		time.Sleep(time.Second)
	})

	select {}
}
