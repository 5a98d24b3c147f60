package overkiz

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// StateListener is called after the states of a device event were applied.
type StateListener func(deviceURL string, states []State)

// Gateway talks to an Overkiz gateway that is bridged onto MQTT. Commands are
// published to <topic>/exec/apply, device events arrive on <topic>/events.
type Gateway struct {
	mqtt    mqtt.Client
	topic   string
	metrics *metrics

	mutex     sync.RWMutex
	devices   map[string]*Device
	listeners []StateListener
}

func NewGateway(mqttClient mqtt.Client, topic string, reg prometheus.Registerer) *Gateway {
	return &Gateway{
		mqtt:    mqttClient,
		topic:   topic,
		metrics: newMetrics(reg),
		devices: make(map[string]*Device),
	}
}

// Device returns the device with the given URL, creating its store on first use.
func (g *Gateway) Device(deviceURL string) *Device {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if d, ok := g.devices[deviceURL]; ok {
		return d
	}

	d := &Device{
		URL:     deviceURL,
		Store:   NewStore(),
		gateway: g,
	}
	g.devices[deviceURL] = d

	return d
}

// OnStateChange registers a listener for applied device events.
func (g *Gateway) OnStateChange(listener StateListener) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.listeners = append(g.listeners, listener)
}

// Execute submits a single command for a device. It returns once the gateway
// broker accepted the publish, not when the device finished executing.
func (g *Gateway) Execute(ctx context.Context, deviceURL string, name string, parameters ...interface{}) error {
	if parameters == nil {
		parameters = []interface{}{}
	}

	payload, err := json.Marshal(execution{
		Label: uuid.NewString(),
		Actions: []action{{
			DeviceURL: deviceURL,
			Commands:  []Command{{Name: name, Parameters: parameters}},
		}},
	})
	if err != nil {
		return fmt.Errorf("encoding %v: %w", name, err)
	}

	g.metrics.commandsTotal.WithLabelValues(name).Inc()

	t := g.mqtt.Publish(g.topic+"/exec/apply", 1, false, payload)
	select {
	case <-t.Done():
	case <-ctx.Done():
		g.metrics.commandErrorsTotal.WithLabelValues(name).Inc()
		return fmt.Errorf("submitting %v: %w", name, ctx.Err())
	}

	if err := t.Error(); err != nil {
		g.metrics.commandErrorsTotal.WithLabelValues(name).Inc()
		return fmt.Errorf("submitting %v: %w", name, err)
	}

	return nil
}

// SubscribeToEvents must be called from the MQTT OnConnect handler so the
// subscription survives reconnects.
func (g *Gateway) SubscribeToEvents(mqttClient mqtt.Client) {
	if t := mqttClient.Subscribe(g.topic+"/events", 0, func(client mqtt.Client, msg mqtt.Message) {
		g.HandleEvents(msg.Payload())
	}); t.Wait() && t.Error() != nil {
		log.Printf("MQTT receive error: %v", t.Error())
	}
}

// HandleEvents applies a JSON array of gateway events to the known devices.
// Events for unknown devices are ignored.
func (g *Gateway) HandleEvents(payload []byte) {
	var events []Event
	if err := json.Unmarshal(payload, &events); err != nil {
		g.metrics.eventErrorsTotal.Inc()
		log.Printf("Failed to decode events: %v", err)
		return
	}

	for _, event := range events {
		if event.Name != DeviceStateChangedEvent {
			continue
		}
		g.metrics.eventsTotal.Inc()

		g.mutex.RLock()
		device, ok := g.devices[event.DeviceURL]
		listeners := g.listeners
		g.mutex.RUnlock()

		if ok {
			device.Store.Apply(event.DeviceStates)
		}

		for _, listener := range listeners {
			listener(event.DeviceURL, event.DeviceStates)
		}
	}
}

// Device is a single Overkiz device: its state store plus a command executor
// bound to its URL.
type Device struct {
	URL   string
	Store *Store

	gateway *Gateway
}

func (d *Device) SelectState(name string) Value {
	return d.Store.SelectState(name)
}

func (d *Device) ExecuteCommand(ctx context.Context, name string, parameters ...interface{}) error {
	return d.gateway.Execute(ctx, d.URL, name, parameters...)
}

// BaseURL is the device URL without its sub-device suffix.
func (d *Device) BaseURL() string {
	return BaseDeviceURL(d.URL)
}
