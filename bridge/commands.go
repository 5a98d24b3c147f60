package bridge

import (
	"context"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/victorjacobs/go-overkiz/climate"
	"github.com/victorjacobs/go-overkiz/homeassistant"
)

const commandTimeout = 30 * time.Second

type commandHandler func(ctx context.Context, payload string) error

// SubscribeToCommands must be called from the MQTT OnConnect handler so the
// subscriptions survive reconnects.
func (b *Bridge) SubscribeToCommands(mqttClient mqtt.Client) {
	homeAssistantClient := homeassistant.NewClient(mqttClient, b.cfg.HomeAssistantPrefix, b.cfg.TopicPrefix)

	for _, v := range b.ventilations {
		v := v
		b.subscribe(mqttClient, homeAssistantClient.Topic(v.uniqueId, "mode", "cmd"), &v.commands, func(ctx context.Context, payload string) error {
			return v.controller.SetHVACMode(climate.HVACMode(payload))
		})
		b.subscribe(mqttClient, homeAssistantClient.Topic(v.uniqueId, "fan_mode", "cmd"), &v.commands, func(ctx context.Context, payload string) error {
			return v.controller.SetFanMode(ctx, climate.FanMode(payload))
		})
		b.subscribe(mqttClient, homeAssistantClient.Topic(v.uniqueId, "preset_mode", "cmd"), &v.commands, func(ctx context.Context, payload string) error {
			return v.controller.SetPresetMode(ctx, climate.Preset(payload))
		})
	}

	for _, w := range b.waterHeaters {
		w := w
		b.subscribe(mqttClient, homeAssistantClient.Topic(w.uniqueId, "mode", "cmd"), &w.commands, func(ctx context.Context, payload string) error {
			return w.controller.SetOperationMode(ctx, climate.OperationMode(payload))
		})
		b.subscribe(mqttClient, homeAssistantClient.Topic(w.uniqueId, "temperature", "cmd"), &w.commands, func(ctx context.Context, payload string) error {
			return w.controller.SetTemperature(ctx, parseTemperatureRequest(payload))
		})
		b.subscribe(mqttClient, homeAssistantClient.Topic(w.uniqueId, "away_mode", "cmd"), &w.commands, func(ctx context.Context, payload string) error {
			switch payload {
			case "ON":
				return w.controller.TurnAwayModeOn(ctx)
			case "OFF":
				return w.controller.TurnAwayModeOff(ctx)
			default:
				log.Printf("Ignoring away mode %q", payload)
				return nil
			}
		})
	}
}

// subscribe runs handler for every message on topic. Handlers sharing lock
// never run concurrently, so command sequences of one device don't interleave.
func (b *Bridge) subscribe(mqttClient mqtt.Client, topic string, lock *sync.Mutex, handler commandHandler) {
	if t := mqttClient.Subscribe(topic, 0, func(client mqtt.Client, msg mqtt.Message) {
		payload := strings.TrimSpace(string(msg.Payload()))

		lock.Lock()
		defer lock.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		if err := handler(ctx, payload); err != nil {
			log.Printf("Command on %v failed: %v", topic, err)
		}
	}); t.Wait() && t.Error() != nil {
		log.Printf("MQTT receive error: %v", t.Error())
	}
}

// parseTemperatureRequest leaves the temperature unset when the payload isn't a
// number.
func parseTemperatureRequest(payload string) climate.SetTemperatureRequest {
	temperature, err := strconv.ParseFloat(payload, 64)
	if err != nil {
		log.Printf("Ignoring temperature %q: %v", payload, err)
		return climate.SetTemperatureRequest{}
	}

	return climate.SetTemperatureRequest{Temperature: &temperature}
}
