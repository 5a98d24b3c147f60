package homeassistant

import (
	"encoding/json"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type doneToken struct{}

func (doneToken) Wait() bool                     { return true }
func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (doneToken) Error() error { return nil }

type fakeClient struct {
	mqtt.Client
	published map[string]interface{}
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	if c.published == nil {
		c.published = map[string]interface{}{}
	}
	c.published[topic] = payload
	return doneToken{}
}

func TestRegisterClimate(t *testing.T) {
	client := &fakeClient{}
	h := NewClient(client, "homeassistant", "overkiz")

	err := h.RegisterClimate(Climate{
		Name:            "Living VMC",
		DeviceURL:       "io://1234/5678#1",
		Modes:           []string{"fan_only"},
		FanModes:        []string{"auto", "bypass_boost"},
		PresetModes:     []string{"auto", "prog", "manual"},
		TemperatureUnit: "°C",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	payload, ok := client.published["homeassistant/climate/living_vmc/config"].([]byte)
	if !ok {
		t.Fatalf("expected discovery config, got %v", client.published)
	}

	var cfg climateConfiguration
	if err := json.Unmarshal(payload, &cfg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.FanModeCommandTopic != "overkiz/living_vmc/fan_mode/cmd" {
		t.Fatalf("unexpected fan mode command topic %q", cfg.FanModeCommandTopic)
	}
	if cfg.TemperatureUnit != "C" {
		t.Fatalf("unexpected unit %q", cfg.TemperatureUnit)
	}
	if cfg.Device == nil || cfg.Device.Identifiers[0] != "io://1234/5678#1" {
		t.Fatalf("unexpected device %+v", cfg.Device)
	}
}

func TestRegisterWaterHeaterAddsAwaySwitch(t *testing.T) {
	client := &fakeClient{}
	h := NewClient(client, "homeassistant", "overkiz")

	if err := h.RegisterWaterHeater(WaterHeater{Name: "Boiler", DeviceURL: "io://1/2#1", Modes: []string{"eco"}}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if _, ok := client.published["homeassistant/water_heater/boiler/config"]; !ok {
		t.Fatalf("expected water heater config")
	}
	payload, ok := client.published["homeassistant/switch/boiler_away_mode/config"].([]byte)
	if !ok {
		t.Fatalf("expected away mode switch config")
	}

	var cfg switchConfiguration
	if err := json.Unmarshal(payload, &cfg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.CommandTopic != "overkiz/boiler/away_mode/cmd" {
		t.Fatalf("unexpected command topic %q", cfg.CommandTopic)
	}
}

func TestRegisterSensor(t *testing.T) {
	client := &fakeClient{}
	h := NewClient(client, "homeassistant", "overkiz")

	stateTopic, err := h.RegisterSensor("VMC Temperature", "temperature", "°C")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if stateTopic != "overkiz/temperature/vmc_temperature" {
		t.Fatalf("unexpected state topic %q", stateTopic)
	}
	if _, ok := client.published["homeassistant/sensor/vmc_temperature/config"]; !ok {
		t.Fatalf("expected sensor config")
	}
}
