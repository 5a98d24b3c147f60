package homeassistant

import (
	"encoding/json"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Client publishes MQTT discovery configurations and entity states.
type Client struct {
	mqtt            mqtt.Client
	discoveryPrefix string
	topicPrefix     string
}

func NewClient(mqtt mqtt.Client, discoveryPrefix, topicPrefix string) *Client {
	return &Client{
		mqtt:            mqtt,
		discoveryPrefix: discoveryPrefix,
		topicPrefix:     topicPrefix,
	}
}

// UniqueID turns a display name into an id usable in topics.
func UniqueID(name string) string {
	return strings.Replace(strings.ToLower(name), " ", "_", -1)
}

// Topic builds <prefix>/<uniqueId>/<parts...>.
func (h *Client) Topic(uniqueId string, parts ...string) string {
	return strings.Join(append([]string{h.topicPrefix, uniqueId}, parts...), "/")
}

func (h *Client) RegisterClimate(c Climate) error {
	uniqueId := UniqueID(c.Name)

	return h.publishConfig("climate", uniqueId, climateConfiguration{
		UniqueId:                uniqueId,
		Name:                    c.Name,
		Modes:                   c.Modes,
		ModeStateTopic:          h.Topic(uniqueId, "mode", "state"),
		ModeCommandTopic:        h.Topic(uniqueId, "mode", "cmd"),
		FanModes:                c.FanModes,
		FanModeStateTopic:       h.Topic(uniqueId, "fan_mode", "state"),
		FanModeCommandTopic:     h.Topic(uniqueId, "fan_mode", "cmd"),
		PresetModes:             c.PresetModes,
		PresetModeStateTopic:    h.Topic(uniqueId, "preset_mode", "state"),
		PresetModeCommandTopic:  h.Topic(uniqueId, "preset_mode", "cmd"),
		CurrentTemperatureTopic: h.Topic(uniqueId, "current_temperature", "state"),
		TemperatureUnit:         temperatureUnit(c.TemperatureUnit),
		Device:                  device(c.Name, c.DeviceURL, "Heat recovery ventilation"),
	})
}

// RegisterWaterHeater registers the water heater and its away mode switch.
func (h *Client) RegisterWaterHeater(w WaterHeater) error {
	uniqueId := UniqueID(w.Name)
	dev := device(w.Name, w.DeviceURL, "Domestic hot water production")

	if err := h.publishConfig("water_heater", uniqueId, waterHeaterConfiguration{
		UniqueId:                uniqueId,
		Name:                    w.Name,
		Modes:                   w.Modes,
		ModeStateTopic:          h.Topic(uniqueId, "mode", "state"),
		ModeCommandTopic:        h.Topic(uniqueId, "mode", "cmd"),
		TemperatureStateTopic:   h.Topic(uniqueId, "temperature", "state"),
		TemperatureCommandTopic: h.Topic(uniqueId, "temperature", "cmd"),
		CurrentTemperatureTopic: h.Topic(uniqueId, "current_temperature", "state"),
		MinTemp:                 w.MinTemp,
		MaxTemp:                 w.MaxTemp,
		TemperatureUnit:         temperatureUnit(w.TemperatureUnit),
		Device:                  dev,
	}); err != nil {
		return err
	}

	awayId := uniqueId + "_away_mode"

	return h.publishConfig("switch", awayId, switchConfiguration{
		UniqueId:     awayId,
		Name:         w.Name + " Away Mode",
		StateTopic:   h.Topic(uniqueId, "away_mode", "state"),
		CommandTopic: h.Topic(uniqueId, "away_mode", "cmd"),
		Device:       dev,
	})
}

func (h *Client) RegisterSensor(name string, class string, unit string) (string, error) {
	uniqueId := UniqueID(name)

	var stateTopic string
	if class == "" {
		stateTopic = fmt.Sprintf("%v/%v", h.topicPrefix, uniqueId)
	} else {
		stateTopic = fmt.Sprintf("%v/%v/%v", h.topicPrefix, class, uniqueId)
	}

	if err := h.publishConfig("sensor", uniqueId, sensorConfiguration{
		UniqueId:          uniqueId,
		Name:              name,
		DeviceClass:       class,
		StateTopic:        stateTopic,
		UnitOfMeasurement: unit,
	}); err != nil {
		return "", err
	}

	return stateTopic, nil
}

// PublishState publishes a retained state value.
func (h *Client) PublishState(topic string, value string) error {
	if t := h.mqtt.Publish(topic, 0, true, value); t.Wait() && t.Error() != nil {
		return t.Error()
	}

	return nil
}

func (h *Client) publishConfig(component string, uniqueId string, configuration interface{}) error {
	payload, err := json.Marshal(configuration)
	if err != nil {
		return err
	}

	configTopic := fmt.Sprintf("%v/%v/%v/config", h.discoveryPrefix, component, uniqueId)

	if t := h.mqtt.Publish(configTopic, 0, true, payload); t.Wait() && t.Error() != nil {
		return t.Error()
	}

	return nil
}

func device(name, deviceURL, model string) *deviceConfiguration {
	return &deviceConfiguration{
		Identifiers:  []string{deviceURL},
		Name:         name,
		Manufacturer: "Atlantic",
		Model:        model,
	}
}

func temperatureUnit(unit string) string {
	if unit == "°C" {
		return "C"
	}

	return unit
}
