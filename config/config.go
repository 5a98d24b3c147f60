package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	DefaultHomeAssistantPrefix = "homeassistant"
	DefaultTopicPrefix         = "overkiz"
	DefaultGatewayTopic        = "overkiz/gateway"
	DefaultHTTPAddress         = ":8080"
)

type DeviceKind string

const (
	KindHeatRecoveryVentilation    DeviceKind = "heat_recovery_ventilation"
	KindDomesticHotWaterProduction DeviceKind = "domestic_hot_water_production"
)

type Configuration struct {
	Mqtt                Mqtt     `json:"mqtt"`
	GatewayTopic        string   `json:"gateway_topic"`
	TopicPrefix         string   `json:"topic_prefix"`
	HomeAssistantPrefix string   `json:"home_assistant_prefix"`
	HTTPAddress         string   `json:"http_address"`
	Devices             []Device `json:"devices"`
	Sensors             []Sensor `json:"sensors"`
}

type Mqtt struct {
	IpAddress string `json:"ip_address"`
	Port      int    `json:"port"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	ClientID  string `json:"client_id"`
}

// Device is a controlled appliance.
type Device struct {
	Name      string     `json:"name"`
	DeviceURL string     `json:"device_url"`
	Kind      DeviceKind `json:"kind"`
}

// Sensor is a reporting sub-device, e.g. the "#4" temperature sensor of a
// ventilation unit. State defaults to core:TemperatureState.
type Sensor struct {
	Name      string `json:"name"`
	DeviceURL string `json:"device_url"`
	State     string `json:"state,omitempty"`
}

func LoadConfiguration(filename string) (*Configuration, error) {
	var file *os.File
	var err error
	if file, err = os.Open(filename); err != nil {
		return nil, err
	}

	defer file.Close()
	decoder := json.NewDecoder(file)
	configuration := &Configuration{}
	if err := decoder.Decode(configuration); err != nil {
		return nil, fmt.Errorf("parsing %v: %w", filename, err)
	}

	configuration.applyDefaults()
	if err := configuration.Validate(); err != nil {
		return nil, err
	}

	return configuration, nil
}

func (c *Configuration) applyDefaults() {
	if c.GatewayTopic == "" {
		c.GatewayTopic = DefaultGatewayTopic
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = DefaultTopicPrefix
	}
	if c.HomeAssistantPrefix == "" {
		c.HomeAssistantPrefix = DefaultHomeAssistantPrefix
	}
	if c.HTTPAddress == "" {
		c.HTTPAddress = DefaultHTTPAddress
	}
	if c.Mqtt.Port == 0 {
		c.Mqtt.Port = 1883
	}
	if c.Mqtt.ClientID == "" {
		c.Mqtt.ClientID = "go-overkiz"
	}
}

func (c *Configuration) Validate() error {
	if c.Mqtt.IpAddress == "" {
		return fmt.Errorf("mqtt.ip_address is required")
	}

	seen := make(map[string]bool)
	for i, d := range c.Devices {
		if d.Name == "" {
			return fmt.Errorf("devices[%d].name is required", i)
		}
		if d.DeviceURL == "" {
			return fmt.Errorf("devices[%d].device_url is required", i)
		}
		switch d.Kind {
		case KindHeatRecoveryVentilation, KindDomesticHotWaterProduction:
		default:
			return fmt.Errorf("devices[%d]: unknown kind %q", i, d.Kind)
		}
		if seen[d.DeviceURL] {
			return fmt.Errorf("devices[%d]: duplicate device_url %v", i, d.DeviceURL)
		}
		seen[d.DeviceURL] = true
	}

	for i, s := range c.Sensors {
		if s.Name == "" || s.DeviceURL == "" {
			return fmt.Errorf("sensors[%d]: name and device_url are required", i)
		}
		if seen[s.DeviceURL] {
			return fmt.Errorf("sensors[%d]: duplicate device_url %v", i, s.DeviceURL)
		}
		seen[s.DeviceURL] = true
	}

	return nil
}

func (m *Mqtt) ClientOptions() *mqtt.ClientOptions {
	return mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%v:%v", m.IpAddress, m.Port)).
		SetClientID(m.ClientID).
		SetUsername(m.Username).
		SetPassword(m.Password).
		SetAutoReconnect(true).
		SetOrderMatters(false).
		SetConnectionLostHandler(func(client mqtt.Client, err error) {
			log.Printf("MQTT connection lost: %v", err)
		}).
		SetReconnectingHandler(func(client mqtt.Client, opts *mqtt.ClientOptions) {
			log.Printf("MQTT reconnecting")
		})
}
