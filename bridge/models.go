package bridge

import (
	"sync"

	"github.com/victorjacobs/go-overkiz/climate"
)

type sensorDefinition struct {
	class string
	unit  string
}

type sensorEntity struct {
	name       string
	deviceURL  string
	state      string
	entityID   string
	definition sensorDefinition
	stateTopic string
}

type ventilationEntity struct {
	name       string
	uniqueId   string
	deviceURL  string
	controller *climate.Ventilation
	commands   sync.Mutex
}

type waterHeaterEntity struct {
	name       string
	uniqueId   string
	deviceURL  string
	controller *climate.WaterHeater
	commands   sync.Mutex
}

// VentilationState is the read side of a ventilation controller.
type VentilationState struct {
	Name               string   `json:"name"`
	DeviceURL          string   `json:"device_url"`
	HVACMode           string   `json:"hvac_mode"`
	FanMode            *string  `json:"fan_mode"`
	PresetMode         *string  `json:"preset_mode"`
	CurrentTemperature *float64 `json:"current_temperature"`
	SensorEntityID     *string  `json:"sensor_entity_id"`
}

// WaterHeaterState is the read side of a hot water controller.
type WaterHeaterState struct {
	Name                  string   `json:"name"`
	DeviceURL             string   `json:"device_url"`
	OperationMode         *string  `json:"operation_mode"`
	OperationModeError    string   `json:"operation_mode_error,omitempty"`
	AwayMode              bool     `json:"away_mode"`
	CurrentTemperature    *float64 `json:"current_temperature"`
	TargetTemperature     *float64 `json:"target_temperature"`
	TargetTemperatureLow  *float64 `json:"target_temperature_low"`
	TargetTemperatureHigh *float64 `json:"target_temperature_high"`
	MinTemp               *float64 `json:"min_temp"`
	MaxTemp               *float64 `json:"max_temp"`
}

type Snapshot struct {
	Ventilations []VentilationState `json:"ventilations"`
	WaterHeaters []WaterHeaterState `json:"water_heaters"`
}
