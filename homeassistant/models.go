package homeassistant

type deviceConfiguration struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Model        string   `json:"model,omitempty"`
}

type sensorConfiguration struct {
	UniqueId          string               `json:"unique_id"`
	Name              string               `json:"name"`
	DeviceClass       string               `json:"device_class,omitempty"`
	StateTopic        string               `json:"state_topic"`
	UnitOfMeasurement string               `json:"unit_of_measurement"`
	Device            *deviceConfiguration `json:"device,omitempty"`
}

type climateConfiguration struct {
	UniqueId                string               `json:"unique_id"`
	Name                    string               `json:"name"`
	Modes                   []string             `json:"modes"`
	ModeStateTopic          string               `json:"mode_state_topic"`
	ModeCommandTopic        string               `json:"mode_command_topic"`
	FanModes                []string             `json:"fan_modes"`
	FanModeStateTopic       string               `json:"fan_mode_state_topic"`
	FanModeCommandTopic     string               `json:"fan_mode_command_topic"`
	PresetModes             []string             `json:"preset_modes"`
	PresetModeStateTopic    string               `json:"preset_mode_state_topic"`
	PresetModeCommandTopic  string               `json:"preset_mode_command_topic"`
	CurrentTemperatureTopic string               `json:"current_temperature_topic"`
	TemperatureUnit         string               `json:"temperature_unit"`
	Device                  *deviceConfiguration `json:"device,omitempty"`
}

type waterHeaterConfiguration struct {
	UniqueId                string               `json:"unique_id"`
	Name                    string               `json:"name"`
	Modes                   []string             `json:"modes"`
	ModeStateTopic          string               `json:"mode_state_topic"`
	ModeCommandTopic        string               `json:"mode_command_topic"`
	TemperatureStateTopic   string               `json:"temperature_state_topic"`
	TemperatureCommandTopic string               `json:"temperature_command_topic"`
	CurrentTemperatureTopic string               `json:"current_temperature_topic"`
	MinTemp                 float64              `json:"min_temp,omitempty"`
	MaxTemp                 float64              `json:"max_temp,omitempty"`
	TemperatureUnit         string               `json:"temperature_unit"`
	Device                  *deviceConfiguration `json:"device,omitempty"`
}

type switchConfiguration struct {
	UniqueId     string               `json:"unique_id"`
	Name         string               `json:"name"`
	StateTopic   string               `json:"state_topic"`
	CommandTopic string               `json:"command_topic"`
	Device       *deviceConfiguration `json:"device,omitempty"`
}

// Climate describes a climate entity: a ventilation unit exposing an hvac
// mode, fan modes and presets.
type Climate struct {
	Name            string
	DeviceURL       string
	Modes           []string
	FanModes        []string
	PresetModes     []string
	TemperatureUnit string
}

// WaterHeater describes a water_heater entity together with its away mode
// switch.
type WaterHeater struct {
	Name            string
	DeviceURL       string
	Modes           []string
	MinTemp         float64
	MaxTemp         float64
	TemperatureUnit string
}
