package bridge

const defaultSensorState = "core:TemperatureState"

var sensorDefinitions = map[string]sensorDefinition{
	"core:TemperatureState": {
		class: "temperature",
		unit:  "°C",
	},
	"core:RelativeHumidityState": {
		class: "humidity",
		unit:  "%",
	},
	"core:CO2ConcentrationState": {
		class: "carbon_dioxide",
		unit:  "ppm",
	},
}
