package bridge

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/victorjacobs/go-overkiz/climate"
	"github.com/victorjacobs/go-overkiz/config"
	"github.com/victorjacobs/go-overkiz/entity"
	"github.com/victorjacobs/go-overkiz/homeassistant"
	"github.com/victorjacobs/go-overkiz/overkiz"
	"golang.org/x/sync/errgroup"
)

type Bridge struct {
	cfg      *config.Configuration
	gateway  *overkiz.Gateway
	registry *entity.Registry
	states   *entity.Machine

	ventilations []*ventilationEntity
	waterHeaters []*waterHeaterEntity
	sensors      map[string]*sensorEntity

	mutex         sync.Mutex
	lastPublished map[string]string
	lastErrors    map[string]string
	lastBounds    map[string]string
}

// unknownPayload resets a Home Assistant mode to unknown.
const unknownPayload = "None"

func New(cfg *config.Configuration, gateway *overkiz.Gateway) (*Bridge, error) {
	b := &Bridge{
		cfg:           cfg,
		gateway:       gateway,
		registry:      entity.NewRegistry(),
		states:        entity.NewMachine(),
		sensors:       make(map[string]*sensorEntity),
		lastPublished: make(map[string]string),
		lastErrors:    make(map[string]string),
		lastBounds:    make(map[string]string),
	}

	for _, s := range cfg.Sensors {
		state := s.State
		if state == "" {
			state = defaultSensorState
		}
		definition, ok := sensorDefinitions[state]
		if !ok {
			return nil, fmt.Errorf("sensor %v: unsupported state %v", s.Name, state)
		}

		sensor := &sensorEntity{
			name:       s.Name,
			deviceURL:  s.DeviceURL,
			state:      state,
			entityID:   entity.EntityID("sensor", s.Name),
			definition: definition,
		}
		if err := b.registry.Register(entity.Entry{EntityID: sensor.entityID, UniqueID: s.DeviceURL, Name: s.Name}); err != nil {
			return nil, err
		}
		b.sensors[s.DeviceURL] = sensor
	}

	for _, d := range cfg.Devices {
		device := gateway.Device(d.DeviceURL)

		switch d.Kind {
		case config.KindHeatRecoveryVentilation:
			b.ventilations = append(b.ventilations, &ventilationEntity{
				name:       d.Name,
				uniqueId:   homeassistant.UniqueID(d.Name),
				deviceURL:  d.DeviceURL,
				controller: climate.NewVentilation(device, d.DeviceURL, b.registry, b.states),
			})
		case config.KindDomesticHotWaterProduction:
			b.waterHeaters = append(b.waterHeaters, &waterHeaterEntity{
				name:       d.Name,
				uniqueId:   homeassistant.UniqueID(d.Name),
				deviceURL:  d.DeviceURL,
				controller: climate.NewWaterHeater(device),
			})
		default:
			return nil, fmt.Errorf("device %v: unknown kind %v", d.Name, d.Kind)
		}
		log.Printf("Configured %v (%v)", d.Name, d.Kind)
	}

	gateway.OnStateChange(b.handleDeviceStates)

	return b, nil
}

// Start activates all controllers and then marks startup as complete.
func (b *Bridge) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, v := range b.ventilations {
		v := v
		g.Go(func() error {
			v.controller.Activate(ctx)
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	b.states.Ready()

	return nil
}

func (b *Bridge) Close() {
	for _, v := range b.ventilations {
		v.controller.Close()
	}
}

// handleDeviceStates feeds sensor sub-device states into the entity states.
func (b *Bridge) handleDeviceStates(deviceURL string, states []overkiz.State) {
	sensor, ok := b.sensors[deviceURL]
	if !ok {
		return
	}

	for _, s := range states {
		if s.Name != sensor.state {
			continue
		}

		value, err := s.Decode()
		if err != nil {
			log.Printf("Sensor %v: %v", sensor.name, err)
			continue
		}

		if value == nil {
			b.states.Set(sensor.entityID, entity.StateUnknown, sensor.definition.unit)
			continue
		}
		b.states.Set(sensor.entityID, formatValue(value), sensor.definition.unit)
	}
}

func (b *Bridge) RegisterEntities(mqttClient mqtt.Client) error {
	homeAssistantClient := homeassistant.NewClient(mqttClient, b.cfg.HomeAssistantPrefix, b.cfg.TopicPrefix)

	for _, v := range b.ventilations {
		if err := homeAssistantClient.RegisterClimate(homeassistant.Climate{
			Name:            v.name,
			DeviceURL:       v.deviceURL,
			Modes:           stringsOf(v.controller.HVACModes()),
			FanModes:        stringsOf(v.controller.FanModes()),
			PresetModes:     stringsOf(v.controller.PresetModes()),
			TemperatureUnit: v.controller.TemperatureUnit(),
		}); err != nil {
			return err
		}
		log.Printf("Registered climate %v", v.name)
	}

	for _, w := range b.waterHeaters {
		if err := b.registerWaterHeater(homeAssistantClient, w); err != nil {
			return err
		}
		log.Printf("Registered water heater %v", w.name)
	}

	for _, s := range b.sensors {
		stateTopic, err := homeAssistantClient.RegisterSensor(s.name, s.definition.class, s.definition.unit)
		if err != nil {
			return err
		}
		log.Printf("Registered sensor %v", s.name)
		s.stateTopic = stateTopic
	}

	return nil
}

// registerWaterHeater publishes the discovery config with the current
// temperature bounds and remembers them.
func (b *Bridge) registerWaterHeater(homeAssistantClient *homeassistant.Client, w *waterHeaterEntity) error {
	minTemp, _ := w.controller.MinTemp()
	maxTemp, _ := w.controller.MaxTemp()

	if err := homeAssistantClient.RegisterWaterHeater(homeassistant.WaterHeater{
		Name:            w.name,
		DeviceURL:       w.deviceURL,
		Modes:           stringsOf(w.controller.OperationList()),
		MinTemp:         minTemp,
		MaxTemp:         maxTemp,
		TemperatureUnit: w.controller.TemperatureUnit(),
	}); err != nil {
		return err
	}

	b.mutex.Lock()
	b.lastBounds[w.uniqueId] = boundsKey(minTemp, maxTemp)
	b.mutex.Unlock()

	return nil
}

// refreshWaterHeaterBounds republishes the discovery config once the
// temperature bounds differ from the registered ones.
func (b *Bridge) refreshWaterHeaterBounds(homeAssistantClient *homeassistant.Client, w *waterHeaterEntity) {
	b.mutex.Lock()
	last, registered := b.lastBounds[w.uniqueId]
	b.mutex.Unlock()
	if !registered {
		return
	}

	minTemp, _ := w.controller.MinTemp()
	maxTemp, _ := w.controller.MaxTemp()
	if boundsKey(minTemp, maxTemp) == last {
		return
	}

	if err := b.registerWaterHeater(homeAssistantClient, w); err != nil {
		log.Printf("Updating %v bounds failed: %v", w.name, err)
		return
	}
	log.Printf("Updated %v bounds to %v..%v", w.name, formatFloat(minTemp), formatFloat(maxTemp))
}

// logOnChange logs err for key unless it was the last error logged for it.
func (b *Bridge) logOnChange(key string, err string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.lastErrors[key] == err {
		return
	}
	if err == "" {
		delete(b.lastErrors, key)
		return
	}
	b.lastErrors[key] = err
	log.Printf("%v: %v", key, err)
}

// PollStates publishes every state that changed since the last call.
func (b *Bridge) PollStates(mqttClient mqtt.Client) {
	homeAssistantClient := homeassistant.NewClient(mqttClient, b.cfg.HomeAssistantPrefix, b.cfg.TopicPrefix)
	publish := func(topic string, value string) {
		b.mutex.Lock()
		last, ok := b.lastPublished[topic]
		b.mutex.Unlock()
		if ok && last == value {
			return
		}

		if err := homeAssistantClient.PublishState(topic, value); err != nil {
			log.Printf("MQTT publishing failed: %v", err)
			return
		}

		b.mutex.Lock()
		b.lastPublished[topic] = value
		b.mutex.Unlock()
	}

	snapshot := b.Snapshot()

	for _, v := range snapshot.Ventilations {
		uniqueId := homeassistant.UniqueID(v.Name)
		publish(homeAssistantClient.Topic(uniqueId, "mode", "state"), v.HVACMode)
		publish(homeAssistantClient.Topic(uniqueId, "fan_mode", "state"), orUnknown(v.FanMode))
		publish(homeAssistantClient.Topic(uniqueId, "preset_mode", "state"), orUnknown(v.PresetMode))
		if v.CurrentTemperature != nil {
			publish(homeAssistantClient.Topic(uniqueId, "current_temperature", "state"), formatFloat(*v.CurrentTemperature))
		}
	}

	for _, w := range snapshot.WaterHeaters {
		uniqueId := homeassistant.UniqueID(w.Name)
		publish(homeAssistantClient.Topic(uniqueId, "mode", "state"), orUnknown(w.OperationMode))
		b.logOnChange(w.Name, w.OperationModeError)
		if w.TargetTemperature != nil {
			publish(homeAssistantClient.Topic(uniqueId, "temperature", "state"), formatFloat(*w.TargetTemperature))
		}
		if w.CurrentTemperature != nil {
			publish(homeAssistantClient.Topic(uniqueId, "current_temperature", "state"), formatFloat(*w.CurrentTemperature))
		}
		if w.AwayMode {
			publish(homeAssistantClient.Topic(uniqueId, "away_mode", "state"), "ON")
		} else {
			publish(homeAssistantClient.Topic(uniqueId, "away_mode", "state"), "OFF")
		}
	}

	for _, w := range b.waterHeaters {
		b.refreshWaterHeaterBounds(homeAssistantClient, w)
	}

	for _, s := range b.sensors {
		if s.stateTopic == "" {
			continue
		}
		if state, ok := b.states.State(s.entityID); ok && state.State != entity.StateUnknown {
			publish(s.stateTopic, state.State)
		}
	}
}

// Snapshot reads every controller.
func (b *Bridge) Snapshot() Snapshot {
	snapshot := Snapshot{
		Ventilations: []VentilationState{},
		WaterHeaters: []WaterHeaterState{},
	}

	for _, v := range b.ventilations {
		state := VentilationState{
			Name:      v.name,
			DeviceURL: v.deviceURL,
			HVACMode:  string(v.controller.HVACMode()),
		}
		if fanMode, ok := v.controller.FanMode(); ok {
			state.FanMode = stringPtr(string(fanMode))
		}
		if preset, ok := v.controller.PresetMode(); ok {
			state.PresetMode = stringPtr(string(preset))
		}
		state.CurrentTemperature = floatPtr(v.controller.CurrentTemperature())
		if entityID, ok := v.controller.SensorEntityID(); ok {
			state.SensorEntityID = stringPtr(entityID)
		}
		snapshot.Ventilations = append(snapshot.Ventilations, state)
	}

	for _, w := range b.waterHeaters {
		state := WaterHeaterState{
			Name:      w.name,
			DeviceURL: w.deviceURL,
			AwayMode:  w.controller.IsAwayModeOn(),
		}
		if mode, err := w.controller.CurrentOperation(); err != nil {
			state.OperationModeError = err.Error()
		} else {
			state.OperationMode = stringPtr(string(mode))
		}
		state.CurrentTemperature = floatPtr(w.controller.CurrentTemperature())
		state.TargetTemperature = floatPtr(w.controller.TargetTemperature())
		state.TargetTemperatureLow = floatPtr(w.controller.TargetTemperatureLow())
		state.TargetTemperatureHigh = floatPtr(w.controller.TargetTemperatureHigh())
		state.MinTemp = floatPtr(w.controller.MinTemp())
		state.MaxTemp = floatPtr(w.controller.MaxTemp())
		snapshot.WaterHeaters = append(snapshot.WaterHeaters, state)
	}

	return snapshot
}

func formatValue(v overkiz.Value) string {
	switch value := v.(type) {
	case overkiz.NumberValue:
		return formatFloat(float64(value))
	case overkiz.StringValue:
		return string(value)
	case overkiz.BoolValue:
		return strconv.FormatBool(bool(value))
	default:
		return fmt.Sprintf("%v", value)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func orUnknown(s *string) string {
	if s == nil {
		return unknownPayload
	}

	return *s
}

func boundsKey(minTemp, maxTemp float64) string {
	return formatFloat(minTemp) + ".." + formatFloat(maxTemp)
}

func stringPtr(s string) *string {
	return &s
}

func floatPtr(f float64, ok bool) *float64 {
	if !ok {
		return nil
	}

	return &f
}

func stringsOf[T ~string](values []T) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}

	return out
}
