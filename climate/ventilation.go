package climate

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"

	"github.com/victorjacobs/go-overkiz/entity"
	"github.com/victorjacobs/go-overkiz/overkiz"
)

const (
	commandSetAirDemandMode                    = "setAirDemandMode"
	commandSetVentilationConfigurationMode     = "setVentilationConfigurationMode"
	commandSetVentilationMode                  = "setVentilationMode"
	commandRefreshVentilationState             = "refreshVentilationState"
	commandRefreshVentilationConfigurationMode = "refreshVentilationConfigurationMode"

	stateAirDemandMode                = "io:AirDemandModeState"
	stateVentilationMode              = "io:VentilationModeState"
	stateVentilationConfigurationMode = "io:VentilationConfigurationModeState"

	configurationComfort  = "comfort"
	configurationStandard = "standard"

	// The temperature sensor is the 4th sub-device of the ventilation unit.
	temperatureSensorSuffix = "#4"
)

type FanMode string

const (
	FanModeAuto    FanMode = "auto"
	FanModeBoost   FanMode = "home_boost"
	FanModeKitchen FanMode = "kitchen_boost"
	FanModeAway    FanMode = "away"
	FanModeBypass  FanMode = "bypass_boost"
)

var fanModes = []FanMode{FanModeAuto, FanModeBoost, FanModeKitchen, FanModeAway, FanModeBypass}

type Preset string

const (
	PresetAuto   Preset = "auto"
	PresetProg   Preset = "prog"
	PresetManual Preset = "manual"
)

var presetModes = []Preset{PresetAuto, PresetProg, PresetManual}

// AirDemandMode is the raw io:AirDemandModeState value. AirDemandAbsent stands
// for a channel that carries no value at all.
type AirDemandMode int

const (
	AirDemandAbsent AirDemandMode = iota
	AirDemandAuto
	AirDemandAway
	AirDemandBoost
	AirDemandHigh
)

func (m AirDemandMode) String() string {
	switch m {
	case AirDemandAuto:
		return "auto"
	case AirDemandAway:
		return "away"
	case AirDemandBoost:
		return "boost"
	case AirDemandHigh:
		return "high"
	default:
		return ""
	}
}

func parseAirDemandMode(v overkiz.Value) (AirDemandMode, bool) {
	if v == nil {
		return AirDemandAbsent, true
	}

	s, ok := v.(overkiz.StringValue)
	if !ok {
		return AirDemandAbsent, false
	}

	switch s {
	case "auto":
		return AirDemandAuto, true
	case "away":
		return AirDemandAway, true
	case "boost":
		return AirDemandBoost, true
	case "high":
		return AirDemandHigh, true
	default:
		return AirDemandAbsent, false
	}
}

// FanModeForAirDemand maps a raw air demand to a fan mode. The vendor names are
// shifted with respect to the fan modes: "away" is the home boost and "high"
// is the away mode.
func FanModeForAirDemand(m AirDemandMode) FanMode {
	switch m {
	case AirDemandAuto:
		return FanModeAuto
	case AirDemandAway:
		return FanModeBoost
	case AirDemandBoost:
		return FanModeKitchen
	case AirDemandHigh:
		return FanModeAway
	default:
		return FanModeBypass
	}
}

// AirDemandForFanMode is the reverse of FanModeForAirDemand, except that bypass
// is requested as "auto". Bypass read from an absent air demand therefore does
// not round trip.
func AirDemandForFanMode(f FanMode) (AirDemandMode, bool) {
	switch f {
	case FanModeAuto, FanModeBypass:
		return AirDemandAuto, true
	case FanModeBoost:
		return AirDemandAway, true
	case FanModeKitchen:
		return AirDemandBoost, true
	case FanModeAway:
		return AirDemandHigh, true
	default:
		return AirDemandAbsent, false
	}
}

// Ventilation controls an Atlantic heat recovery ventilation unit. The unit
// has no temperature probe of its own; the current temperature comes from its
// related temperature sensor entity.
type Ventilation struct {
	device    Device
	deviceURL string
	registry  EntityRegistry
	states    StateMachine

	mutex              sync.Mutex
	activated          bool
	closed             bool
	sensorEntityID     string
	currentTemperature *float64
	cancel             func()
}

func NewVentilation(device Device, deviceURL string, registry EntityRegistry, states StateMachine) *Ventilation {
	return &Ventilation{
		device:    device,
		deviceURL: deviceURL,
		registry:  registry,
		states:    states,
	}
}

// Activate binds the temperature sensor. The lookup happens once; when no
// sensor is found the controller reports no temperature for its lifetime.
func (v *Ventilation) Activate(ctx context.Context) {
	v.mutex.Lock()
	if v.activated {
		v.mutex.Unlock()
		return
	}
	v.activated = true
	v.mutex.Unlock()

	entityID, ok := v.registry.RelatedEntity(ctx, overkiz.BaseDeviceURL(v.deviceURL), temperatureSensorSuffix)
	if !ok {
		log.Printf("Temperature sensor could not be found for %v", v.deviceURL)
	} else {
		cancel := v.states.TrackStateChange(entityID, v.sensorChanged)

		v.mutex.Lock()
		closed := v.closed
		if !closed {
			v.sensorEntityID = entityID
			v.cancel = cancel
		}
		v.mutex.Unlock()

		if closed {
			cancel()
			return
		}
	}

	v.states.OnReady(v.syncTemperature)
}

// Close cancels the sensor subscription. A binding that completes after Close
// is cancelled right away.
func (v *Ventilation) Close() {
	v.mutex.Lock()
	v.closed = true
	cancel := v.cancel
	v.cancel = nil
	v.mutex.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (v *Ventilation) SensorEntityID() (string, bool) {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	return v.sensorEntityID, v.sensorEntityID != ""
}

func (v *Ventilation) sensorChanged(entityID string, oldState, newState *entity.State) {
	if newState == nil || (oldState != nil && *oldState == *newState) {
		return
	}

	v.updateTemperature(*newState)
}

func (v *Ventilation) syncTemperature() {
	entityID, ok := v.SensorEntityID()
	if !ok {
		return
	}

	if state, ok := v.states.State(entityID); ok && state.State != entity.StateUnknown {
		v.updateTemperature(state)
	}
}

func (v *Ventilation) updateTemperature(state entity.State) {
	if state.State == entity.StateUnknown {
		return
	}

	temperature, err := strconv.ParseFloat(state.State, 64)
	if err != nil {
		log.Printf("Unable to update from sensor %v: %v", state.EntityID, err)
		return
	}

	v.mutex.Lock()
	v.currentTemperature = &temperature
	v.mutex.Unlock()
}

// CurrentTemperature returns false until the bound sensor reported a value.
func (v *Ventilation) CurrentTemperature() (float64, bool) {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	if v.currentTemperature == nil {
		return 0, false
	}

	return *v.currentTemperature, true
}

func (v *Ventilation) TemperatureUnit() string {
	return TemperatureCelsius
}

func (v *Ventilation) SupportedFeatures() Feature {
	return FeaturePresetMode | FeatureFanMode
}

func (v *Ventilation) HVACMode() HVACMode {
	return HVACModeFanOnly
}

func (v *Ventilation) HVACModes() []HVACMode {
	return []HVACMode{HVACModeFanOnly}
}

// SetHVACMode accepts the only mode there is.
func (v *Ventilation) SetHVACMode(mode HVACMode) error {
	if mode != HVACModeFanOnly {
		return fmt.Errorf("hvac mode %q: %w", mode, ErrInvalidMode)
	}

	return nil
}

// FanMode returns false when the air demand holds a value this controller
// doesn't know.
func (v *Ventilation) FanMode() (FanMode, bool) {
	if selectRecord(v.device, stateVentilationMode).Get("cooling") == stateOn {
		return FanModeBypass, true
	}

	mode, ok := parseAirDemandMode(v.device.SelectState(stateAirDemandMode))
	if !ok {
		return "", false
	}

	return FanModeForAirDemand(mode), true
}

func (v *Ventilation) FanModes() []FanMode {
	return append([]FanMode(nil), fanModes...)
}

func (v *Ventilation) SetFanMode(ctx context.Context, mode FanMode) error {
	airDemand, ok := AirDemandForFanMode(mode)
	if !ok {
		return fmt.Errorf("fan mode %q: %w", mode, ErrInvalidMode)
	}

	if err := v.device.ExecuteCommand(ctx, commandSetAirDemandMode, airDemand.String()); err != nil {
		return err
	}

	return v.refresh(ctx)
}

// PresetMode returns false when the configuration mode is neither comfort nor
// standard.
func (v *Ventilation) PresetMode() (Preset, bool) {
	if selectRecord(v.device, stateVentilationMode).Get("prog") == stateOn {
		return PresetProg, true
	}

	configuration, _ := selectString(v.device, stateVentilationConfigurationMode)
	switch configuration {
	case configurationComfort:
		return PresetAuto, true
	case configurationStandard:
		return PresetManual, true
	default:
		return "", false
	}
}

func (v *Ventilation) PresetModes() []Preset {
	return append([]Preset(nil), presetModes...)
}

// SetPresetMode sets the configuration mode before the prog flag, the device
// interprets prog relative to the configuration.
func (v *Ventilation) SetPresetMode(ctx context.Context, preset Preset) error {
	var configuration, prog string
	switch preset {
	case PresetAuto:
		configuration, prog = configurationComfort, stateOff
	case PresetProg:
		configuration, prog = configurationStandard, stateOn
	case PresetManual:
		configuration, prog = configurationStandard, stateOff
	default:
		return fmt.Errorf("preset %q: %w", preset, ErrInvalidMode)
	}

	if err := v.device.ExecuteCommand(ctx, commandSetVentilationConfigurationMode, configuration); err != nil {
		return err
	}

	if err := v.setVentilationMode(ctx, "prog", prog); err != nil {
		return err
	}

	return v.refresh(ctx)
}

// setVentilationMode sends the full ventilation mode record with one field
// changed.
func (v *Ventilation) setVentilationMode(ctx context.Context, field, value string) error {
	mode := selectRecord(v.device, stateVentilationMode).With(field, value)

	return v.device.ExecuteCommand(ctx, commandSetVentilationMode, mode)
}

func (v *Ventilation) refresh(ctx context.Context) error {
	if err := v.device.ExecuteCommand(ctx, commandRefreshVentilationState); err != nil {
		return err
	}

	return v.device.ExecuteCommand(ctx, commandRefreshVentilationConfigurationMode)
}
