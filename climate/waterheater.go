package climate

import (
	"context"
	"fmt"

	"github.com/victorjacobs/go-overkiz/overkiz"
)

const (
	commandSetTargetTemperature    = "setTargetTemperature"
	commandSetDHWMode              = "setDHWMode"
	commandSetCurrentOperatingMode = "setCurrentOperatingMode"
	commandSetBoostModeDuration    = "setBoostModeDuration"
	commandSetAwayModeDuration     = "setAwayModeDuration"

	stateMaximalTemperatureManualMode = "core:MaximalTemperatureManualModeState"
	stateMinimalTemperatureManualMode = "core:MinimalTemperatureManualModeState"
	stateTargetTemperature            = "core:TargetTemperatureState"
	stateOperatingMode                = "core:OperatingModeState"
	stateDHWMode                      = "io:DHWModeState"
	stateDHWBoostMode                 = "io:DHWBoostModeState"
	stateMiddleWaterTemperature       = "io:MiddleWaterTemperatureState"

	operatingModeRelaunch = "relaunch"
	operatingModeAbsence  = "absence"

	boostModeDuration = 1
	awayModeDuration  = 2
)

type OperationMode string

const (
	OperationModeEco        OperationMode = "eco"
	OperationModeManual     OperationMode = "manual"
	OperationModeAuto       OperationMode = "auto"
	OperationModeHighDemand OperationMode = "high_demand"
)

var operationModes = []OperationMode{OperationModeEco, OperationModeManual, OperationModeAuto, OperationModeHighDemand}

// DHWMode is the raw io:DHWModeState value.
type DHWMode string

const (
	DHWModeManualEcoActive   DHWMode = "manualEcoActive"
	DHWModeManualEcoInactive DHWMode = "manualEcoInactive"
	DHWModeAuto              DHWMode = "autoMode"
	DHWModeBoost             DHWMode = "boost"
)

func OperationModeForDHWMode(m DHWMode) (OperationMode, bool) {
	switch m {
	case DHWModeManualEcoActive:
		return OperationModeEco, true
	case DHWModeManualEcoInactive:
		return OperationModeManual, true
	case DHWModeAuto:
		return OperationModeAuto, true
	case DHWModeBoost:
		return OperationModeHighDemand, true
	default:
		return "", false
	}
}

func DHWModeForOperationMode(m OperationMode) (DHWMode, bool) {
	switch m {
	case OperationModeEco:
		return DHWModeManualEcoActive, true
	case OperationModeManual:
		return DHWModeManualEcoInactive, true
	case OperationModeAuto:
		return DHWModeAuto, true
	case OperationModeHighDemand:
		return DHWModeBoost, true
	default:
		return "", false
	}
}

// WaterHeater controls an Atlantic domestic hot water production unit.
//
// The operation mode is one of eco, manual, auto and high demand. High demand
// (boost) overrides the DHW mode while it is active and is entered and left
// through core:OperatingModeState, which also carries the away flag.
type WaterHeater struct {
	device Device
}

func NewWaterHeater(device Device) *WaterHeater {
	return &WaterHeater{
		device: device,
	}
}

func (w *WaterHeater) TemperatureUnit() string {
	return TemperatureCelsius
}

func (w *WaterHeater) SupportedFeatures() Feature {
	return FeatureOperationMode | FeatureAwayMode | FeatureTargetTemperature
}

func (w *WaterHeater) MinTemp() (float64, bool) {
	return selectNumber(w.device, stateMinimalTemperatureManualMode)
}

func (w *WaterHeater) MaxTemp() (float64, bool) {
	return selectNumber(w.device, stateMaximalTemperatureManualMode)
}

func (w *WaterHeater) CurrentTemperature() (float64, bool) {
	return selectNumber(w.device, stateMiddleWaterTemperature)
}

func (w *WaterHeater) TargetTemperature() (float64, bool) {
	return selectNumber(w.device, stateTargetTemperature)
}

func (w *WaterHeater) TargetTemperatureHigh() (float64, bool) {
	return selectNumber(w.device, stateMaximalTemperatureManualMode)
}

func (w *WaterHeater) TargetTemperatureLow() (float64, bool) {
	return selectNumber(w.device, stateMinimalTemperatureManualMode)
}

// CurrentOperation returns ErrUnknownState when the DHW mode is not one of the
// four known modes and boost is off.
func (w *WaterHeater) CurrentOperation() (OperationMode, error) {
	if boost, _ := selectString(w.device, stateDHWBoostMode); boost == stateOn {
		return OperationModeHighDemand, nil
	}

	raw, _ := selectString(w.device, stateDHWMode)
	mode, ok := OperationModeForDHWMode(DHWMode(raw))
	if !ok {
		return "", fmt.Errorf("dhw mode %q: %w", raw, ErrUnknownState)
	}

	return mode, nil
}

func (w *WaterHeater) OperationList() []OperationMode {
	return append([]OperationMode(nil), operationModes...)
}

// SetTemperatureRequest mirrors the optional arguments of a set temperature
// call.
type SetTemperatureRequest struct {
	Temperature *float64
}

// SetTemperature is a no-op when no temperature is given.
func (w *WaterHeater) SetTemperature(ctx context.Context, req SetTemperatureRequest) error {
	if req.Temperature == nil {
		return nil
	}

	return w.device.ExecuteCommand(ctx, commandSetTargetTemperature, *req.Temperature)
}

// SetOperationMode leaves boost before applying any other mode so the device
// never holds two active modes.
func (w *WaterHeater) SetOperationMode(ctx context.Context, mode OperationMode) error {
	dhwMode, ok := DHWModeForOperationMode(mode)
	if !ok {
		return fmt.Errorf("operation mode %q: %w", mode, ErrInvalidMode)
	}

	current, err := w.CurrentOperation()
	if err != nil {
		return err
	}

	if current == OperationModeHighDemand && mode != OperationModeHighDemand {
		if err := w.setOperatingMode(ctx, stateOff, stateOff); err != nil {
			return err
		}
	}

	if mode == OperationModeHighDemand {
		if err := w.setOperatingMode(ctx, stateOn, stateOff); err != nil {
			return err
		}

		return w.device.ExecuteCommand(ctx, commandSetBoostModeDuration, boostModeDuration)
	}

	return w.device.ExecuteCommand(ctx, commandSetDHWMode, string(dhwMode))
}

func (w *WaterHeater) IsAwayModeOn() bool {
	return selectRecord(w.device, stateOperatingMode).Get(operatingModeAbsence) == stateOn
}

// TurnAwayModeOn sets the absence flag and then the away duration. The two
// commands are not atomic: when the second fails the flag stays set without a
// duration.
func (w *WaterHeater) TurnAwayModeOn(ctx context.Context) error {
	if err := w.setOperatingMode(ctx, stateOff, stateOn); err != nil {
		return err
	}

	return w.device.ExecuteCommand(ctx, commandSetAwayModeDuration, awayModeDuration)
}

func (w *WaterHeater) TurnAwayModeOff(ctx context.Context) error {
	if err := w.setOperatingMode(ctx, stateOff, stateOff); err != nil {
		return err
	}

	return w.device.ExecuteCommand(ctx, commandSetAwayModeDuration, 0)
}

func (w *WaterHeater) setOperatingMode(ctx context.Context, relaunch, absence string) error {
	return w.device.ExecuteCommand(ctx, commandSetCurrentOperatingMode, overkiz.RecordValue{
		operatingModeRelaunch: relaunch,
		operatingModeAbsence:  absence,
	})
}
