// Package climate translates between generic climate/water heater modes and
// the Overkiz state and command vocabulary of Atlantic appliances.
package climate

import (
	"context"
	"errors"

	"github.com/victorjacobs/go-overkiz/entity"
	"github.com/victorjacobs/go-overkiz/overkiz"
)

var (
	// ErrInvalidMode is returned before any command is sent when a caller asks
	// for a mode or preset the appliance doesn't support.
	ErrInvalidMode = errors.New("unsupported mode")
	// ErrUnknownState is returned when a raw device value is missing from a
	// table that is meant to be exhaustive.
	ErrUnknownState = errors.New("unknown device state")
)

// Device is the part of an Overkiz device the controllers need: the latest
// state values and a way to submit commands.
type Device interface {
	SelectState(name string) overkiz.Value
	ExecuteCommand(ctx context.Context, name string, parameters ...interface{}) error
}

// EntityRegistry resolves related entities by unique id.
type EntityRegistry interface {
	RelatedEntity(ctx context.Context, baseID, suffix string) (string, bool)
}

// StateMachine exposes entity states and change notifications.
type StateMachine interface {
	State(entityID string) (entity.State, bool)
	TrackStateChange(entityID string, fn entity.StateChangeFunc) (cancel func())
	OnReady(fn func())
}

type Feature int

const (
	FeatureTargetTemperature Feature = 1 << iota
	FeatureFanMode
	FeaturePresetMode
	FeatureOperationMode
	FeatureAwayMode
)

func (f Feature) Has(other Feature) bool {
	return f&other == other
}

const TemperatureCelsius = "°C"

type HVACMode string

const HVACModeFanOnly HVACMode = "fan_only"

const (
	stateOn  = "on"
	stateOff = "off"
)

func selectString(d Device, name string) (string, bool) {
	v, ok := d.SelectState(name).(overkiz.StringValue)

	return string(v), ok
}

func selectNumber(d Device, name string) (float64, bool) {
	v, ok := d.SelectState(name).(overkiz.NumberValue)

	return float64(v), ok
}

// selectRecord returns a copy of a record channel, empty when never populated.
func selectRecord(d Device, name string) overkiz.RecordValue {
	v, _ := d.SelectState(name).(overkiz.RecordValue)

	out := make(overkiz.RecordValue, len(v))
	for k, field := range v {
		out[k] = field
	}

	return out
}
