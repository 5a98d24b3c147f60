package climate

import (
	"context"
	"errors"
	"testing"

	"github.com/victorjacobs/go-overkiz/overkiz"
)

var dhwModes = []DHWMode{DHWModeManualEcoActive, DHWModeManualEcoInactive, DHWModeAuto, DHWModeBoost}

func TestCurrentOperation(t *testing.T) {
	want := map[DHWMode]OperationMode{
		DHWModeManualEcoActive:   OperationModeEco,
		DHWModeManualEcoInactive: OperationModeManual,
		DHWModeAuto:              OperationModeAuto,
		DHWModeBoost:             OperationModeHighDemand,
	}

	for _, raw := range dhwModes {
		t.Run(string(raw), func(t *testing.T) {
			w := NewWaterHeater(newFakeDevice(map[string]overkiz.Value{
				stateDHWMode:      overkiz.StringValue(raw),
				stateDHWBoostMode: overkiz.StringValue("off"),
			}))
			got, err := w.CurrentOperation()
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if got != want[raw] {
				t.Fatalf("expected %q, got %q", want[raw], got)
			}

			boosted := NewWaterHeater(newFakeDevice(map[string]overkiz.Value{
				stateDHWMode:      overkiz.StringValue(raw),
				stateDHWBoostMode: overkiz.StringValue("on"),
			}))
			got, err = boosted.CurrentOperation()
			if err != nil || got != OperationModeHighDemand {
				t.Fatalf("expected high_demand with boost on, got %q (%v)", got, err)
			}
		})
	}
}

func TestCurrentOperationUnknown(t *testing.T) {
	w := NewWaterHeater(newFakeDevice(map[string]overkiz.Value{
		stateDHWMode: overkiz.StringValue("legionella"),
	}))

	if _, err := w.CurrentOperation(); !errors.Is(err, ErrUnknownState) {
		t.Fatalf("expected ErrUnknownState, got %v", err)
	}
}

func TestDHWModeRoundTrip(t *testing.T) {
	for _, raw := range dhwModes {
		mode, ok := OperationModeForDHWMode(raw)
		if !ok {
			t.Fatalf("expected %v to map", raw)
		}
		back, ok := DHWModeForOperationMode(mode)
		if !ok || back != raw {
			t.Fatalf("expected %v to round trip, got %v", raw, back)
		}
	}
}

func TestSetOperationModeLeavesBoostFirst(t *testing.T) {
	device := newFakeDevice(map[string]overkiz.Value{
		stateDHWMode:      overkiz.StringValue("autoMode"),
		stateDHWBoostMode: overkiz.StringValue("on"),
	})
	w := NewWaterHeater(device)

	if err := w.SetOperationMode(context.Background(), OperationModeManual); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	assertCommands(t, device,
		cmd("setCurrentOperatingMode", overkiz.RecordValue{"relaunch": "off", "absence": "off"}),
		cmd("setDHWMode", "manualEcoInactive"),
	)
}

func TestSetOperationModeHighDemand(t *testing.T) {
	for _, raw := range []DHWMode{DHWModeManualEcoActive, DHWModeManualEcoInactive, DHWModeAuto} {
		t.Run(string(raw), func(t *testing.T) {
			device := newFakeDevice(map[string]overkiz.Value{
				stateDHWMode:      overkiz.StringValue(raw),
				stateDHWBoostMode: overkiz.StringValue("off"),
			})
			w := NewWaterHeater(device)

			if err := w.SetOperationMode(context.Background(), OperationModeHighDemand); err != nil {
				t.Fatalf("unexpected err: %v", err)
			}

			assertCommands(t, device,
				cmd("setCurrentOperatingMode", overkiz.RecordValue{"relaunch": "on", "absence": "off"}),
				cmd("setBoostModeDuration", 1),
			)
		})
	}
}

func TestSetOperationModeHighDemandWhileBoosted(t *testing.T) {
	device := newFakeDevice(map[string]overkiz.Value{
		stateDHWMode:      overkiz.StringValue("autoMode"),
		stateDHWBoostMode: overkiz.StringValue("on"),
	})
	w := NewWaterHeater(device)

	if err := w.SetOperationMode(context.Background(), OperationModeHighDemand); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	assertCommands(t, device,
		cmd("setCurrentOperatingMode", overkiz.RecordValue{"relaunch": "on", "absence": "off"}),
		cmd("setBoostModeDuration", 1),
	)
}

func TestSetOperationModeEcoFromAuto(t *testing.T) {
	device := newFakeDevice(map[string]overkiz.Value{
		stateDHWMode: overkiz.StringValue("autoMode"),
	})
	w := NewWaterHeater(device)

	if err := w.SetOperationMode(context.Background(), OperationModeEco); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	assertCommands(t, device, cmd("setDHWMode", "manualEcoActive"))
}

func TestSetOperationModeInvalid(t *testing.T) {
	device := newFakeDevice(map[string]overkiz.Value{
		stateDHWBoostMode: overkiz.StringValue("on"),
	})
	w := NewWaterHeater(device)

	if err := w.SetOperationMode(context.Background(), OperationMode("electric")); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
	assertCommands(t, device)
}

func TestSetOperationModeUnknownCurrent(t *testing.T) {
	device := newFakeDevice(map[string]overkiz.Value{
		stateDHWMode: overkiz.StringValue("legionella"),
	})
	w := NewWaterHeater(device)

	if err := w.SetOperationMode(context.Background(), OperationModeAuto); !errors.Is(err, ErrUnknownState) {
		t.Fatalf("expected ErrUnknownState, got %v", err)
	}
	assertCommands(t, device)
}

func TestSetOperationModeBoostClearFailure(t *testing.T) {
	device := newFakeDevice(map[string]overkiz.Value{
		stateDHWMode:      overkiz.StringValue("autoMode"),
		stateDHWBoostMode: overkiz.StringValue("on"),
	})
	device.failAt = 1
	w := NewWaterHeater(device)

	if err := w.SetOperationMode(context.Background(), OperationModeEco); !errors.Is(err, errSubmit) {
		t.Fatalf("expected submission error, got %v", err)
	}
	assertCommands(t, device,
		cmd("setCurrentOperatingMode", overkiz.RecordValue{"relaunch": "off", "absence": "off"}),
	)
}

func TestSetTemperature(t *testing.T) {
	device := newFakeDevice(nil)
	w := NewWaterHeater(device)

	if err := w.SetTemperature(context.Background(), SetTemperatureRequest{}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	assertCommands(t, device)

	target := 52.5
	if err := w.SetTemperature(context.Background(), SetTemperatureRequest{Temperature: &target}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	assertCommands(t, device, cmd("setTargetTemperature", 52.5))
}

func TestAwayMode(t *testing.T) {
	device := newFakeDevice(nil)
	w := NewWaterHeater(device)

	if w.IsAwayModeOn() {
		t.Fatalf("expected away mode off on empty device")
	}

	device.states[stateOperatingMode] = overkiz.RecordValue{"relaunch": "off", "absence": "on"}
	if !w.IsAwayModeOn() {
		t.Fatalf("expected away mode on")
	}

	if err := w.TurnAwayModeOn(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := w.TurnAwayModeOff(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	assertCommands(t, device,
		cmd("setCurrentOperatingMode", overkiz.RecordValue{"relaunch": "off", "absence": "on"}),
		cmd("setAwayModeDuration", 2),
		cmd("setCurrentOperatingMode", overkiz.RecordValue{"relaunch": "off", "absence": "off"}),
		cmd("setAwayModeDuration", 0),
	)
}

func TestTurnAwayModeOnPartialFailure(t *testing.T) {
	device := newFakeDevice(nil)
	device.failAt = 2
	w := NewWaterHeater(device)

	if err := w.TurnAwayModeOn(context.Background()); !errors.Is(err, errSubmit) {
		t.Fatalf("expected submission error, got %v", err)
	}
	assertCommands(t, device,
		cmd("setCurrentOperatingMode", overkiz.RecordValue{"relaunch": "off", "absence": "on"}),
		cmd("setAwayModeDuration", 2),
	)
}

func TestTemperaturePassThrough(t *testing.T) {
	w := NewWaterHeater(newFakeDevice(map[string]overkiz.Value{
		stateMinimalTemperatureManualMode: overkiz.NumberValue(50),
		stateMaximalTemperatureManualMode: overkiz.NumberValue(62),
		stateTargetTemperature:            overkiz.NumberValue(55),
		stateMiddleWaterTemperature:       overkiz.NumberValue(47.5),
	}))

	check := func(name string, got float64, ok bool, want float64) {
		t.Helper()
		if !ok || got != want {
			t.Fatalf("%v: expected %v, got %v (%v)", name, want, got, ok)
		}
	}

	v, ok := w.MinTemp()
	check("min", v, ok, 50)
	v, ok = w.MaxTemp()
	check("max", v, ok, 62)
	v, ok = w.TargetTemperature()
	check("target", v, ok, 55)
	v, ok = w.TargetTemperatureLow()
	check("target low", v, ok, 50)
	v, ok = w.TargetTemperatureHigh()
	check("target high", v, ok, 62)
	v, ok = w.CurrentTemperature()
	check("current", v, ok, 47.5)

	empty := NewWaterHeater(newFakeDevice(nil))
	if _, ok := empty.MinTemp(); ok {
		t.Fatalf("expected no min temp on empty device")
	}
}
