package entity

import (
	"context"
	"testing"
)

func TestRegistryRelatedEntity(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Entry{EntityID: "sensor.vmc_temperature", UniqueID: "io://1234/5678#4"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	id, ok := r.RelatedEntity(context.Background(), "io://1234/5678", "#4")
	if !ok || id != "sensor.vmc_temperature" {
		t.Fatalf("expected sensor.vmc_temperature, got %q (%v)", id, ok)
	}

	if _, ok := r.RelatedEntity(context.Background(), "io://1234/5678", "#5"); ok {
		t.Fatalf("expected no entity for #5")
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Entry{EntityID: "sensor.a", UniqueID: "io://1#4"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(Entry{EntityID: "sensor.a", UniqueID: "io://2#4"}); err == nil {
		t.Fatalf("expected duplicate entity id error")
	}
	if err := r.Register(Entry{EntityID: "sensor.b", UniqueID: "io://1#4"}); err == nil {
		t.Fatalf("expected duplicate unique id error")
	}
}

func TestEntityID(t *testing.T) {
	if got := EntityID("sensor", "VMC Temperature"); got != "sensor.vmc_temperature" {
		t.Fatalf("unexpected entity id %q", got)
	}
}

func TestMachineNotifiesOnChangeOnly(t *testing.T) {
	m := NewMachine()

	type change struct{ old, new *State }
	var changes []change
	cancel := m.TrackStateChange("sensor.t", func(entityID string, oldState, newState *State) {
		changes = append(changes, change{oldState, newState})
	})

	m.Set("sensor.t", "20.5", "°C")
	m.Set("sensor.t", "20.5", "°C")
	m.Set("sensor.t", "21", "°C")
	m.Set("sensor.other", "1", "")

	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}
	if changes[0].old != nil || changes[0].new.State != "20.5" {
		t.Fatalf("unexpected first change %+v", changes[0])
	}
	if changes[1].old.State != "20.5" || changes[1].new.State != "21" {
		t.Fatalf("unexpected second change %+v", changes[1])
	}

	cancel()
	cancel()
	m.Set("sensor.t", "22", "°C")
	if len(changes) != 2 {
		t.Fatalf("expected no notification after cancel, got %d", len(changes))
	}
}

func TestMachineRemoveNotifiesWithNilState(t *testing.T) {
	m := NewMachine()
	m.Set("sensor.t", "20", "")

	var gotNil bool
	m.TrackStateChange("sensor.t", func(entityID string, oldState, newState *State) {
		gotNil = oldState != nil && newState == nil
	})
	m.Remove("sensor.t")

	if !gotNil {
		t.Fatalf("expected removal notification")
	}
	if _, ok := m.State("sensor.t"); ok {
		t.Fatalf("expected state removed")
	}
}

func TestMachineReadyRunsHooksOnce(t *testing.T) {
	m := NewMachine()

	calls := 0
	m.OnReady(func() { calls++ })
	m.Ready()
	m.Ready()

	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}

	late := false
	m.OnReady(func() { late = true })
	if !late {
		t.Fatalf("expected hook registered after startup to run immediately")
	}
}
