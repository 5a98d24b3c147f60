package overkiz

import (
	"log"
	"strings"
	"sync"
)

// Store holds the last known raw state values of a single device.
type Store struct {
	mutex  sync.RWMutex
	states map[string]Value
}

func NewStore() *Store {
	return &Store{
		states: make(map[string]Value),
	}
}

// SelectState returns the last value received for the channel, or nil if the
// channel was never populated.
func (s *Store) SelectState(name string) Value {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.states[name]
}

func (s *Store) String(name string) (string, bool) {
	v, ok := s.SelectState(name).(StringValue)

	return string(v), ok
}

func (s *Store) Number(name string) (float64, bool) {
	v, ok := s.SelectState(name).(NumberValue)

	return float64(v), ok
}

// Record returns a copy of a record valued channel. An empty record is
// returned when the channel is unset or holds a scalar.
func (s *Store) Record(name string) RecordValue {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	v, _ := s.states[name].(RecordValue)
	out := make(RecordValue, len(v))
	for k, field := range v {
		out[k] = field
	}

	return out
}

// Set replaces a single channel value.
func (s *Store) Set(name string, value Value) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if value == nil {
		delete(s.states, name)
		return
	}
	s.states[name] = value
}

// Apply decodes and stores the states of a device event. States that fail to
// decode are skipped.
func (s *Store) Apply(states []State) {
	for _, state := range states {
		value, err := state.Decode()
		if err != nil {
			log.Printf("Skipping state: %v", err)
			continue
		}

		s.Set(state.Name, value)
	}
}

// Snapshot returns a copy of all channel values.
func (s *Store) Snapshot() map[string]Value {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make(map[string]Value, len(s.states))
	for k, v := range s.states {
		out[k] = v
	}

	return out
}

// BaseDeviceURL strips the sub-device suffix: io://1234-5678-9012/5678#4 becomes
// io://1234-5678-9012/5678.
func BaseDeviceURL(deviceURL string) string {
	if i := strings.Index(deviceURL, "#"); i >= 0 {
		return deviceURL[:i]
	}

	return deviceURL
}
