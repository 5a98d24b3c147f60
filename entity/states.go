package entity

import "sync"

const StateUnknown = "unknown"

// State is the state of a single entity. Two states are equal when all fields
// are equal.
type State struct {
	EntityID string
	State    string
	Unit     string
}

// StateChangeFunc receives the previous and new state of an entity. Either may
// be nil when the entity was added or removed.
type StateChangeFunc func(entityID string, oldState, newState *State)

type subscription struct {
	id int
	fn StateChangeFunc
}

// Machine keeps the current state of every entity and notifies subscribers of
// changes.
type Machine struct {
	mutex     sync.Mutex
	states    map[string]State
	listeners map[string][]subscription
	nextID    int

	ready   bool
	onReady []func()
}

func NewMachine() *Machine {
	return &Machine{
		states:    make(map[string]State),
		listeners: make(map[string][]subscription),
	}
}

func (m *Machine) State(entityID string) (State, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	s, ok := m.states[entityID]

	return s, ok
}

// Set stores a new state. Subscribers are only notified when the state actually
// changed.
func (m *Machine) Set(entityID, state, unit string) {
	newState := State{EntityID: entityID, State: state, Unit: unit}

	m.mutex.Lock()
	old, existed := m.states[entityID]
	if existed && old == newState {
		m.mutex.Unlock()
		return
	}
	m.states[entityID] = newState
	listeners := append([]subscription(nil), m.listeners[entityID]...)
	m.mutex.Unlock()

	var oldState *State
	if existed {
		oldState = &old
	}
	for _, l := range listeners {
		l.fn(entityID, oldState, &newState)
	}
}

func (m *Machine) Remove(entityID string) {
	m.mutex.Lock()
	old, existed := m.states[entityID]
	if !existed {
		m.mutex.Unlock()
		return
	}
	delete(m.states, entityID)
	listeners := append([]subscription(nil), m.listeners[entityID]...)
	m.mutex.Unlock()

	for _, l := range listeners {
		l.fn(entityID, &old, nil)
	}
}

// TrackStateChange subscribes fn to changes of entityID until the returned
// cancel func is called.
func (m *Machine) TrackStateChange(entityID string, fn StateChangeFunc) (cancel func()) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.nextID++
	id := m.nextID
	m.listeners[entityID] = append(m.listeners[entityID], subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mutex.Lock()
			defer m.mutex.Unlock()

			subs := m.listeners[entityID]
			for i, s := range subs {
				if s.id == id {
					m.listeners[entityID] = append(subs[:i:i], subs[i+1:]...)
					break
				}
			}
			if len(m.listeners[entityID]) == 0 {
				delete(m.listeners, entityID)
			}
		})
	}
}

// OnReady registers fn to run once startup has completed. If startup already
// completed fn runs immediately.
func (m *Machine) OnReady(fn func()) {
	m.mutex.Lock()
	if !m.ready {
		m.onReady = append(m.onReady, fn)
		m.mutex.Unlock()
		return
	}
	m.mutex.Unlock()

	fn()
}

// Ready marks startup as complete and runs the registered hooks. Further calls
// are no-ops.
func (m *Machine) Ready() {
	m.mutex.Lock()
	if m.ready {
		m.mutex.Unlock()
		return
	}
	m.ready = true
	hooks := m.onReady
	m.onReady = nil
	m.mutex.Unlock()

	for _, fn := range hooks {
		fn()
	}
}
