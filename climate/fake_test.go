package climate

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/victorjacobs/go-overkiz/entity"
	"github.com/victorjacobs/go-overkiz/overkiz"
)

type command struct {
	name       string
	parameters []interface{}
}

func cmd(name string, parameters ...interface{}) command {
	return command{name: name, parameters: parameters}
}

func (c command) String() string {
	return fmt.Sprintf("%v%v", c.name, c.parameters)
}

var errSubmit = errors.New("submission failed")

// fakeDevice records submitted commands. When failAt is set, the command with
// that (1-based) index fails.
type fakeDevice struct {
	states   map[string]overkiz.Value
	commands []command
	failAt   int
}

func newFakeDevice(states map[string]overkiz.Value) *fakeDevice {
	if states == nil {
		states = map[string]overkiz.Value{}
	}
	return &fakeDevice{states: states}
}

func (d *fakeDevice) SelectState(name string) overkiz.Value {
	return d.states[name]
}

func (d *fakeDevice) ExecuteCommand(ctx context.Context, name string, parameters ...interface{}) error {
	if d.failAt == len(d.commands)+1 {
		d.commands = append(d.commands, cmd(name, parameters...))
		return errSubmit
	}
	d.commands = append(d.commands, cmd(name, parameters...))
	return nil
}

func assertCommands(t *testing.T, d *fakeDevice, want ...command) {
	t.Helper()

	if len(d.commands) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(d.commands, want) {
		t.Fatalf("unexpected commands\n got: %v\nwant: %v", d.commands, want)
	}
}

type fakeRegistry struct {
	entities map[string]string
	lookups  int
}

func (r *fakeRegistry) RelatedEntity(ctx context.Context, baseID, suffix string) (string, bool) {
	r.lookups++
	id, ok := r.entities[baseID+suffix]
	return id, ok
}

// fakeStates wraps the real state machine so subscriptions can be counted.
type fakeStates struct {
	*entity.Machine
	tracked int
}

func (s *fakeStates) TrackStateChange(entityID string, fn entity.StateChangeFunc) func() {
	s.tracked++
	return s.Machine.TrackStateChange(entityID, fn)
}
