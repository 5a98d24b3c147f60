package entity

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Entry is a registered entity.
type Entry struct {
	EntityID string
	UniqueID string
	Name     string
}

// Registry maps entity ids to the unique ids of the devices behind them.
type Registry struct {
	mutex   sync.RWMutex
	entries map[string]Entry
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
	}
}

func (r *Registry) Register(entry Entry) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.entries[entry.EntityID]; ok {
		return fmt.Errorf("entity %v already registered", entry.EntityID)
	}
	for _, e := range r.entries {
		if e.UniqueID == entry.UniqueID {
			return fmt.Errorf("unique id %v already registered as %v", entry.UniqueID, e.EntityID)
		}
	}
	r.entries[entry.EntityID] = entry

	return nil
}

// Lookup returns the entity id registered for uniqueID.
func (r *Registry) Lookup(uniqueID string) (string, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for entityID, e := range r.entries {
		if e.UniqueID == uniqueID {
			return entityID, true
		}
	}

	return "", false
}

// RelatedEntity finds the entity whose unique id is baseID followed by suffix,
// e.g. the "#4" sub-device of io://1234-5678-9012/5678.
func (r *Registry) RelatedEntity(ctx context.Context, baseID, suffix string) (string, bool) {
	if ctx.Err() != nil {
		return "", false
	}

	return r.Lookup(baseID + suffix)
}

func (r *Registry) Entries() []Entry {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}

	return out
}

// EntityID builds a "<domain>.<object_id>" id from a display name.
func EntityID(domain, name string) string {
	objectID := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, name)

	return domain + "." + objectID
}
