package home

import (
	"fmt"
	"sync"

	"github.com/kotakee/kotakee-core/internal/action"
	"github.com/kotakee/kotakee-core/internal/rules"
)

// Room is a named group of modules. Within a room every action id is
// implemented by at most one module, so clients can address an action without
// knowing module topology.
type Room struct {
	id   int
	name string

	modules  []*Module
	byAction map[action.ID]*Module
	byID     map[string]*Module

	rulesMu sync.RWMutex
	rules   rules.Table
}

// NewRoom assembles a room from its modules. Two modules claiming the same
// action id is a configuration error.
func NewRoom(id int, name string, modules []*Module, table rules.Table) (*Room, error) {
	r := &Room{
		id:       id,
		name:     name,
		modules:  modules,
		byAction: make(map[action.ID]*Module),
		byID:     make(map[string]*Module),
		rules:    table,
	}
	for _, m := range modules {
		if _, exists := r.byID[m.ID()]; exists {
			return nil, fmt.Errorf("room %d: duplicate module id %q", id, m.ID())
		}
		r.byID[m.ID()] = m
		for _, a := range m.Actions() {
			if other, exists := r.byAction[a]; exists {
				return nil, fmt.Errorf("room %d action %d claimed by modules %q and %q: %w",
					id, int(a), other.ID(), m.ID(), ErrDuplicateAction)
			}
			r.byAction[a] = m
		}
	}
	return r, nil
}

// ID returns the room id.
func (r *Room) ID() int { return r.id }

// Name returns the room's display name.
func (r *Room) Name() string { return r.name }

// Modules returns the room's modules.
func (r *Room) Modules() []*Module { return r.modules }

// ModuleFor returns the module implementing the action.
func (r *Room) ModuleFor(id action.ID) (*Module, error) {
	m, ok := r.byAction[id]
	if !ok {
		return nil, fmt.Errorf("room %d action %d: %w", r.id, int(id), ErrActionNotFound)
	}
	return m, nil
}

// ModuleByAddress returns the module with the given network address.
func (r *Room) ModuleByAddress(addr string) (*Module, bool) {
	for _, m := range r.modules {
		if m.Address() == addr {
			return m, true
		}
	}
	return nil, false
}

// ActionStates returns a flat action-to-state map across all modules.
func (r *Room) ActionStates() map[action.ID]int {
	out := make(map[action.ID]int)
	for _, m := range r.modules {
		for id, state := range m.ActionStates() {
			out[id] = state
		}
	}
	return out
}

// Readings returns the raw climate payloads across all modules.
func (r *Room) Readings() map[action.ID]string {
	out := make(map[action.ID]string)
	for _, m := range r.modules {
		for id, raw := range m.Readings() {
			out[id] = raw
		}
	}
	return out
}

// InputRules returns the room's current rule table.
func (r *Room) InputRules() rules.Table {
	r.rulesMu.RLock()
	defer r.rulesMu.RUnlock()
	return r.rules
}

// SetInputRules swaps the rule table after validating it.
func (r *Room) SetInputRules(table rules.Table) error {
	if err := rules.ValidateTable(table); err != nil {
		return err
	}
	r.rulesMu.Lock()
	defer r.rulesMu.Unlock()
	r.rules = table
	return nil
}
