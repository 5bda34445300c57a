package rules

import (
	"sync"

	"github.com/kotakee/kotakee-core/internal/action"
)

// timerKey identifies the scheduling slot for one input action in one room.
type timerKey struct {
	roomID int
	id     action.ID
}

// timerRegistry tracks a generation counter per input action. Scheduling a
// batch of timeouts bumps the counter; a fired callback compares its captured
// generation against the current one and declines when a newer report has
// superseded it.
type timerRegistry struct {
	mu          sync.Mutex
	generations map[timerKey]uint64
}

func newTimerRegistry() *timerRegistry {
	return &timerRegistry{generations: make(map[timerKey]uint64)}
}

// bump advances the generation for the key and returns the new value.
func (r *timerRegistry) bump(key timerKey) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generations[key]++
	return r.generations[key]
}

// current returns the latest generation for the key.
func (r *timerRegistry) current(key timerKey) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generations[key]
}
