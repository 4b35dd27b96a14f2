package ecs

import (
	"errors"
	"fmt"
	"slices"

	"github.com/milk9111/swarm/ecs/component"
)

var (
	ErrCellOccupied      = errors.New("ecs: formation cell occupied")
	ErrIllegalTransition = errors.New("ecs: illegal state transition")
	ErrNilAlien          = errors.New("ecs: alien is nil")
)

// World is the entity registry. It owns every live formation unit and is the
// only place unit state changes are applied.
type World struct {
	entities entityStore
	aliens   SparseSet[*component.Alien]
	cells    map[component.Cell]Entity
}

// NewWorld creates an empty registry.
func NewWorld() *World {
	return &World{cells: make(map[component.Cell]Entity)}
}

// Spawn registers a unit. A cell holds at most one live unit.
func (w *World) Spawn(a *component.Alien) (Entity, error) {
	if a == nil {
		return 0, ErrNilAlien
	}
	if prev, ok := w.cells[a.Cell]; ok && w.IsAlive(prev) {
		return 0, fmt.Errorf("%w: row=%d col=%d", ErrCellOccupied, a.Cell.Row, a.Cell.Col)
	}
	e := w.entities.create()
	w.aliens.Set(e, a)
	w.cells[a.Cell] = e
	return e, nil
}

// IsAlive reports whether a handle still refers to a registered unit.
func (w *World) IsAlive(e Entity) bool {
	return w.entities.isAlive(e) && w.aliens.Has(e)
}

// Alien resolves a handle. Stale handles resolve to false.
func (w *World) Alien(e Entity) (*component.Alien, bool) {
	if !w.entities.isAlive(e) {
		return nil, false
	}
	return w.aliens.Get(e)
}

// AtCell returns the live unit occupying c.
func (w *World) AtCell(c component.Cell) (Entity, bool) {
	e, ok := w.cells[c]
	if !ok || !w.IsAlive(e) {
		return 0, false
	}
	return e, true
}

// Transition moves a unit along the lifecycle. Stale handles are ignored;
// edges outside the lifecycle are rejected. Transitioning to Destroyed
// removes the unit.
func (w *World) Transition(e Entity, to component.State) error {
	a, ok := w.Alien(e)
	if !ok {
		return nil
	}
	if !component.CanTransition(a.State, to) {
		return fmt.Errorf("%w: entity=%s %s -> %s", ErrIllegalTransition, e, a.State, to)
	}
	if to == component.Destroyed {
		w.Destroy(e)
		return nil
	}
	a.State = to
	return nil
}

// Destroy removes a unit. It reports false for stale handles.
func (w *World) Destroy(e Entity) bool {
	a, ok := w.Alien(e)
	if !ok {
		return false
	}
	a.State = component.Destroyed
	w.aliens.Remove(e)
	if w.cells[a.Cell] == e {
		delete(w.cells, a.Cell)
	}
	return w.entities.destroy(e)
}

// Clear removes every unit and returns how many were removed.
func (w *World) Clear() int {
	n := 0
	for _, e := range w.Entities() {
		if w.Destroy(e) {
			n++
		}
	}
	return n
}

// Len returns the number of live units.
func (w *World) Len() int {
	return w.entities.live
}

// Entities returns every live handle in ascending order.
func (w *World) Entities() []Entity {
	out := slices.Clone(w.aliens.Entities())
	slices.Sort(out)
	return out
}

// InState returns the live handles in state s in ascending order.
func (w *World) InState(s component.State) []Entity {
	var out []Entity
	ents := w.aliens.Entities()
	vals := w.aliens.Values()
	for i, a := range vals {
		if a.State == s {
			out = append(out, ents[i])
		}
	}
	slices.Sort(out)
	return out
}

// Count returns the number of live units in state s.
func (w *World) Count(s component.State) int {
	n := 0
	for _, a := range w.aliens.Values() {
		if a.State == s {
			n++
		}
	}
	return n
}

// ForEach visits a snapshot of the live units in handle order. fn may
// destroy units; destroyed units are skipped.
func (w *World) ForEach(fn func(e Entity, a *component.Alien)) {
	for _, e := range w.Entities() {
		a, ok := w.Alien(e)
		if !ok {
			continue
		}
		fn(e, a)
	}
}
