package ecs

import "fmt"

// Entity is a stable handle to a formation unit. The low half addresses a
// slot, the high half holds the slot generation at spawn time, so a handle
// kept past Destroy never resolves to the unit that later reuses the slot.
// The zero Entity is never issued and doubles as "no unit".
type Entity uint64

type (
	entityID   uint32
	generation uint32
)

const entityIDBits = 32

func makeEntity(id entityID, gen generation) Entity {
	return Entity(uint64(gen)<<entityIDBits | uint64(id))
}

func (e Entity) id() entityID { return entityID(uint32(e)) }
func (e Entity) generation() generation { return generation(uint32(uint64(e) >> entityIDBits)) }

func (e Entity) String() string {
	if !e.Valid() {
		return "unit(none)"
	}
	return fmt.Sprintf("unit(%d@%d)", e.id(), e.generation())
}

// Valid reports whether e was issued by a registry. It says nothing about
// whether the unit is still alive.
func (e Entity) Valid() bool {
	return e.id() > 0
}

// entityStore issues handles. Destroying a handle bumps its slot generation
// and queues the slot for reuse.
type entityStore struct {
	gens []generation
	free []entityID
	live int
}

func (s *entityStore) create() Entity {
	s.live++
	if n := len(s.free); n > 0 {
		id := s.free[n-1]
		s.free = s.free[:n-1]
		return makeEntity(id, s.gens[id-1])
	}
	s.gens = append(s.gens, 0)
	return makeEntity(entityID(len(s.gens)), 0)
}

func (s *entityStore) destroy(e Entity) bool {
	if !s.isAlive(e) {
		return false
	}
	s.gens[e.id()-1]++
	s.free = append(s.free, e.id())
	s.live--
	return true
}

func (s *entityStore) isAlive(e Entity) bool {
	id := e.id()
	return id > 0 && int(id) <= len(s.gens) && s.gens[id-1] == e.generation()
}
