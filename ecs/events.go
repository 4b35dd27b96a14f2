package ecs

import "github.com/milk9111/swarm/ecs/component"

// EventType identifies an outcome event.
type EventType string

const (
	EventWaveCleared     EventType = "wave_cleared"
	EventEntityDestroyed EventType = "entity_destroyed"
	EventPlayerDied      EventType = "player_died"
	EventSessionOver     EventType = "session_over"
)

// Event is an outcome reported by the scheduling core.
type Event struct {
	Type         EventType
	Stage        int
	Player       int
	Entity       Entity
	Kind         component.Kind
	WasAttacking bool
	Points       int
	Scores       []int
}

// EventQueue is a simple FIFO queue. It satisfies the core's observer port so
// hosts can drain outcomes once per frame.
type EventQueue struct {
	items []Event
}

// Push adds an event.
func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

// Drain returns all events and clears the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}

func (q *EventQueue) OnWaveCleared(stage int) {
	q.Push(Event{Type: EventWaveCleared, Stage: stage})
}

func (q *EventQueue) OnEntityDestroyed(e Entity, kind component.Kind, wasAttacking bool, points int) {
	q.Push(Event{Type: EventEntityDestroyed, Entity: e, Kind: kind, WasAttacking: wasAttacking, Points: points})
}

func (q *EventQueue) OnPlayerDied(player int) {
	q.Push(Event{Type: EventPlayerDied, Player: player})
}

func (q *EventQueue) OnSessionOver(scores []int) {
	q.Push(Event{Type: EventSessionOver, Scores: append([]int(nil), scores...)})
}
