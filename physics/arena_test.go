package physics

import (
	"testing"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/swarm/common"
	"github.com/milk9111/swarm/ecs"
	"github.com/milk9111/swarm/ecs/component"
	"github.com/milk9111/swarm/ecs/system"
)

const tick = 1.0 / 60

type hit struct {
	target  ecs.Entity
	shooter ecs.Entity
}

type recordSink struct {
	world       *ecs.World
	hits        []hit
	playerHits  []ecs.Entity
	destroyHits bool
}

func (s *recordSink) ReportHit(target, shooter ecs.Entity) bool {
	s.hits = append(s.hits, hit{target, shooter})
	if s.destroyHits {
		return s.world.Destroy(target)
	}
	return false
}

func (s *recordSink) OnPlayerHit(source ecs.Entity) {
	s.playerHits = append(s.playerHits, source)
}

type fixedPlayer struct {
	player component.Player
	on     bool
}

func (p *fixedPlayer) Player() (component.Player, bool) {
	return p.player, p.on
}

func spawnAt(t *testing.T, w *ecs.World, col int, pos common.Vec3) ecs.Entity {
	t.Helper()
	a := component.NewAlien(component.LightGrunt, component.Cell{Col: col}, pos)
	e, err := w.Spawn(a)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	return e
}

func newTestArena(w *ecs.World, player *fixedPlayer) (*Arena, *recordSink) {
	sink := &recordSink{world: w}
	arena := NewArena()
	arena.Bind(sink, player)
	return arena, sink
}

func run(a *Arena, w *ecs.World, steps int) {
	for i := 0; i < steps; i++ {
		a.Update(w, tick)
	}
}

func TestArenaPlayerShotHitsUnit(t *testing.T) {
	w := ecs.NewWorld()
	e := spawnAt(t, w, 0, common.Vec3{X: 0, Z: 5})
	arena, sink := newTestArena(w, &fixedPlayer{})
	sink.destroyHits = true

	arena.Fire(system.Shot{Player: true, From: common.Vec3{Z: -4}, Velocity: common.Vec3{Z: 20}})
	run(arena, w, 60)

	if len(sink.hits) != 1 || sink.hits[0].target != e || sink.hits[0].shooter.Valid() {
		t.Fatalf("hits = %+v", sink.hits)
	}
	if len(arena.Shots()) != 0 {
		t.Fatalf("spent shot still in flight")
	}
}

func TestArenaPlayerShotMisses(t *testing.T) {
	w := ecs.NewWorld()
	spawnAt(t, w, 0, common.Vec3{X: 5, Z: 5})
	arena, sink := newTestArena(w, &fixedPlayer{})

	arena.Fire(system.Shot{Player: true, From: common.Vec3{Z: -4}, Velocity: common.Vec3{Z: 20}})
	run(arena, w, 30)
	if len(arena.Shots()) != 1 {
		t.Fatalf("shots in flight = %d", len(arena.Shots()))
	}
	if got := arena.Shots()[0].From.Z; got < 5.5 || got > 6.5 {
		t.Fatalf("shot at z=%v after 0.5s, want ~6", got)
	}

	run(arena, w, 120)
	if len(sink.hits) != 0 {
		t.Fatalf("hits = %+v", sink.hits)
	}
	if len(arena.Shots()) != 0 {
		t.Fatalf("stray shot not dropped")
	}
}

func TestArenaUnitShotHitsPlayer(t *testing.T) {
	w := ecs.NewWorld()
	shooter := spawnAt(t, w, 0, common.Vec3{X: -1, Z: 5})
	player := &fixedPlayer{player: component.Player{Position: common.Vec3{X: -1.1, Z: -4}}, on: true}
	arena, sink := newTestArena(w, player)

	arena.Fire(system.Shot{Shooter: shooter, From: common.Vec3{X: -1, Z: 5}, Velocity: common.Vec3{Z: -10}})
	run(arena, w, 120)

	if len(sink.playerHits) != 1 || sink.playerHits[0] != shooter {
		t.Fatalf("player hits = %v", sink.playerHits)
	}
	if len(sink.hits) != 0 {
		t.Fatalf("unit shot damaged a unit: %+v", sink.hits)
	}
}

func TestArenaCrash(t *testing.T) {
	w := ecs.NewWorld()
	e := spawnAt(t, w, 0, common.Vec3{X: 3, Z: 0})
	player := &fixedPlayer{player: component.Player{Position: common.Vec3{X: 3, Z: 0.5}}, on: true}
	arena, sink := newTestArena(w, player)

	run(arena, w, 1)
	if len(sink.playerHits) != 1 || sink.playerHits[0] != e {
		t.Fatalf("player hits = %v", sink.playerHits)
	}
}

func TestArenaTracksRegistry(t *testing.T) {
	w := ecs.NewWorld()
	e := spawnAt(t, w, 0, common.Vec3{X: 0, Z: 5})
	arena, sink := newTestArena(w, &fixedPlayer{})
	run(arena, w, 1)

	w.Destroy(e)
	arena.Fire(system.Shot{Player: true, From: common.Vec3{Z: -4}, Velocity: common.Vec3{Z: 20}})
	run(arena, w, 60)
	if len(sink.hits) != 0 {
		t.Fatalf("shot hit a destroyed unit: %+v", sink.hits)
	}
}

func TestArenaClear(t *testing.T) {
	w := ecs.NewWorld()
	spawnAt(t, w, 0, common.Vec3{X: 0, Z: 5})
	arena, _ := newTestArena(w, &fixedPlayer{on: true})
	run(arena, w, 1)

	for i := 0; i < 5; i++ {
		arena.Fire(system.Shot{Player: true, Velocity: common.Vec3{X: 20}})
	}
	arena.Clear()
	if len(arena.Shots()) != 0 {
		t.Fatalf("shots after Clear = %d", len(arena.Shots()))
	}
	bodies := 0
	arena.Space().EachBody(func(*cp.Body) { bodies++ })
	if bodies != 0 {
		t.Fatalf("bodies after Clear = %d", bodies)
	}
}
