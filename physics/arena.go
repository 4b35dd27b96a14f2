package physics

import (
	"math"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/swarm/common"
	"github.com/milk9111/swarm/ecs"
	"github.com/milk9111/swarm/ecs/component"
	"github.com/milk9111/swarm/ecs/system"
)

const (
	collisionTypeAlien cp.CollisionType = iota + 1
	collisionTypePlayer
	collisionTypePlayerShot
	collisionTypeAlienShot
)

const (
	AlienRadius  = 0.6
	PlayerRadius = 0.6
	ShotRadius   = 0.15

	// Shots further than this from the origin on either axis are dropped.
	FieldLimit = 30.0
)

// HitSink settles the hits found by the arena.
type HitSink interface {
	ReportHit(target, shooter ecs.Entity) bool
	OnPlayerHit(source ecs.Entity)
}

// PlayerSource reports the player ship, if it is on the field.
type PlayerSource interface {
	Player() (component.Player, bool)
}

type shot struct {
	system.Shot
	body  *cp.Body
	shape *cp.Shape
	spent bool
}

type contact struct {
	target  ecs.Entity
	shooter ecs.Entity
	player  bool
	shot    *shot
}

// Arena tracks projectiles and unit/player overlaps in a Chipmunk space. The
// field's z axis maps to the space's y axis. Every body is kinematic and every
// shape is a sensor, so the space only detects contacts and never resolves
// them.
type Arena struct {
	space   *cp.Space
	sink    HitSink
	players PlayerSource

	aliens      map[ecs.Entity]*cp.Shape
	playerShape *cp.Shape
	shots       []*shot
	contacts    []contact
	epoch       int
}

func NewArena() *Arena {
	space := cp.NewSpace()
	space.SetGravity(cp.Vector{})

	a := &Arena{
		space:  space,
		aliens: make(map[ecs.Entity]*cp.Shape),
	}
	a.setupHandlers()
	return a
}

// Bind sets where hits are reported and where the player is read from.
func (a *Arena) Bind(sink HitSink, players PlayerSource) {
	a.sink = sink
	a.players = players
}

// Space returns the underlying Chipmunk space.
func (a *Arena) Space() *cp.Space {
	return a.space
}

func (a *Arena) setupHandlers() {
	hit := a.space.NewCollisionHandler(collisionTypePlayerShot, collisionTypeAlien)
	hit.UserData = a
	hit.BeginFunc = func(arb *cp.Arbiter, _ *cp.Space, userData interface{}) bool {
		arena, ok := userData.(*Arena)
		if !ok {
			return false
		}
		shotShape, alienShape := arb.Shapes()
		s, _ := shotShape.UserData.(*shot)
		e, _ := alienShape.UserData.(ecs.Entity)
		if s != nil {
			arena.contacts = append(arena.contacts, contact{target: e, shooter: s.Shooter, shot: s})
		}
		return false
	}

	shotDown := a.space.NewCollisionHandler(collisionTypeAlienShot, collisionTypePlayer)
	shotDown.UserData = a
	shotDown.BeginFunc = func(arb *cp.Arbiter, _ *cp.Space, userData interface{}) bool {
		arena, ok := userData.(*Arena)
		if !ok {
			return false
		}
		shotShape, _ := arb.Shapes()
		if s, _ := shotShape.UserData.(*shot); s != nil {
			arena.contacts = append(arena.contacts, contact{player: true, shooter: s.Shooter, shot: s})
		}
		return false
	}

	crash := a.space.NewCollisionHandler(collisionTypeAlien, collisionTypePlayer)
	crash.UserData = a
	crash.BeginFunc = func(arb *cp.Arbiter, _ *cp.Space, userData interface{}) bool {
		arena, ok := userData.(*Arena)
		if !ok {
			return false
		}
		alienShape, _ := arb.Shapes()
		e, _ := alienShape.UserData.(ecs.Entity)
		arena.contacts = append(arena.contacts, contact{player: true, shooter: e})
		return false
	}
}

// Fire implements system.Armory.
func (a *Arena) Fire(s system.Shot) {
	body := a.space.AddBody(cp.NewKinematicBody())
	body.SetPosition(toVector(s.From))
	body.SetVelocity(s.Velocity.X, s.Velocity.Z)

	shape := a.space.AddShape(cp.NewCircle(body, ShotRadius, cp.Vector{}))
	shape.SetSensor(true)
	if s.Player {
		shape.SetCollisionType(collisionTypePlayerShot)
	} else {
		shape.SetCollisionType(collisionTypeAlienShot)
	}

	sh := &shot{Shot: s, body: body, shape: shape}
	shape.UserData = sh
	a.shots = append(a.shots, sh)
}

// Clear implements system.Armory. It also forgets the player and every unit;
// they are picked up again on the next Update.
func (a *Arena) Clear() {
	for _, s := range a.shots {
		a.removeBody(s.shape)
	}
	a.shots = nil
	for e, shape := range a.aliens {
		a.removeBody(shape)
		delete(a.aliens, e)
	}
	if a.playerShape != nil {
		a.removeBody(a.playerShape)
		a.playerShape = nil
	}
	a.contacts = nil
	a.epoch++
}

// Shots returns the projectiles in flight at their current positions.
func (a *Arena) Shots() []system.Shot {
	out := make([]system.Shot, 0, len(a.shots))
	for _, s := range a.shots {
		cur := s.Shot
		cur.From = fromVector(s.body.Position())
		out = append(out, cur)
	}
	return out
}

// Update syncs unit and player bodies, steps the space and reports contacts.
func (a *Arena) Update(w *ecs.World, dt float64) {
	a.syncAliens(w)
	a.syncPlayer()

	a.contacts = a.contacts[:0]
	a.space.Step(dt)
	a.dropStrayShots()

	contacts := append([]contact(nil), a.contacts...)
	epoch := a.epoch
	for _, c := range contacts {
		if a.epoch != epoch || a.sink == nil {
			return
		}
		if c.shot != nil && c.shot.spent {
			continue
		}
		if c.player {
			a.spend(c.shot)
			a.sink.OnPlayerHit(c.shooter)
			continue
		}
		if !w.IsAlive(c.target) {
			continue
		}
		a.spend(c.shot)
		a.sink.ReportHit(c.target, c.shooter)
	}
}

func (a *Arena) syncAliens(w *ecs.World) {
	for e, shape := range a.aliens {
		if !w.IsAlive(e) {
			a.removeBody(shape)
			delete(a.aliens, e)
		}
	}
	w.ForEach(func(e ecs.Entity, al *component.Alien) {
		shape, ok := a.aliens[e]
		if !ok {
			body := a.space.AddBody(cp.NewKinematicBody())
			shape = a.space.AddShape(cp.NewCircle(body, AlienRadius, cp.Vector{}))
			shape.SetSensor(true)
			shape.SetCollisionType(collisionTypeAlien)
			shape.UserData = e
			a.aliens[e] = shape
		}
		shape.Body().SetPosition(toVector(al.Position))
	})
}

func (a *Arena) syncPlayer() {
	var (
		p  component.Player
		on bool
	)
	if a.players != nil {
		p, on = a.players.Player()
	}
	if !on {
		if a.playerShape != nil {
			a.removeBody(a.playerShape)
			a.playerShape = nil
		}
		return
	}
	if a.playerShape == nil {
		body := a.space.AddBody(cp.NewKinematicBody())
		a.playerShape = a.space.AddShape(cp.NewCircle(body, PlayerRadius, cp.Vector{}))
		a.playerShape.SetSensor(true)
		a.playerShape.SetCollisionType(collisionTypePlayer)
	}
	a.playerShape.Body().SetPosition(toVector(p.Position))
}

func (a *Arena) dropStrayShots() {
	kept := a.shots[:0]
	for _, s := range a.shots {
		pos := s.body.Position()
		if s.spent || math.Abs(pos.X) > FieldLimit || math.Abs(pos.Y) > FieldLimit {
			if !s.spent {
				a.removeBody(s.shape)
			}
			continue
		}
		kept = append(kept, s)
	}
	for i := len(kept); i < len(a.shots); i++ {
		a.shots[i] = nil
	}
	a.shots = kept
}

func (a *Arena) spend(s *shot) {
	if s == nil || s.spent {
		return
	}
	s.spent = true
	a.removeBody(s.shape)
	for i, cur := range a.shots {
		if cur == s {
			a.shots = append(a.shots[:i], a.shots[i+1:]...)
			break
		}
	}
}

func (a *Arena) removeBody(shape *cp.Shape) {
	body := shape.Body()
	if a.space.ContainsShape(shape) {
		a.space.RemoveShape(shape)
	}
	if body != nil && a.space.ContainsBody(body) {
		a.space.RemoveBody(body)
	}
}

func toVector(v common.Vec3) cp.Vector {
	return cp.Vector{X: v.X, Y: v.Z}
}

func fromVector(v cp.Vector) common.Vec3 {
	return common.Vec3{X: v.X, Z: v.Y}
}
