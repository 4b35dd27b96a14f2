package system

import (
	"time"

	"github.com/milk9111/swarm/common"
	"github.com/milk9111/swarm/ecs"
	"github.com/milk9111/swarm/ecs/component"
	"github.com/milk9111/swarm/prefabs"
)

const DefaultDecisionTimeout = 5 * time.Millisecond

// Movement moves units along their lifecycle paths and steers the player.
// It is the only system that moves units, and the only place where a
// launching or returning unit becomes Holding.
type Movement struct {
	spec    *prefabs.GameSpec
	armory  Armory
	aliens  Decider
	pilot   Decider
	timeout time.Duration

	player *component.Player
	tick   int
}

func NewMovement(spec *prefabs.GameSpec, armory Armory, aliens, pilot Decider) *Movement {
	if armory == nil {
		armory = NopArmory{}
	}
	return &Movement{
		spec:    spec,
		armory:  armory,
		aliens:  aliens,
		pilot:   pilot,
		timeout: DefaultDecisionTimeout,
	}
}

// SetDecisionTimeout bounds every decision call.
func (m *Movement) SetDecisionTimeout(d time.Duration) {
	m.timeout = d
}

// SetPlayer points the system at the ship on the field; nil removes it.
func (m *Movement) SetPlayer(p *component.Player) {
	m.player = p
}

func (m *Movement) Update(w *ecs.World, dt float64) {
	m.tick++
	w.ForEach(func(e ecs.Entity, a *component.Alien) {
		m.updateAlien(w, e, a, dt)
	})
	if m.player != nil {
		m.updatePlayer(dt)
	}
}

func (m *Movement) updateAlien(w *ecs.World, e ecs.Entity, a *component.Alien, dt float64) {
	a.Cool(dt)

	switch a.State {
	case component.Launching, component.Returning:
		a.Position = common.MoveTowards(a.Position, a.Target, a.Speed*dt)
		if common.Distance(a.Position, a.Target) >= m.spec.ArrivalEpsilon {
			return
		}
		a.Position = a.Target
		if err := w.Transition(e, component.Holding); err != nil {
			return
		}
		if a.FireOnArrival {
			a.FireOnArrival = false
			m.fire(e, a)
		}
	case component.Holding:
		a.Position = a.Target
	case component.Attacking:
		m.dive(w, e, a, dt)
	}
}

func (m *Movement) dive(w *ecs.World, e ecs.Entity, a *component.Alien, dt float64) {
	obs := component.Observation{Position: a.Position, Attacking: true, Tick: m.tick}
	if m.player != nil {
		obs.Target = m.player.Position
	}
	dec := SafeDecide(m.aliens, obs, m.timeout)
	a.Horizontal = dec.Horizontal

	a.Position.X = common.Clamp(a.Position.X+dec.Horizontal*dt, m.spec.Player.MinX, m.spec.Player.MaxX)
	a.Position.Z -= a.Speed * dt
	if dec.Fire && a.CanShoot() {
		a.MarkShot()
		m.fire(e, a)
	}

	if a.Position.Z >= m.spec.Attack.BoundaryZ {
		return
	}
	// Past the bottom of the field the unit wraps to the top.
	a.Position.Z = m.spec.LaunchPads[a.Lane].Z
	if a.ResetOnPass {
		_ = w.Transition(e, component.Returning)
	}
}

func (m *Movement) fire(e ecs.Entity, a *component.Alien) {
	m.armory.Fire(Shot{
		Shooter:  e,
		From:     a.Position,
		Velocity: common.Vec3{Z: -a.BulletSpeed},
	})
}

func (m *Movement) updatePlayer(dt float64) {
	p := m.player
	p.Cool(dt)

	obs := component.Observation{Position: p.Position, Player: true, Tick: m.tick}
	dec := SafeDecide(m.pilot, obs, m.timeout)
	p.Horizontal = common.Clamp(dec.Horizontal, -m.spec.Player.Speed, m.spec.Player.Speed)
	p.Position.X = common.Clamp(p.Position.X+p.Horizontal*dt, m.spec.Player.MinX, m.spec.Player.MaxX)

	if dec.Fire && p.Ready() {
		p.Reload(m.spec.Player.ShootDelay)
		m.armory.Fire(Shot{
			Player:   true,
			From:     p.Position,
			Velocity: common.Vec3{Z: m.spec.Player.BulletSpeed},
		})
	}
}
