package component

import "github.com/milk9111/swarm/common"

// Session is the per-player progression.
type Session struct {
	Score int
	Lives int
	Stage int
}

// Player is the ship the formation attacks.
type Player struct {
	Position   common.Vec3
	Horizontal float64
	reload     float64
}

// Ready reports whether the player may fire.
func (p *Player) Ready() bool {
	return p.reload <= 0
}

// Reload starts the shot delay.
func (p *Player) Reload(delay float64) {
	p.reload = delay
}

// Cool advances the shot delay by dt seconds.
func (p *Player) Cool(dt float64) {
	if p.reload > 0 {
		p.reload -= dt
	}
}
