package component

import (
	"fmt"

	"github.com/milk9111/swarm/common"
)

// Kind identifies an enemy archetype.
type Kind int

const (
	LightGrunt Kind = iota
	MediumGrunt
	Boss
)

func (k Kind) String() string {
	switch k {
	case LightGrunt:
		return "light"
	case MediumGrunt:
		return "medium"
	case Boss:
		return "boss"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind accepts the config names as well as the arcade names.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "light", "stringer":
		return LightGrunt, nil
	case "medium", "goei":
		return MediumGrunt, nil
	case "boss", "boss_galaga":
		return Boss, nil
	}
	return 0, fmt.Errorf("unknown enemy kind %q", s)
}

// MaxHitPoints is the number of hits needed to destroy a unit of this kind.
func (k Kind) MaxHitPoints() int {
	if k == Boss {
		return 2
	}
	return 1
}

// State is the lifecycle state of a formation unit.
type State int

const (
	Queued State = iota
	Launching
	Holding
	Attacking
	Returning
	Destroyed
)

func (s State) String() string {
	switch s {
	case Queued:
		return "queued"
	case Launching:
		return "launching"
	case Holding:
		return "holding"
	case Attacking:
		return "attacking"
	case Returning:
		return "returning"
	case Destroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var legalTransitions = map[State][]State{
	Queued:    {Launching, Destroyed},
	Launching: {Holding, Destroyed},
	Holding:   {Attacking, Destroyed},
	Attacking: {Returning, Destroyed},
	Returning: {Holding, Destroyed},
}

// CanTransition reports whether from -> to is an edge of the unit lifecycle.
// Destroyed is reachable from every live state since a hit can land at any
// time; it is terminal.
func CanTransition(from, to State) bool {
	for _, s := range legalTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Cell addresses a formation slot.
type Cell struct {
	Row int
	Col int
}

const MaxShotsPerBout = 3

// Alien is the single record kept per enemy unit.
type Alien struct {
	Kind          Kind
	Cell          Cell
	Target        common.Vec3
	Position      common.Vec3
	Speed         float64
	BulletSpeed   float64
	ShootCooldown float64
	Lane          int
	State         State
	HitPoints     int

	// ShotsFired counts shots in the current attack bout.
	ShotsFired int
	// ResetOnPass makes an attacker rejoin the formation after one dive.
	ResetOnPass bool
	// FireOnArrival fires one shot when the unit reaches its slot.
	FireOnArrival bool
	// Horizontal is the last decision input applied while diving.
	Horizontal float64

	cooldown float64
}

// NewAlien builds a queued unit for a formation slot.
func NewAlien(kind Kind, cell Cell, target common.Vec3) *Alien {
	return &Alien{
		Kind:      kind,
		Cell:      cell,
		Target:    target,
		Position:  target,
		State:     Queued,
		HitPoints: kind.MaxHitPoints(),
	}
}

// CanShoot reports whether the unit may fire right now.
func (a *Alien) CanShoot() bool {
	return a.ShotsFired < MaxShotsPerBout && a.cooldown <= 0
}

// MarkShot records a shot and restarts the per-shot cooldown.
func (a *Alien) MarkShot() {
	a.ShotsFired++
	a.cooldown = a.ShootCooldown
}

// Cool advances the shot cooldown by dt seconds.
func (a *Alien) Cool(dt float64) {
	if a.cooldown > 0 {
		a.cooldown -= dt
	}
}

// StartBout resets per-bout attack bookkeeping.
func (a *Alien) StartBout(resetOnPass bool) {
	a.ShotsFired = 0
	a.cooldown = 0
	a.ResetOnPass = resetOnPass
	a.Horizontal = 0
}
