package system

import (
	"time"

	"github.com/milk9111/swarm/prefabs"
)

// Difficulty is the per-stage tuning derived from the game config. Every third
// stage raises the tier.
type Difficulty struct {
	Stage         int
	Tier          int
	Speed         float64
	BulletSpeed   float64
	ShootCooldown float64
	// TimeDecrement shortens every load phase timeout.
	TimeDecrement  time.Duration
	MinPhase       time.Duration
	RecallInterval time.Duration
	// AttackOnLoad makes one unit per lane sequence fire as it arrives.
	AttackOnLoad bool
}

func DifficultyFor(spec *prefabs.GameSpec, stage int) Difficulty {
	if stage < 1 {
		stage = 1
	}
	tier := stage / 3
	d := spec.Difficulty
	recall := d.RecallInterval - float64(tier)*d.RecallDecrement
	if recall < d.MinRecallInterval {
		recall = d.MinRecallInterval
	}
	return Difficulty{
		Stage:          stage,
		Tier:           tier,
		Speed:          spec.Alien.Speed + float64(tier)*d.SpeedIncrement,
		BulletSpeed:    spec.Alien.BulletSpeed + float64(tier)*d.BulletSpeedIncrement,
		ShootCooldown:  spec.Alien.ShootCooldown,
		TimeDecrement:  seconds(float64(tier) * d.TimeDecrementStep),
		MinPhase:       seconds(d.MinPhaseTimeout),
		RecallInterval: seconds(recall),
		AttackOnLoad:   stage%3 == 0,
	}
}

// PhaseTimeout applies the stage decrement to an authored phase timeout.
func (d Difficulty) PhaseTimeout(base float64) time.Duration {
	timeout := seconds(base) - d.TimeDecrement
	if timeout < d.MinPhase {
		return d.MinPhase
	}
	return timeout
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
