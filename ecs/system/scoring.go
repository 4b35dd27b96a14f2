package system

import (
	"github.com/milk9111/swarm/ecs/component"
	"github.com/milk9111/swarm/prefabs"
)

// ScoringPolicy maps a destroyed unit to points and a training reward.
type ScoringPolicy struct {
	points  map[component.Kind][2]int
	rewards prefabs.RewardSpec
}

func NewScoringPolicy(scoring prefabs.ScoringSpec, rewards prefabs.RewardSpec) ScoringPolicy {
	return ScoringPolicy{
		points: map[component.Kind][2]int{
			component.LightGrunt:  {scoring.Light.Holding, scoring.Light.Attacking},
			component.MediumGrunt: {scoring.Medium.Holding, scoring.Medium.Attacking},
			component.Boss:        {scoring.Boss.Holding, scoring.Boss.Attacking},
		},
		rewards: rewards,
	}
}

// Score returns the points for destroying a unit of kind and the reward the
// player agent earns for it.
func (p ScoringPolicy) Score(kind component.Kind, wasAttacking bool) (int, float64) {
	pts, ok := p.points[kind]
	if !ok {
		return 0, 0
	}
	points := pts[0]
	if wasAttacking {
		points = pts[1]
	}
	reward := 0.0
	if p.rewards.PointsScale > 0 {
		reward = float64(points) / p.rewards.PointsScale
	}
	return points, reward
}

// PlayerHitRewards returns the rewards for the player agent and for the unit
// that hit it.
func (p ScoringPolicy) PlayerHitRewards() (player, alien float64) {
	return p.rewards.PlayerHit, p.rewards.AlienHitPlayer
}

// WaveClearedReward is granted to the player agent on a cleared wave.
func (p ScoringPolicy) WaveClearedReward() float64 {
	return p.rewards.WaveCleared
}
