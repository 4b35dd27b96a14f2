package system

import (
	"github.com/milk9111/swarm/common"
	"github.com/milk9111/swarm/ecs"
	"github.com/milk9111/swarm/ecs/component"
)

// Presentation receives everything the player is meant to see. Banner calls
// return immediately and invoke done once the banner has been shown.
type Presentation interface {
	ShowPlayerBanner(player int, done func())
	ShowStageBanner(stage int, done func())
	UpdateScore(player, score int)
	UpdateLives(player, lives int)
	UpdateStage(player, stage int)
	UpdateHighScore(score int)
	ShowGameOver()
}

// Observer is notified of gameplay outcomes.
type Observer interface {
	OnWaveCleared(stage int)
	OnEntityDestroyed(e ecs.Entity, kind component.Kind, wasAttacking bool, points int)
	OnPlayerDied(player int)
	OnSessionOver(scores []int)
}

// Shot is a projectile request. Shooter is zero for player shots.
type Shot struct {
	Shooter  ecs.Entity
	Player   bool
	From     common.Vec3
	Velocity common.Vec3
}

// Armory owns projectiles in flight.
type Armory interface {
	Fire(shot Shot)
	Clear()
}

// RewardSink collects training rewards.
type RewardSink interface {
	RewardPlayer(reward float64)
	RewardAlien(e ecs.Entity, reward float64)
}

type HighScoreStore interface {
	LoadHighScore() (int, error)
	SaveHighScore(score int) error
}

// NopPresentation completes every banner immediately.
type NopPresentation struct{}

func (NopPresentation) ShowPlayerBanner(_ int, done func()) { call(done) }
func (NopPresentation) ShowStageBanner(_ int, done func()) { call(done) }
func (NopPresentation) UpdateScore(int, int) {}
func (NopPresentation) UpdateLives(int, int) {}
func (NopPresentation) UpdateStage(int, int) {}
func (NopPresentation) UpdateHighScore(int) {}
func (NopPresentation) ShowGameOver() {}

type NopObserver struct{}

func (NopObserver) OnWaveCleared(int) {}
func (NopObserver) OnEntityDestroyed(ecs.Entity, component.Kind, bool, int) {}
func (NopObserver) OnPlayerDied(int) {}
func (NopObserver) OnSessionOver([]int) {}

// Observers fans notifications out in order.
type Observers []Observer

func (o Observers) OnWaveCleared(stage int) {
	for _, obs := range o {
		obs.OnWaveCleared(stage)
	}
}

func (o Observers) OnEntityDestroyed(e ecs.Entity, kind component.Kind, wasAttacking bool, points int) {
	for _, obs := range o {
		obs.OnEntityDestroyed(e, kind, wasAttacking, points)
	}
}

func (o Observers) OnPlayerDied(player int) {
	for _, obs := range o {
		obs.OnPlayerDied(player)
	}
}

func (o Observers) OnSessionOver(scores []int) {
	for _, obs := range o {
		obs.OnSessionOver(scores)
	}
}

type NopArmory struct{}

func (NopArmory) Fire(Shot) {}
func (NopArmory) Clear() {}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
