package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/milk9111/swarm/ecs"
	"github.com/milk9111/swarm/ecs/component"
	"github.com/milk9111/swarm/ecs/system"
	"github.com/milk9111/swarm/physics"
	"github.com/milk9111/swarm/prefabs"
)

const tickRate = 60

type runConfig struct {
	spec        *prefabs.GameSpec
	wave        component.Wave
	players     int
	episodes    int
	seed        int64
	alienScript string
	autopilot   string
	limit       time.Duration
}

// result summarizes one headless session.
type result struct {
	Session   int
	Seed      int64
	Scores    []int
	Stages    []int
	Cleared   int
	Destroyed int
	Deaths    int
	Episodes  int
	Reward    float64
	Elapsed   time.Duration
	Finished  bool
}

// tally counts outcomes and training rewards for a session.
type tally struct {
	cleared     int
	destroyed   int
	deaths      int
	reward      float64
	alienReward float64
}

func (t *tally) OnWaveCleared(int) { t.cleared++ }
func (t *tally) OnEntityDestroyed(ecs.Entity, component.Kind, bool, int) { t.destroyed++ }
func (t *tally) OnPlayerDied(int) { t.deaths++ }
func (t *tally) OnSessionOver([]int) {}
func (t *tally) RewardPlayer(r float64) { t.reward += r }
func (t *tally) RewardAlien(_ ecs.Entity, r float64) { t.alienReward += r }

func deciders(cfg runConfig, seed int64) (aliens, pilot system.Decider, err error) {
	if cfg.alienScript != "" {
		if aliens, err = system.NewScriptDecider(cfg.alienScript); err != nil {
			return nil, nil, err
		}
	} else {
		aliens = system.RandomDecider{Rand: rand.New(rand.NewSource(seed + 1)), Max: 6}
	}
	if pilot, err = system.NewScriptDecider(cfg.autopilot); err != nil {
		return nil, nil, err
	}
	return aliens, pilot, nil
}

// runSession plays one session to game over, or to the episode count in
// training, stepping the field at a fixed rate until limit of game time.
func runSession(cfg runConfig, n int) (result, error) {
	seed := cfg.seed + int64(n)
	res := result{Session: n, Seed: seed}

	aliens, pilot, err := deciders(cfg, seed)
	if err != nil {
		return res, err
	}

	exec := ecs.NewExecutor()
	arena := physics.NewArena()
	t := &tally{}
	flow, err := system.NewFlow(system.FlowOptions{
		Spec:          cfg.spec,
		Wave:          &cfg.wave,
		Executor:      exec,
		Rand:          rand.New(rand.NewSource(seed)),
		Observer:      t,
		Armory:        arena,
		Rewards:       t,
		AlienDecider:  aliens,
		PlayerDecider: pilot,
		Systems:       []ecs.System{arena},
		OnTransition: func(_, to system.FlowState) {
			if to == system.ResetEpisode {
				res.Episodes++
			}
		},
	})
	if err != nil {
		return res, err
	}
	arena.Bind(flow, flow)
	defer flow.Stop()

	if err := flow.Start(cfg.players); err != nil {
		return res, fmt.Errorf("session %d: %w", n, err)
	}

	ticks := 0
	for res.Elapsed < cfg.limit {
		flow.Update(1.0 / tickRate)
		ticks++
		res.Elapsed = time.Duration(ticks) * time.Second / tickRate

		if flow.State() == system.GameOver {
			res.Finished = true
			break
		}
		if cfg.spec.Training && res.Episodes >= cfg.episodes {
			res.Finished = true
			break
		}
	}

	for _, s := range flow.Sessions() {
		res.Scores = append(res.Scores, s.Score)
		res.Stages = append(res.Stages, s.Stage)
	}
	res.Cleared = t.cleared
	res.Destroyed = t.destroyed
	res.Deaths = t.deaths
	res.Reward = t.reward
	return res, nil
}
