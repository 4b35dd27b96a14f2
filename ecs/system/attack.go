package system

import (
	"fmt"
	"log"
	"math/rand"
	"slices"

	"github.com/milk9111/swarm/ecs"
	"github.com/milk9111/swarm/ecs/component"
	"github.com/milk9111/swarm/prefabs"
)

// Scoreboard exposes the session of the player currently on the field.
type Scoreboard interface {
	CurrentSession() (player int, s *component.Session)
}

// AttackScheduler sends rounds of holding units on dives, recalls them, and
// settles hits reported by the collision layer.
type AttackScheduler struct {
	world    *ecs.World
	exec     *ecs.Executor
	spec     *prefabs.GameSpec
	rng      *rand.Rand
	scoring  ScoringPolicy
	board    Scoreboard
	present  Presentation
	observer Observer
	rewards  RewardSink

	task      *ecs.Task
	attacking []ecs.Entity
	rounds    int
}

func NewAttackScheduler(world *ecs.World, exec *ecs.Executor, spec *prefabs.GameSpec, rng *rand.Rand, board Scoreboard) *AttackScheduler {
	return &AttackScheduler{
		world:    world,
		exec:     exec,
		spec:     spec,
		rng:      rng,
		scoring:  NewScoringPolicy(spec.Scoring, spec.Rewards),
		board:    board,
		present:  NopPresentation{},
		observer: NopObserver{},
	}
}

// Bind sets the ports notified when a unit is destroyed. A nil rewards sink
// disables training rewards.
func (s *AttackScheduler) Bind(present Presentation, observer Observer, rewards RewardSink) {
	if present != nil {
		s.present = present
	}
	if observer != nil {
		s.observer = observer
	}
	s.rewards = rewards
}

// Attacking returns the units sent in the current round that are still alive.
func (s *AttackScheduler) Attacking() []ecs.Entity {
	return slices.Clone(s.attacking)
}

// Rounds returns the number of rounds launched since the last Reset.
func (s *AttackScheduler) Rounds() int {
	return s.rounds
}

// Reset forgets the current round. The registry is left alone.
func (s *AttackScheduler) Reset() {
	s.task = nil
	s.attacking = nil
	s.rounds = 0
}

// Run starts the attack loop for stage. cleared runs once the registry is
// empty at the start of a round.
func (s *AttackScheduler) Run(stage int, cleared func()) *ecs.Task {
	diff := DifficultyFor(s.spec, stage)
	s.task = s.exec.Go(fmt.Sprintf("attack: stage %d", stage), func(t *ecs.Task) error {
		for {
			if t.Cancelled() {
				return ecs.ErrCancelled
			}
			if s.world.Len() == 0 {
				s.task = nil
				call(cleared)
				return nil
			}
			s.launchRound()
			if err := t.Wait(diff.RecallInterval); err != nil {
				return err
			}
			s.recall()
		}
	})
	return s.task
}

func (s *AttackScheduler) launchRound() {
	holding := s.world.InState(component.Holding)
	n := min(s.spec.AliensAttacking, len(holding))
	if n == 0 {
		return
	}
	// Partial Fisher-Yates over the sorted handles keeps selection
	// reproducible for a seeded source.
	for i := 0; i < n; i++ {
		j := i + s.rng.Intn(len(holding)-i)
		holding[i], holding[j] = holding[j], holding[i]
	}
	picked := holding[:n]
	reset := s.rng.Intn(n)

	s.rounds++
	s.attacking = s.attacking[:0]
	for i, e := range picked {
		a, ok := s.world.Alien(e)
		if !ok {
			continue
		}
		a.StartBout(i == reset)
		if err := s.world.Transition(e, component.Attacking); err != nil {
			log.Printf("attack: %v", err)
			continue
		}
		s.attacking = append(s.attacking, e)
	}
}

func (s *AttackScheduler) recall() {
	for _, e := range s.attacking {
		a, ok := s.world.Alien(e)
		if !ok || a.State != component.Attacking {
			continue
		}
		if err := s.world.Transition(e, component.Returning); err != nil {
			log.Printf("attack: recall: %v", err)
		}
	}
	s.attacking = s.attacking[:0]
}

// ReportHit applies one hit to target and returns true when the hit destroyed
// the unit. shooter is the zero handle for player shots. Any valid shooter
// marks a unit-fired shot, which is ignored before target is looked up: the
// formation takes no friendly fire, even from a shooter already destroyed.
func (s *AttackScheduler) ReportHit(target, shooter ecs.Entity) bool {
	if shooter.Valid() {
		return false
	}
	a, ok := s.world.Alien(target)
	if !ok {
		return false
	}
	a.HitPoints--
	if a.HitPoints > 0 {
		return false
	}

	kind := a.Kind
	wasAttacking := a.State == component.Attacking
	points, reward := s.scoring.Score(kind, wasAttacking)
	if !s.world.Destroy(target) {
		return false
	}
	if i := slices.Index(s.attacking, target); i >= 0 {
		s.attacking = slices.Delete(s.attacking, i, i+1)
	}

	if s.board != nil {
		if player, sess := s.board.CurrentSession(); sess != nil {
			sess.Score += points
			s.present.UpdateScore(player, sess.Score)
		}
	}
	s.observer.OnEntityDestroyed(target, kind, wasAttacking, points)
	if s.rewards != nil {
		s.rewards.RewardPlayer(reward)
	}

	if s.world.Len() == 0 && s.task != nil {
		s.exec.Wake(s.task)
	}
	return true
}
