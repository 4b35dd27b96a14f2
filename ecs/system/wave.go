package system

import (
	"errors"
	"fmt"
	"log"
	"math/rand"

	"github.com/milk9111/swarm/ecs"
	"github.com/milk9111/swarm/ecs/component"
	"github.com/milk9111/swarm/prefabs"
)

const WavePhases = 5

var ErrInvalidWave = errors.New("system: invalid wave")

// LoadState tracks the progress of a wave load.
type LoadState int

const (
	LoadIdle LoadState = iota
	LoadPhase1
	LoadPhase2
	LoadPhase3
	LoadPhase4
	LoadPhase5
	LoadDone
	LoadAborted
)

func (s LoadState) String() string {
	switch {
	case s == LoadIdle:
		return "idle"
	case s >= LoadPhase1 && s <= LoadPhase5:
		return fmt.Sprintf("phase%d", int(s-LoadPhase1)+1)
	case s == LoadDone:
		return "done"
	case s == LoadAborted:
		return "aborted"
	default:
		return fmt.Sprintf("load(%d)", int(s))
	}
}

// WaveLoader spawns a wave phase by phase and launches each phase as two
// staggered lane sequences.
type WaveLoader struct {
	world *ecs.World
	exec  *ecs.Executor
	spec  *prefabs.GameSpec
	wave  component.Wave
	grid  component.Grid
	rng   *rand.Rand

	state LoadState
	task  *ecs.Task
}

func NewWaveLoader(world *ecs.World, exec *ecs.Executor, spec *prefabs.GameSpec, wave component.Wave, rng *rand.Rand) (*WaveLoader, error) {
	grid, err := BuildGrid(spec.Grid.Rows, spec.Grid.Cols, spec.Grid.Gap, spec.Grid.Origin.Vec3())
	if err != nil {
		return nil, err
	}
	if len(wave.Phases) != WavePhases {
		return nil, fmt.Errorf("%w: %d phases, want %d", ErrInvalidWave, len(wave.Phases), WavePhases)
	}
	for i, phase := range wave.Phases {
		for _, p := range phase.Placements {
			if _, ok := grid.At(p.Cell); !ok {
				return nil, fmt.Errorf("%w: phase %d cell %d,%d outside %dx%d grid", ErrInvalidWave, i+1, p.Cell.Row, p.Cell.Col, grid.Rows, grid.Cols)
			}
			if p.Lane < 0 || p.Lane >= len(spec.LaunchPads) {
				return nil, fmt.Errorf("%w: phase %d lane %d", ErrInvalidWave, i+1, p.Lane)
			}
		}
	}
	return &WaveLoader{world: world, exec: exec, spec: spec, wave: wave, grid: grid, rng: rng}, nil
}

func (l *WaveLoader) State() LoadState {
	return l.state
}

func (l *WaveLoader) Grid() component.Grid {
	return l.grid
}

// Load starts loading the wave for stage. done runs once the last phase has
// timed out; it is not called when the load is cancelled.
func (l *WaveLoader) Load(stage int, done func()) *ecs.Task {
	diff := DifficultyFor(l.spec, stage)
	l.state = LoadIdle
	l.task = l.exec.Go(fmt.Sprintf("wave: stage %d", stage), func(t *ecs.Task) error {
		for i, phase := range l.wave.Phases {
			if t.Cancelled() {
				l.state = LoadAborted
				return ecs.ErrCancelled
			}
			l.state = LoadPhase1 + LoadState(i)
			lanes := l.spawnPhase(phase, diff)
			for lane, units := range lanes {
				if len(units) == 0 {
					continue
				}
				if diff.AttackOnLoad {
					l.armOne(units)
				}
				l.exec.Go(fmt.Sprintf("wave: phase %d lane %d", i+1, lane), l.launch(units))
			}
			if err := t.Wait(diff.PhaseTimeout(phase.Timeout)); err != nil {
				l.state = LoadAborted
				return err
			}
		}
		l.state = LoadDone
		call(done)
		return nil
	})
	return l.task
}

func (l *WaveLoader) spawnPhase(phase component.Phase, diff Difficulty) [][]ecs.Entity {
	lanes := make([][]ecs.Entity, len(l.spec.LaunchPads))
	for _, p := range phase.Placements {
		target, _ := l.grid.At(p.Cell)
		a := component.NewAlien(p.Kind, p.Cell, target)
		a.Position = l.spec.LaunchPads[p.Lane].Vec3()
		a.Lane = p.Lane
		a.Speed = diff.Speed
		a.BulletSpeed = diff.BulletSpeed
		a.ShootCooldown = diff.ShootCooldown

		e, err := l.world.Spawn(a)
		if err != nil {
			log.Printf("wave: spawn %s at %d,%d: %v", p.Kind, p.Cell.Row, p.Cell.Col, err)
			continue
		}
		lanes[p.Lane] = append(lanes[p.Lane], e)
	}
	return lanes
}

func (l *WaveLoader) armOne(units []ecs.Entity) {
	if a, ok := l.world.Alien(units[l.rng.Intn(len(units))]); ok {
		a.FireOnArrival = true
	}
}

// launch releases units one by one, waiting the stagger after each.
func (l *WaveLoader) launch(units []ecs.Entity) func(t *ecs.Task) error {
	stagger := seconds(l.spec.LaunchStagger)
	return func(t *ecs.Task) error {
		for _, e := range units {
			if !l.world.IsAlive(e) {
				continue
			}
			if err := l.world.Transition(e, component.Launching); err != nil {
				log.Printf("wave: launch %s: %v", e, err)
				continue
			}
			if err := t.Wait(stagger); err != nil {
				return err
			}
		}
		return nil
	}
}
