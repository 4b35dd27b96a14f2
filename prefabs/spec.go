package prefabs

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/milk9111/swarm/common"
	"github.com/milk9111/swarm/ecs/component"
)

const (
	GameSpecFile = "game.yaml"
	WaveSpecFile = "wave.yaml"
)

var ErrInvalidConfig = errors.New("prefabs: invalid config")

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

type Vec3Spec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func (v Vec3Spec) Vec3() common.Vec3 {
	return common.Vec3{X: v.X, Y: v.Y, Z: v.Z}
}

type GridSpec struct {
	Rows   int      `yaml:"rows"`
	Cols   int      `yaml:"cols"`
	Gap    float64  `yaml:"gap"`
	Origin Vec3Spec `yaml:"origin"`
}

type AlienSpec struct {
	Speed         float64 `yaml:"speed"`
	BulletSpeed   float64 `yaml:"bullet_speed"`
	ShootCooldown float64 `yaml:"shoot_cooldown"`
}

type DifficultySpec struct {
	SpeedIncrement       float64 `yaml:"speed_increment"`
	BulletSpeedIncrement float64 `yaml:"bullet_speed_increment"`
	TimeDecrementStep    float64 `yaml:"time_decrement_step"`
	MinPhaseTimeout      float64 `yaml:"min_phase_timeout"`
	RecallInterval       float64 `yaml:"recall_interval"`
	RecallDecrement      float64 `yaml:"recall_decrement"`
	MinRecallInterval    float64 `yaml:"min_recall_interval"`
}

type AttackSpec struct {
	BoundaryZ float64 `yaml:"boundary_z"`
}

type PlayerSpec struct {
	Start       Vec3Spec `yaml:"start"`
	MinX        float64  `yaml:"min_x"`
	MaxX        float64  `yaml:"max_x"`
	Speed       float64  `yaml:"speed"`
	ShootDelay  float64  `yaml:"shoot_delay"`
	BulletSpeed float64  `yaml:"bullet_speed"`
}

type DisplaySpec struct {
	LeadIn       float64 `yaml:"lead_in"`
	PlayerBanner float64 `yaml:"player_banner"`
	StageBanner  float64 `yaml:"stage_banner"`
}

type PointsSpec struct {
	Holding   int `yaml:"holding"`
	Attacking int `yaml:"attacking"`
}

type ScoringSpec struct {
	Light  PointsSpec `yaml:"light"`
	Medium PointsSpec `yaml:"medium"`
	Boss   PointsSpec `yaml:"boss"`
}

type RewardSpec struct {
	PointsScale    float64 `yaml:"points_scale"`
	PlayerHit      float64 `yaml:"player_hit"`
	AlienHitPlayer float64 `yaml:"alien_hit_player"`
	WaveCleared    float64 `yaml:"wave_cleared"`
}

// GameSpec is the session-wide configuration.
type GameSpec struct {
	Name             string         `yaml:"name"`
	InitialLives     int            `yaml:"initial_lives"`
	AliensAttacking  int            `yaml:"aliens_attacking"`
	DefaultHighScore int            `yaml:"default_high_score"`
	Training         bool           `yaml:"training"`
	Grid             GridSpec       `yaml:"grid"`
	LaunchPads       []Vec3Spec     `yaml:"launch_pads"`
	LaunchStagger    float64        `yaml:"launch_stagger"`
	ArrivalEpsilon   float64        `yaml:"arrival_epsilon"`
	Alien            AlienSpec      `yaml:"alien"`
	Difficulty       DifficultySpec `yaml:"difficulty"`
	Attack           AttackSpec     `yaml:"attack"`
	Player           PlayerSpec     `yaml:"player"`
	Display          DisplaySpec    `yaml:"display"`
	Scoring          ScoringSpec    `yaml:"scoring"`
	Rewards          RewardSpec     `yaml:"rewards"`
}

// Validate rejects configurations a session cannot start with.
func (s *GameSpec) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	check(s.InitialLives > 0, "initial_lives must be positive, got %d", s.InitialLives)
	check(s.AliensAttacking > 0, "aliens_attacking must be positive, got %d", s.AliensAttacking)
	check(s.Grid.Rows > 0 && s.Grid.Cols > 0, "grid must be at least 1x1, got %dx%d", s.Grid.Rows, s.Grid.Cols)
	check(s.Grid.Gap > 0, "grid gap must be positive, got %v", s.Grid.Gap)
	check(len(s.LaunchPads) == 2, "exactly 2 launch pads required, got %d", len(s.LaunchPads))
	check(s.LaunchStagger >= 0, "launch_stagger must not be negative")
	check(s.ArrivalEpsilon > 0, "arrival_epsilon must be positive")
	check(s.Alien.Speed > 0, "alien speed must be positive")
	check(s.Difficulty.RecallInterval > 0, "recall_interval must be positive")
	check(s.Difficulty.MinRecallInterval > 0, "min_recall_interval must be positive, got %v", s.Difficulty.MinRecallInterval)
	check(s.Difficulty.MinPhaseTimeout > 0, "min_phase_timeout must be positive, got %v", s.Difficulty.MinPhaseTimeout)
	check(s.Player.MinX < s.Player.MaxX, "player min_x must be below max_x")
	check(s.Rewards.PointsScale > 0, "points_scale must be positive")
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// LoadGameSpec loads and validates a game config.
func LoadGameSpec(filename string) (*GameSpec, error) {
	spec, err := LoadSpec[GameSpec](filename)
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("prefabs: %s: %w", filename, err)
	}
	return &spec, nil
}

// DefaultGameSpec loads the embedded game config.
func DefaultGameSpec() (*GameSpec, error) {
	return LoadGameSpec(GameSpecFile)
}

type PlacementSpec struct {
	Row  int    `yaml:"row"`
	Col  int    `yaml:"col"`
	Kind string `yaml:"kind"`
	Lane int    `yaml:"lane"`
}

type PhaseSpec struct {
	Timeout    float64         `yaml:"timeout"`
	Placements []PlacementSpec `yaml:"placements"`
}

// WaveSpec is the authored load order of a wave.
type WaveSpec struct {
	Name   string      `yaml:"name"`
	Phases []PhaseSpec `yaml:"phases"`
}

// Wave converts the spec, rejecting unknown kinds, bad lanes and cells
// claimed twice.
func (s WaveSpec) Wave() (component.Wave, error) {
	if len(s.Phases) == 0 {
		return component.Wave{}, fmt.Errorf("%w: wave %q has no phases", ErrInvalidConfig, s.Name)
	}
	seen := make(map[component.Cell]int)
	wave := component.Wave{Phases: make([]component.Phase, 0, len(s.Phases))}
	for i, ps := range s.Phases {
		if ps.Timeout < 0 {
			return component.Wave{}, fmt.Errorf("%w: phase %d timeout %v", ErrInvalidConfig, i+1, ps.Timeout)
		}
		phase := component.Phase{Timeout: ps.Timeout}
		for _, p := range ps.Placements {
			kind, err := component.ParseKind(p.Kind)
			if err != nil {
				return component.Wave{}, fmt.Errorf("%w: phase %d: %w", ErrInvalidConfig, i+1, err)
			}
			if p.Lane != 0 && p.Lane != 1 {
				return component.Wave{}, fmt.Errorf("%w: phase %d: lane %d", ErrInvalidConfig, i+1, p.Lane)
			}
			cell := component.Cell{Row: p.Row, Col: p.Col}
			if prev, dup := seen[cell]; dup {
				return component.Wave{}, fmt.Errorf("%w: cell %d,%d claimed by phases %d and %d", ErrInvalidConfig, p.Row, p.Col, prev, i+1)
			}
			seen[cell] = i + 1
			phase.Placements = append(phase.Placements, component.Placement{Cell: cell, Kind: kind, Lane: p.Lane})
		}
		wave.Phases = append(wave.Phases, phase)
	}
	return wave, nil
}

// LoadWave loads and converts a wave file.
func LoadWave(filename string) (component.Wave, error) {
	spec, err := LoadSpec[WaveSpec](filename)
	if err != nil {
		return component.Wave{}, err
	}
	wave, err := spec.Wave()
	if err != nil {
		return component.Wave{}, fmt.Errorf("prefabs: %s: %w", filename, err)
	}
	return wave, nil
}

// DefaultWave loads the embedded reference wave.
func DefaultWave() (component.Wave, error) {
	return LoadWave(WaveSpecFile)
}
