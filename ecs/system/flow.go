package system

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"slices"
	"time"

	"github.com/milk9111/swarm/ecs"
	"github.com/milk9111/swarm/ecs/component"
	"github.com/milk9111/swarm/prefabs"
)

var ErrIllegalFlowTransition = errors.New("system: illegal flow transition")

// FlowState is the top-level game state.
type FlowState int

const (
	PlayerSelect FlowState = iota
	DisplayStageText
	LoadEnemies
	EnemiesAttack
	PlayerDeath
	SwitchPlayer
	ResetEpisode
	GameOver
)

func (s FlowState) String() string {
	switch s {
	case PlayerSelect:
		return "PlayerSelect"
	case DisplayStageText:
		return "DisplayStageText"
	case LoadEnemies:
		return "LoadEnemies"
	case EnemiesAttack:
		return "EnemiesAttack"
	case PlayerDeath:
		return "PlayerDeath"
	case SwitchPlayer:
		return "SwitchPlayer"
	case ResetEpisode:
		return "ResetEpisode"
	case GameOver:
		return "GameOver"
	default:
		return fmt.Sprintf("FlowState(%d)", int(s))
	}
}

var flowEdges = map[FlowState][]FlowState{
	PlayerSelect:     {DisplayStageText, LoadEnemies},
	DisplayStageText: {LoadEnemies},
	LoadEnemies:      {EnemiesAttack, PlayerDeath, ResetEpisode},
	EnemiesAttack:    {DisplayStageText, LoadEnemies, PlayerDeath, ResetEpisode},
	PlayerDeath:      {DisplayStageText, SwitchPlayer, GameOver},
	SwitchPlayer:     {DisplayStageText, GameOver},
	ResetEpisode:     {LoadEnemies},
	GameOver:         {PlayerSelect},
}

// FlowOptions wires a Flow. Zero fields fall back to the embedded config and
// no-op ports.
type FlowOptions struct {
	Spec            *prefabs.GameSpec
	Wave            *component.Wave
	Executor        *ecs.Executor
	Rand            *rand.Rand
	Presentation    Presentation
	Observer        Observer
	Armory          Armory
	Rewards         RewardSink
	HighScores      HighScoreStore
	AlienDecider    Decider
	PlayerDecider   Decider
	DecisionTimeout time.Duration
	// Systems run every field tick after movement, e.g. the collision arena.
	Systems []ecs.System
	// OnTransition is called after every state change.
	OnTransition func(from, to FlowState)
}

// Flow is the game flow controller. It owns the registry, the executor and
// the per-player sessions, and is driven by Update from a single goroutine.
type Flow struct {
	spec     *prefabs.GameSpec
	world    *ecs.World
	exec     *ecs.Executor
	loader   *WaveLoader
	attack   *AttackScheduler
	movement *Movement
	systems  *ecs.Scheduler
	scoring  ScoringPolicy

	present      Presentation
	observer     Observer
	armory       Armory
	rewards      RewardSink
	store        HighScoreStore
	onTransition func(from, to FlowState)

	state         FlowState
	players       int
	current       int
	solo          bool
	sessions      []component.Session
	announce      bool
	highScore     int
	player        component.Player
	playerOnField bool
	playerDead    bool
}

func NewFlow(opts FlowOptions) (*Flow, error) {
	spec := opts.Spec
	if spec == nil {
		var err error
		if spec, err = prefabs.DefaultGameSpec(); err != nil {
			return nil, err
		}
	} else if err := spec.Validate(); err != nil {
		return nil, err
	}

	var wave component.Wave
	if opts.Wave != nil {
		wave = *opts.Wave
	} else {
		var err error
		if wave, err = prefabs.DefaultWave(); err != nil {
			return nil, err
		}
	}

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	f := &Flow{
		spec:         spec,
		world:        ecs.NewWorld(),
		exec:         opts.Executor,
		scoring:      NewScoringPolicy(spec.Scoring, spec.Rewards),
		present:      opts.Presentation,
		observer:     opts.Observer,
		armory:       opts.Armory,
		store:        opts.HighScores,
		onTransition: opts.OnTransition,
		highScore:    spec.DefaultHighScore,
	}
	if f.exec == nil {
		f.exec = ecs.NewExecutor()
	}
	if f.present == nil {
		f.present = NopPresentation{}
	}
	if f.observer == nil {
		f.observer = NopObserver{}
	}
	if f.armory == nil {
		f.armory = NopArmory{}
	}
	if f.store == nil {
		f.store = &prefabs.MemoryHighScore{}
	}
	if spec.Training {
		f.rewards = opts.Rewards
	}

	loader, err := NewWaveLoader(f.world, f.exec, spec, wave, rng)
	if err != nil {
		return nil, err
	}
	f.loader = loader

	f.attack = NewAttackScheduler(f.world, f.exec, spec, rng, f)
	f.attack.Bind(f.present, f.observer, f.rewards)

	f.movement = NewMovement(spec, f.armory, opts.AlienDecider, opts.PlayerDecider)
	if opts.DecisionTimeout > 0 {
		f.movement.SetDecisionTimeout(opts.DecisionTimeout)
	}

	f.systems = ecs.NewScheduler(f.movement)
	for _, sys := range opts.Systems {
		f.systems.Add(sys)
	}
	return f, nil
}

func (f *Flow) State() FlowState { return f.state }
func (f *Flow) World() *ecs.World { return f.world }
func (f *Flow) Executor() *ecs.Executor { return f.exec }
func (f *Flow) Loader() *WaveLoader { return f.loader }
func (f *Flow) Attack() *AttackScheduler { return f.attack }
func (f *Flow) Spec() *prefabs.GameSpec { return f.spec }
func (f *Flow) CurrentPlayer() int { return f.current }
func (f *Flow) Players() int { return f.players }
func (f *Flow) HighScore() int { return f.highScore }
func (f *Flow) Sessions() []component.Session { return slices.Clone(f.sessions) }

// Player returns the player ship and whether it is on the field.
func (f *Flow) Player() (component.Player, bool) {
	return f.player, f.playerOnField
}

// CurrentSession implements Scoreboard.
func (f *Flow) CurrentSession() (int, *component.Session) {
	if f.current < 1 || f.current > len(f.sessions) {
		return f.current, nil
	}
	return f.current, &f.sessions[f.current-1]
}

// Start begins a session for one or two players. Any previous session is
// discarded.
func (f *Flow) Start(players int) error {
	if players != 1 && players != 2 {
		return fmt.Errorf("system: %d players, want 1 or 2", players)
	}
	if f.state != PlayerSelect && f.state != GameOver {
		return fmt.Errorf("%w: start from %s", ErrIllegalFlowTransition, f.state)
	}
	if f.spec.Training {
		players = 1
	}

	f.clearField()

	if f.state == GameOver {
		if err := f.transition(PlayerSelect); err != nil {
			return err
		}
	}
	f.players = players
	f.current = 1
	f.solo = false
	f.sessions = nil
	f.announce = true
	f.loadHighScore()

	if f.spec.Training {
		return f.transition(LoadEnemies)
	}
	return f.transition(DisplayStageText)
}

// Update advances the session by dt seconds.
func (f *Flow) Update(dt float64) {
	f.exec.Advance(seconds(dt))
	if f.state == LoadEnemies || f.state == EnemiesAttack {
		f.systems.Update(f.world, dt)
	}
}

// Stop releases every pending task and clears the field. The flow state is
// left as is; call it before dropping a Flow that may still be mid-session.
func (f *Flow) Stop() {
	f.clearField()
}

// ReportHit forwards a projectile hit on a unit to the attack scheduler.
func (f *Flow) ReportHit(target, shooter ecs.Entity) bool {
	if f.state != LoadEnemies && f.state != EnemiesAttack {
		return false
	}
	return f.attack.ReportHit(target, shooter)
}

// OnPlayerHit handles the player ship being hit by source, a unit or a shot
// fired by one. source may be the zero handle.
func (f *Flow) OnPlayerHit(source ecs.Entity) {
	if !f.playerOnField || f.playerDead {
		return
	}
	if f.state != LoadEnemies && f.state != EnemiesAttack {
		return
	}
	f.playerDead = true

	if f.rewards != nil {
		playerReward, alienReward := f.scoring.PlayerHitRewards()
		f.rewards.RewardPlayer(playerReward)
		if source.Valid() {
			f.rewards.RewardAlien(source, alienReward)
		}
	}
	f.observer.OnPlayerDied(f.current)

	next := PlayerDeath
	if f.spec.Training {
		next = ResetEpisode
	}
	if err := f.transition(next); err != nil {
		log.Printf("flow: %v", err)
	}
}

func (f *Flow) transition(to FlowState) error {
	from := f.state
	if !slices.Contains(flowEdges[from], to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalFlowTransition, from, to)
	}
	f.state = to
	if f.onTransition != nil {
		f.onTransition(from, to)
	}

	switch to {
	case DisplayStageText:
		f.enterDisplayStage()
	case LoadEnemies:
		f.enterLoadEnemies()
	case EnemiesAttack:
		f.enterEnemiesAttack()
	case PlayerDeath:
		f.enterPlayerDeath()
	case SwitchPlayer:
		f.enterSwitchPlayer()
	case ResetEpisode:
		f.enterResetEpisode()
	case GameOver:
		f.enterGameOver()
	}
	return nil
}

func (f *Flow) goTo(to FlowState) {
	if err := f.transition(to); err != nil {
		log.Printf("flow: %v", err)
	}
}

func (f *Flow) ensureSessions() {
	if len(f.sessions) == f.players {
		return
	}
	f.sessions = make([]component.Session, f.players)
	for i := range f.sessions {
		f.sessions[i] = component.Session{Lives: f.spec.InitialLives, Stage: 1}
	}
}

func (f *Flow) enterDisplayStage() {
	f.ensureSessions()
	player, sess := f.CurrentSession()
	f.present.UpdateScore(player, sess.Score)
	f.present.UpdateLives(player, sess.Lives)
	f.present.UpdateStage(player, sess.Stage)

	announce := f.announce
	f.announce = false
	stage := sess.Stage
	f.exec.Go("flow: display stage", func(t *ecs.Task) error {
		if err := t.Wait(seconds(f.spec.Display.LeadIn)); err != nil {
			return err
		}
		if announce {
			banner := f.exec.NewFuture()
			f.present.ShowPlayerBanner(player, banner.Resolve)
			if err := t.Await(banner); err != nil {
				return err
			}
		}
		banner := f.exec.NewFuture()
		f.present.ShowStageBanner(stage, banner.Resolve)
		if err := t.Await(banner); err != nil {
			return err
		}
		f.goTo(LoadEnemies)
		return nil
	})
}

func (f *Flow) enterLoadEnemies() {
	f.ensureSessions()
	f.spawnPlayer()
	_, sess := f.CurrentSession()
	f.loader.Load(sess.Stage, func() { f.goTo(EnemiesAttack) })
}

func (f *Flow) enterEnemiesAttack() {
	_, sess := f.CurrentSession()
	f.attack.Run(sess.Stage, f.waveCleared)
}

func (f *Flow) waveCleared() {
	player, sess := f.CurrentSession()
	cleared := sess.Stage
	sess.Stage++
	f.present.UpdateStage(player, sess.Stage)
	f.observer.OnWaveCleared(cleared)
	f.armory.Clear()
	log.Printf("flow: player %d cleared stage %d", player, cleared)

	if f.spec.Training {
		if f.rewards != nil {
			f.rewards.RewardPlayer(f.scoring.WaveClearedReward())
		}
		f.goTo(LoadEnemies)
		return
	}
	f.goTo(DisplayStageText)
}

func (f *Flow) clearField() {
	f.exec.Cancel()
	f.world.Clear()
	f.armory.Clear()
	f.attack.Reset()
	f.removePlayer()
}

func (f *Flow) enterPlayerDeath() {
	f.clearField()
	player, sess := f.CurrentSession()
	sess.Lives--
	f.present.UpdateLives(player, sess.Lives)
	log.Printf("flow: player %d died, %d lives left", player, sess.Lives)

	switch {
	case f.players == 2 && !f.solo:
		f.goTo(SwitchPlayer)
	case sess.Lives > 0:
		f.goTo(DisplayStageText)
	default:
		f.goTo(GameOver)
	}
}

func (f *Flow) enterSwitchPlayer() {
	f.current = 3 - f.current
	if _, sess := f.CurrentSession(); sess.Lives <= 0 {
		// The other player is out; keep going alone.
		f.current = 3 - f.current
		f.solo = true
		if _, sess := f.CurrentSession(); sess.Lives <= 0 {
			f.goTo(GameOver)
			return
		}
	} else {
		f.announce = true
	}
	f.goTo(DisplayStageText)
}

func (f *Flow) enterResetEpisode() {
	f.clearField()
	f.goTo(LoadEnemies)
}

func (f *Flow) enterGameOver() {
	f.clearField()
	scores := make([]int, len(f.sessions))
	best := 0
	for i, s := range f.sessions {
		scores[i] = s.Score
		best = max(best, s.Score)
	}
	if best > f.highScore {
		f.highScore = best
		if err := f.store.SaveHighScore(best); err != nil {
			log.Printf("flow: save high score: %v", err)
		}
		f.present.UpdateHighScore(best)
	}
	f.present.ShowGameOver()
	f.observer.OnSessionOver(scores)
	log.Printf("flow: game over, scores %v", scores)
}

func (f *Flow) loadHighScore() {
	score, err := f.store.LoadHighScore()
	switch {
	case err == nil:
		f.highScore = score
	case prefabs.IsNotSaved(err):
		f.highScore = f.spec.DefaultHighScore
	default:
		log.Printf("flow: load high score: %v", err)
		f.highScore = f.spec.DefaultHighScore
	}
	f.present.UpdateHighScore(f.highScore)
}

func (f *Flow) spawnPlayer() {
	f.player = component.Player{Position: f.spec.Player.Start.Vec3()}
	f.playerOnField = true
	f.playerDead = false
	f.movement.SetPlayer(&f.player)
}

func (f *Flow) removePlayer() {
	f.playerOnField = false
	f.movement.SetPlayer(nil)
}
