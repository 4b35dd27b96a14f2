package system

import (
	"errors"
	"slices"
	"testing"

	"github.com/milk9111/swarm/ecs"
	"github.com/milk9111/swarm/ecs/component"
	"github.com/milk9111/swarm/prefabs"
)

type flowFixture struct {
	flow        *Flow
	present     *fakePresentation
	observer    *recordObserver
	armory      *fakeArmory
	store       *prefabs.MemoryHighScore
	rewards     *rewardRecorder
	transitions []FlowState
}

func newFlowFixture(t *testing.T, mutate func(spec *prefabs.GameSpec, opts *FlowOptions)) *flowFixture {
	t.Helper()
	fx := &flowFixture{
		present:  newFakePresentation(),
		observer: &recordObserver{},
		armory:   &fakeArmory{},
		store:    &prefabs.MemoryHighScore{},
		rewards:  &rewardRecorder{},
	}
	spec := testSpec(t)
	opts := FlowOptions{
		Spec:         spec,
		Rand:         testRand(),
		Presentation: fx.present,
		Observer:     fx.observer,
		Armory:       fx.armory,
		Rewards:      fx.rewards,
		HighScores:   fx.store,
		OnTransition: func(_, to FlowState) {
			fx.transitions = append(fx.transitions, to)
		},
	}
	if mutate != nil {
		mutate(spec, &opts)
	}
	flow, err := NewFlow(opts)
	if err != nil {
		t.Fatalf("NewFlow: %v", err)
	}
	fx.flow = flow
	return fx
}

// until steps the flow until it reaches state, failing after maxSecs.
func (fx *flowFixture) until(t *testing.T, state FlowState, maxSecs float64) {
	t.Helper()
	for i := 0; i < int(maxSecs*60); i++ {
		if fx.flow.State() == state {
			return
		}
		fx.flow.Update(tick)
	}
	if fx.flow.State() != state {
		t.Fatalf("state = %s after %vs, want %s", fx.flow.State(), maxSecs, state)
	}
}

func (fx *flowFixture) step(secs float64) {
	for i := 0; i < int(secs*60); i++ {
		fx.flow.Update(tick)
	}
}

func (fx *flowFixture) killAll() {
	w := fx.flow.World()
	for _, e := range w.Entities() {
		for i := 0; i < 2 && w.IsAlive(e); i++ {
			fx.flow.ReportHit(e, 0)
		}
	}
}

func (fx *flowFixture) firstOfKind(t *testing.T, kind component.Kind) ecs.Entity {
	t.Helper()
	w := fx.flow.World()
	for _, e := range w.Entities() {
		if a, _ := w.Alien(e); a.Kind == kind {
			return e
		}
	}
	t.Fatalf("no %s on the field", kind)
	return 0
}

func TestFlowSinglePlayerClearsStage(t *testing.T) {
	fx := newFlowFixture(t, nil)
	if err := fx.flow.Start(1); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if fx.flow.State() != DisplayStageText {
		t.Fatalf("state = %s", fx.flow.State())
	}

	fx.until(t, LoadEnemies, 2)
	if !slices.Equal(fx.present.playerBanners, []int{1}) || !slices.Equal(fx.present.stageBanners, []int{1}) {
		t.Fatalf("banners player %v stage %v", fx.present.playerBanners, fx.present.stageBanners)
	}
	if _, on := fx.flow.Player(); !on {
		t.Fatalf("player not on the field")
	}

	fx.until(t, EnemiesAttack, 60)
	if fx.flow.World().Len() != 48 {
		t.Fatalf("units = %d, want 48", fx.flow.World().Len())
	}

	fx.killAll()
	fx.flow.Update(tick)

	if fx.flow.State() != DisplayStageText {
		t.Fatalf("state after clear = %s", fx.flow.State())
	}
	sessions := fx.flow.Sessions()
	if sessions[0].Stage != 2 || sessions[0].Lives != 3 {
		t.Fatalf("session = %+v", sessions[0])
	}
	if !slices.Equal(fx.observer.cleared, []int{1}) {
		t.Fatalf("cleared = %v", fx.observer.cleared)
	}
	if len(fx.observer.destroyed) != 48 || sessions[0].Score != fx.observer.points() {
		t.Fatalf("destroyed %d, score %d, points %d", len(fx.observer.destroyed), sessions[0].Score, fx.observer.points())
	}
	if fx.present.scores[1] != sessions[0].Score {
		t.Fatalf("presented score %d", fx.present.scores[1])
	}
	want := []FlowState{DisplayStageText, LoadEnemies, EnemiesAttack, DisplayStageText}
	if !slices.Equal(fx.transitions, want) {
		t.Fatalf("transitions = %v, want %v", fx.transitions, want)
	}
	if len(fx.rewards.player) != 0 {
		t.Fatalf("rewards outside training: %v", fx.rewards.player)
	}

	fx.until(t, LoadEnemies, 2)
	if !slices.Equal(fx.present.stageBanners, []int{1, 2}) || len(fx.present.playerBanners) != 1 {
		t.Fatalf("banners player %v stage %v", fx.present.playerBanners, fx.present.stageBanners)
	}
}

func TestFlowPlayerDeathMidLoad(t *testing.T) {
	fx := newFlowFixture(t, nil)
	_ = fx.flow.Start(1)
	fx.until(t, LoadEnemies, 2)
	fx.step(10)
	if fx.flow.World().Len() == 0 {
		t.Fatalf("nothing loaded")
	}

	fx.flow.OnPlayerHit(0)

	if i := slices.Index(fx.transitions, PlayerDeath); i < 0 || fx.transitions[i+1] != DisplayStageText {
		t.Fatalf("transitions = %v", fx.transitions)
	}
	if fx.flow.World().Len() != 0 {
		t.Fatalf("units left after death: %d", fx.flow.World().Len())
	}
	if fx.flow.Loader().State() != LoadAborted {
		t.Fatalf("loader state = %s", fx.flow.Loader().State())
	}
	if fx.flow.Sessions()[0].Lives != 2 || fx.present.lives[1] != 2 {
		t.Fatalf("lives = %d", fx.flow.Sessions()[0].Lives)
	}
	if !slices.Equal(fx.observer.died, []int{1}) || fx.armory.cleared == 0 {
		t.Fatalf("died %v, armory cleared %d", fx.observer.died, fx.armory.cleared)
	}
	if _, on := fx.flow.Player(); on {
		t.Fatalf("player still on the field")
	}

	fx.step(0.5)
	if fx.flow.World().Len() != 0 {
		t.Fatalf("aborted load kept spawning: %d", fx.flow.World().Len())
	}

	// A second hit before the ship is back changes nothing.
	fx.flow.OnPlayerHit(0)
	if fx.flow.Sessions()[0].Lives != 2 {
		t.Fatalf("hit while off the field cost a life")
	}

	fx.until(t, LoadEnemies, 2)
	if fx.flow.World().Len() != 8 || fx.flow.Sessions()[0].Stage != 1 {
		t.Fatalf("reload: %d units, stage %d", fx.flow.World().Len(), fx.flow.Sessions()[0].Stage)
	}
}

func TestFlowGameOverHighScore(t *testing.T) {
	tests := []struct {
		name      string
		store     prefabs.MemoryHighScore
		wantSaves int
		wantHigh  int
	}{
		{"beats saved score", prefabs.MemoryHighScore{Score: 10, Saved: true}, 1, 50},
		{"below default", prefabs.MemoryHighScore{}, 0, 30000},
		{"below saved score", prefabs.MemoryHighScore{Score: 1000, Saved: true}, 0, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := tt.store
			fx := newFlowFixture(t, func(_ *prefabs.GameSpec, opts *FlowOptions) {
				opts.HighScores = &store
			})
			_ = fx.flow.Start(1)

			fx.until(t, LoadEnemies, 2)
			fx.flow.ReportHit(fx.firstOfKind(t, component.LightGrunt), 0)
			for i := 0; i < 3; i++ {
				fx.until(t, LoadEnemies, 2)
				fx.flow.OnPlayerHit(0)
			}

			if fx.flow.State() != GameOver {
				t.Fatalf("state = %s", fx.flow.State())
			}
			if store.Saves != tt.wantSaves || fx.flow.HighScore() != tt.wantHigh {
				t.Fatalf("saves %d high %d, want %d %d", store.Saves, fx.flow.HighScore(), tt.wantSaves, tt.wantHigh)
			}
			if fx.present.gameOver != 1 || len(fx.observer.sessions) != 1 || !slices.Equal(fx.observer.sessions[0], []int{50}) {
				t.Fatalf("game over %d, sessions %v", fx.present.gameOver, fx.observer.sessions)
			}
		})
	}
}

func TestFlowTwoPlayersAlternate(t *testing.T) {
	fx := newFlowFixture(t, nil)
	if err := fx.flow.Start(2); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var order []int
	for fx.flow.State() != GameOver && len(order) < 10 {
		fx.until(t, LoadEnemies, 2)
		order = append(order, fx.flow.CurrentPlayer())
		fx.flow.OnPlayerHit(0)
	}

	if want := []int{1, 2, 1, 2, 1, 2}; !slices.Equal(order, want) {
		t.Fatalf("turn order = %v, want %v", order, want)
	}
	if !slices.Equal(fx.observer.died, order) {
		t.Fatalf("died = %v", fx.observer.died)
	}
	if fx.present.playerBanners[0] != 1 || fx.present.playerBanners[1] != 2 {
		t.Fatalf("player banners = %v", fx.present.playerBanners)
	}
	if !slices.Contains(fx.transitions, SwitchPlayer) {
		t.Fatalf("transitions = %v", fx.transitions)
	}
	for i, s := range fx.flow.Sessions() {
		if s.Lives != 0 {
			t.Fatalf("player %d lives = %d", i+1, s.Lives)
		}
	}
	if len(fx.observer.sessions) != 1 || len(fx.observer.sessions[0]) != 2 {
		t.Fatalf("sessions = %v", fx.observer.sessions)
	}
}

func TestFlowSurvivorPlaysAlone(t *testing.T) {
	fx := newFlowFixture(t, nil)
	if err := fx.flow.Start(2); err != nil {
		t.Fatalf("Start: %v", err)
	}
	fx.until(t, LoadEnemies, 2)
	fx.flow.sessions[1].Lives = 1

	var order []int
	for fx.flow.State() != GameOver && len(order) < 10 {
		fx.until(t, LoadEnemies, 2)
		order = append(order, fx.flow.CurrentPlayer())
		fx.flow.OnPlayerHit(0)
	}

	// Player 2 is out after the second turn; player 1 finishes alone.
	if want := []int{1, 2, 1, 1}; !slices.Equal(order, want) {
		t.Fatalf("turn order = %v, want %v", order, want)
	}
	if want := []int{1, 2, 1}; !slices.Equal(fx.present.playerBanners, want) {
		t.Fatalf("player banners = %v, want %v", fx.present.playerBanners, want)
	}
	switches := 0
	for _, s := range fx.transitions {
		if s == SwitchPlayer {
			switches++
		}
	}
	if switches != 3 {
		t.Fatalf("switches = %d, want 3: %v", switches, fx.transitions)
	}
	if last := fx.transitions[len(fx.transitions)-2:]; !slices.Equal(last, []FlowState{PlayerDeath, GameOver}) {
		t.Fatalf("final transitions = %v", last)
	}
	if fx.present.gameOver != 1 {
		t.Fatalf("game over shown %d times", fx.present.gameOver)
	}
	for i, s := range fx.flow.Sessions() {
		if s.Lives != 0 {
			t.Fatalf("player %d lives = %d", i+1, s.Lives)
		}
	}
}

func TestFlowStopReleasesTasks(t *testing.T) {
	fx := newFlowFixture(t, nil)
	if err := fx.flow.Start(1); err != nil {
		t.Fatalf("Start: %v", err)
	}
	fx.until(t, LoadEnemies, 2)
	fx.step(3)
	if fx.flow.Executor().Pending() == 0 {
		t.Fatalf("no pending tasks mid-load")
	}

	fx.flow.Stop()

	if n := fx.flow.Executor().Pending(); n != 0 {
		t.Fatalf("pending after Stop = %d", n)
	}
	if n := fx.flow.World().Len(); n != 0 {
		t.Fatalf("units after Stop = %d", n)
	}
	if _, on := fx.flow.Player(); on {
		t.Fatalf("player still on the field")
	}
	if fx.flow.State() != LoadEnemies {
		t.Fatalf("state after Stop = %s", fx.flow.State())
	}
}

func TestFlowTrainingEpisodes(t *testing.T) {
	fx := newFlowFixture(t, func(spec *prefabs.GameSpec, _ *FlowOptions) {
		spec.Training = true
	})
	if err := fx.flow.Start(2); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if fx.flow.State() != LoadEnemies || fx.flow.Players() != 1 {
		t.Fatalf("state %s players %d", fx.flow.State(), fx.flow.Players())
	}
	if len(fx.present.playerBanners)+len(fx.present.stageBanners) != 0 {
		t.Fatalf("banners shown in training")
	}

	shooter := fx.flow.World().Entities()[0]
	fx.flow.OnPlayerHit(shooter)

	if want := []FlowState{LoadEnemies, ResetEpisode, LoadEnemies}; !slices.Equal(fx.transitions, want) {
		t.Fatalf("transitions = %v, want %v", fx.transitions, want)
	}
	if lives := fx.flow.Sessions()[0].Lives; lives != 3 {
		t.Fatalf("lives = %d, want 3", lives)
	}
	if !slices.Equal(fx.rewards.player, []float64{-1}) || fx.rewards.aliens[shooter] != 1 {
		t.Fatalf("rewards player %v aliens %v", fx.rewards.player, fx.rewards.aliens)
	}
	if fx.flow.World().Len() != 8 {
		t.Fatalf("episode restarted with %d units", fx.flow.World().Len())
	}

	fx.until(t, EnemiesAttack, 60)
	fx.rewards.player = nil
	fx.killAll()
	fx.flow.Update(tick)

	if fx.flow.State() != LoadEnemies || fx.flow.Sessions()[0].Stage != 2 {
		t.Fatalf("state %s stage %d", fx.flow.State(), fx.flow.Sessions()[0].Stage)
	}
	n := len(fx.rewards.player)
	if n != 49 || fx.rewards.player[n-1] != 1 {
		t.Fatalf("%d player rewards, last %v", n, fx.rewards.player[n-1])
	}
	total := 0.0
	for _, r := range fx.rewards.player[:n-1] {
		total += r
	}
	if want := float64(fx.observer.points()) / 400; total < want-1e-9 || total > want+1e-9 {
		t.Fatalf("kill rewards %v, want %v", total, want)
	}
}

func TestFlowDeathWinsOverClear(t *testing.T) {
	fx := newFlowFixture(t, nil)
	_ = fx.flow.Start(1)
	fx.until(t, EnemiesAttack, 60)

	fx.killAll()
	fx.flow.OnPlayerHit(0)
	fx.step(0.5)

	if len(fx.observer.cleared) != 0 {
		t.Fatalf("wave cleared after the player died: %v", fx.observer.cleared)
	}
	s := fx.flow.Sessions()[0]
	if s.Stage != 1 || s.Lives != 2 {
		t.Fatalf("session = %+v", s)
	}
}

func TestFlowRejectsIllegalTransitions(t *testing.T) {
	fx := newFlowFixture(t, nil)
	if err := fx.flow.Start(3); err == nil {
		t.Fatalf("Start(3) should fail")
	}
	if err := fx.flow.Start(1); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := fx.flow.Start(1); !errors.Is(err, ErrIllegalFlowTransition) {
		t.Fatalf("restart mid-session err = %v", err)
	}
	if err := fx.flow.transition(GameOver); !errors.Is(err, ErrIllegalFlowTransition) {
		t.Fatalf("DisplayStageText -> GameOver err = %v", err)
	}

	fx.flow.OnPlayerHit(0)
	if fx.flow.Sessions()[0].Lives != 3 || fx.flow.State() != DisplayStageText {
		t.Fatalf("hit during the banner was not ignored")
	}
	if fx.flow.ReportHit(ecs.Entity(1), 0) {
		t.Fatalf("hit reported outside play")
	}
}

func TestFlowRestartAfterGameOver(t *testing.T) {
	fx := newFlowFixture(t, func(spec *prefabs.GameSpec, _ *FlowOptions) {
		spec.InitialLives = 1
	})
	_ = fx.flow.Start(1)
	fx.until(t, LoadEnemies, 2)
	fx.flow.ReportHit(fx.firstOfKind(t, component.LightGrunt), 0)
	fx.flow.OnPlayerHit(0)
	if fx.flow.State() != GameOver {
		t.Fatalf("state = %s", fx.flow.State())
	}

	if err := fx.flow.Start(1); err != nil {
		t.Fatalf("Start after game over: %v", err)
	}
	fx.until(t, LoadEnemies, 2)
	s := fx.flow.Sessions()[0]
	if s.Score != 0 || s.Lives != 1 || s.Stage != 1 {
		t.Fatalf("session not reset: %+v", s)
	}
}

func TestFlowTimedBanners(t *testing.T) {
	spec := testSpec(t)
	exec := ecs.NewExecutor()
	inner := newFakePresentation()
	flow, err := NewFlow(FlowOptions{
		Spec:         spec,
		Executor:     exec,
		Presentation: NewTimedPresentation(inner, exec, spec.Display),
	})
	if err != nil {
		t.Fatalf("NewFlow: %v", err)
	}
	_ = flow.Start(1)

	// 1s lead-in, 3s player banner, 3s stage banner.
	for i := 0; i < 415; i++ {
		flow.Update(tick)
	}
	if flow.State() != DisplayStageText {
		t.Fatalf("state at 6.9s = %s", flow.State())
	}
	if len(inner.playerBanners) != 1 || len(inner.stageBanners) != 1 {
		t.Fatalf("banners drawn: player %v stage %v", inner.playerBanners, inner.stageBanners)
	}
	for i := 0; i < 10; i++ {
		flow.Update(tick)
	}
	if flow.State() != LoadEnemies {
		t.Fatalf("state at 7.1s = %s", flow.State())
	}
}
