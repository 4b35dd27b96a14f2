package system

import (
	"math/rand"
	"testing"

	"github.com/milk9111/swarm/common"
	"github.com/milk9111/swarm/ecs"
	"github.com/milk9111/swarm/ecs/component"
	"github.com/milk9111/swarm/prefabs"
)

const tick = 1.0 / 60

func testSpec(t *testing.T) *prefabs.GameSpec {
	t.Helper()
	spec, err := prefabs.DefaultGameSpec()
	if err != nil {
		t.Fatalf("DefaultGameSpec: %v", err)
	}
	return spec
}

func testWave(t *testing.T) component.Wave {
	t.Helper()
	wave, err := prefabs.DefaultWave()
	if err != nil {
		t.Fatalf("DefaultWave: %v", err)
	}
	return wave
}

func testRand() *rand.Rand {
	return rand.New(rand.NewSource(7))
}

// simulate steps the executor and systems at 60 Hz for secs seconds.
func simulate(x *ecs.Executor, w *ecs.World, secs float64, systems ...ecs.System) {
	steps := int(secs * 60)
	for i := 0; i < steps; i++ {
		x.Advance(seconds(tick))
		for _, s := range systems {
			s.Update(w, tick)
		}
	}
}

// spawnHolding places units of kind in row 0 and brings them to Holding.
func spawnHolding(t *testing.T, w *ecs.World, kind component.Kind, n int) []ecs.Entity {
	t.Helper()
	out := make([]ecs.Entity, 0, n)
	for i := 0; i < n; i++ {
		a := component.NewAlien(kind, component.Cell{Row: 0, Col: i}, testTarget(i))
		a.Speed = 6
		a.BulletSpeed = 10
		e, err := w.Spawn(a)
		if err != nil {
			t.Fatalf("Spawn: %v", err)
		}
		for _, s := range []component.State{component.Launching, component.Holding} {
			if err := w.Transition(e, s); err != nil {
				t.Fatalf("Transition(%s): %v", s, err)
			}
		}
		out = append(out, e)
	}
	return out
}

func testTarget(i int) common.Vec3 {
	return common.Vec3{X: float64(i)*1.5 - 7.5, Z: 2}
}

type fakeArmory struct {
	shots   []Shot
	cleared int
}

func (a *fakeArmory) Fire(s Shot) { a.shots = append(a.shots, s) }
func (a *fakeArmory) Clear() { a.cleared++ }

type fakePresentation struct {
	playerBanners []int
	stageBanners  []int
	scores        map[int]int
	lives         map[int]int
	highScore     int
	gameOver      int
}

func newFakePresentation() *fakePresentation {
	return &fakePresentation{scores: map[int]int{}, lives: map[int]int{}}
}

func (p *fakePresentation) ShowPlayerBanner(player int, done func()) {
	p.playerBanners = append(p.playerBanners, player)
	call(done)
}

func (p *fakePresentation) ShowStageBanner(stage int, done func()) {
	p.stageBanners = append(p.stageBanners, stage)
	call(done)
}

func (p *fakePresentation) UpdateScore(player, score int) { p.scores[player] = score }
func (p *fakePresentation) UpdateLives(player, lives int) { p.lives[player] = lives }
func (p *fakePresentation) UpdateStage(int, int) {}
func (p *fakePresentation) UpdateHighScore(score int) { p.highScore = score }
func (p *fakePresentation) ShowGameOver() { p.gameOver++ }

type destroyed struct {
	entity       ecs.Entity
	kind         component.Kind
	wasAttacking bool
	points       int
}

type recordObserver struct {
	cleared   []int
	destroyed []destroyed
	died      []int
	sessions  [][]int
}

func (o *recordObserver) OnWaveCleared(stage int) { o.cleared = append(o.cleared, stage) }
func (o *recordObserver) OnEntityDestroyed(e ecs.Entity, kind component.Kind, wasAttacking bool, points int) {
	o.destroyed = append(o.destroyed, destroyed{e, kind, wasAttacking, points})
}
func (o *recordObserver) OnPlayerDied(player int) { o.died = append(o.died, player) }
func (o *recordObserver) OnSessionOver(scores []int) { o.sessions = append(o.sessions, scores) }

func (o *recordObserver) points() int {
	total := 0
	for _, d := range o.destroyed {
		total += d.points
	}
	return total
}

type rewardRecorder struct {
	player []float64
	aliens map[ecs.Entity]float64
}

func (r *rewardRecorder) RewardPlayer(reward float64) { r.player = append(r.player, reward) }
func (r *rewardRecorder) RewardAlien(e ecs.Entity, reward float64) {
	if r.aliens == nil {
		r.aliens = map[ecs.Entity]float64{}
	}
	r.aliens[e] += reward
}

type fakeBoard struct {
	session component.Session
}

func (b *fakeBoard) CurrentSession() (int, *component.Session) { return 1, &b.session }
