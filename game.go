package main

import (
	"errors"
	"fmt"
	"image/color"
	"log"
	"math/rand"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/colornames"

	"github.com/milk9111/swarm/common"
	"github.com/milk9111/swarm/ecs"
	"github.com/milk9111/swarm/ecs/component"
	"github.com/milk9111/swarm/ecs/system"
	"github.com/milk9111/swarm/physics"
	"github.com/milk9111/swarm/prefabs"
)

const (
	baseWidth  = 1280
	baseHeight = 720
)

// Options configures the windowed host.
type Options struct {
	Debug         bool
	Players       int
	Seed          int64
	Autopilot     string
	AlienScript   string
	HighScorePath string
}

type Game struct {
	frames int
	opts   Options

	spec *prefabs.GameSpec
	wave component.Wave

	flow   *system.Flow
	arena  *physics.Arena
	events *ecs.EventQueue
	hud    *HUD
	pilot  *Pilot
	view   view

	watcher *prefabs.Watcher
	reload  bool

	pauseUI *ebitenui.UI
	paused  bool
	restart bool
	quit    bool
}

func NewGame(opts Options) (*Game, error) {
	g := &Game{
		opts: opts,
		hud:  NewHUD(),
	}
	if err := g.loadConfig(); err != nil {
		return nil, err
	}

	watcher, err := prefabs.NewWatcher("prefabs", "prefabs/scripts")
	if err != nil {
		log.Printf("game: config reload disabled: %v", err)
	} else {
		g.watcher = watcher
	}

	if err := g.newSession(); err != nil {
		return nil, err
	}
	g.pauseUI = NewPauseUI(g)

	if opts.Players > 0 {
		if err := g.flow.Start(opts.Players); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *Game) Close() {
	if g.flow != nil {
		g.flow.Stop()
	}
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
}

func (g *Game) loadConfig() error {
	spec, err := prefabs.DefaultGameSpec()
	if err != nil {
		return err
	}
	wave, err := prefabs.DefaultWave()
	if err != nil {
		return err
	}
	g.spec = spec
	g.wave = wave
	g.view = fieldView(physics.FieldLimit/2, spec.Attack.BoundaryZ-1, spec.LaunchPads[0].Z+3)
	return nil
}

// newSession rebuilds the flow with a fresh executor and collision arena.
// The flow starts in player select.
func (g *Game) newSession() error {
	exec := ecs.NewExecutor()
	arena := physics.NewArena()
	events := &ecs.EventQueue{}

	aliens, err := g.alienDecider()
	if err != nil {
		return err
	}
	var pilot system.Decider
	g.pilot = NewPilot(g.spec.Player.Speed)
	pilot = g.pilot
	if g.opts.Autopilot != "" {
		if pilot, err = system.NewScriptDecider(g.opts.Autopilot); err != nil {
			return err
		}
	}

	var store system.HighScoreStore
	if g.opts.HighScorePath != "" {
		store = prefabs.FileHighScore{Path: g.opts.HighScorePath}
	}

	flow, err := system.NewFlow(system.FlowOptions{
		Spec:          g.spec,
		Wave:          &g.wave,
		Executor:      exec,
		Rand:          rand.New(rand.NewSource(g.opts.Seed)),
		Presentation:  system.NewTimedPresentation(g.hud, exec, g.spec.Display),
		Observer:      events,
		Armory:        arena,
		HighScores:    store,
		AlienDecider:  aliens,
		PlayerDecider: pilot,
		Systems:       []ecs.System{arena},
	})
	if err != nil {
		return err
	}
	arena.Bind(flow, flow)

	if g.flow != nil {
		g.flow.Stop()
	}
	g.flow = flow
	g.arena = arena
	g.events = events
	g.hud.SetState(flow.State(), flow.Players(), flow.CurrentPlayer())
	return nil
}

func (g *Game) alienDecider() (system.Decider, error) {
	if g.opts.AlienScript != "" {
		return system.NewScriptDecider(g.opts.AlienScript)
	}
	return system.RandomDecider{Rand: rand.New(rand.NewSource(g.opts.Seed + 1)), Max: 6}, nil
}

func (g *Game) Update() error {
	g.frames++
	g.drainWatcher()

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.paused = !g.paused
	}
	if g.paused {
		g.pauseUI.Update()
	}
	if g.quit {
		return ebiten.Termination
	}
	if g.restart {
		g.restart = false
		g.paused = false
		if err := g.newSession(); err != nil {
			return err
		}
	}
	if g.paused {
		return nil
	}

	if s := g.flow.State(); s == system.PlayerSelect || s == system.GameOver {
		switch {
		case inpututil.IsKeyJustPressed(ebiten.Key1):
			g.start(1)
		case inpututil.IsKeyJustPressed(ebiten.Key2):
			g.start(2)
		}
	}

	g.pilot.Sample()
	g.flow.Update(1 / float64(ebiten.TPS()))
	g.hud.SetState(g.flow.State(), g.flow.Players(), g.flow.CurrentPlayer())
	for _, evt := range g.events.Drain() {
		g.hud.Log(evt)
	}
	return nil
}

// start begins a session, picking up edited config files first.
func (g *Game) start(players int) {
	if g.reload {
		g.reload = false
		if err := g.loadConfig(); err != nil {
			log.Printf("game: reload: %v", err)
		}
		if err := g.newSession(); err != nil {
			log.Printf("game: reload: %v", err)
			return
		}
	}
	if err := g.flow.Start(players); err != nil && !errors.Is(err, system.ErrIllegalFlowTransition) {
		log.Printf("game: start: %v", err)
	}
}

func (g *Game) drainWatcher() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case c, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			log.Printf("game: %s changed, reloading on next start", c.Name)
			g.reload = true
		default:
			return
		}
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colornames.Black)

	if g.opts.Debug {
		g.drawDebug(screen)
	}

	g.flow.World().ForEach(func(e ecs.Entity, a *component.Alien) {
		g.drawBox(screen, a.Position, physics.AlienRadius, kindColor(a.Kind))
		if a.State == component.Attacking {
			r := g.view.box(a.Position, physics.AlienRadius*1.4)
			vector.StrokeRect(screen, r.X, r.Y, r.Width, r.Height, 1, colornames.White, false)
		}
	})

	if p, ok := g.flow.Player(); ok {
		g.drawBox(screen, p.Position, physics.PlayerRadius, colornames.Dodgerblue)
	}

	for _, s := range g.arena.Shots() {
		clr := colornames.Orangered
		if s.Player {
			clr = colornames.White
		}
		g.drawBox(screen, s.From, physics.ShotRadius, clr)
	}

	g.hud.Draw(screen)
	if g.opts.Debug {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Frames: %d    FPS: %.2f    %s    units: %d    tasks: %d",
			g.frames, ebiten.ActualFPS(), g.flow.State(), g.flow.World().Len(), g.flow.Executor().Pending()), 16, 28)
	}

	if g.paused {
		g.pauseUI.Draw(screen)
	}
}

func (g *Game) drawBox(screen *ebiten.Image, p common.Vec3, radius float64, clr color.Color) {
	r := g.view.box(p, radius)
	if !g.view.visible(&r) {
		return
	}
	vector.FillRect(screen, r.X, r.Y, r.Width, r.Height, clr, false)
}

// drawDebug outlines the formation grid, the launch pads and the boundary
// past which diving units wrap.
func (g *Game) drawDebug(screen *ebiten.Image) {
	grid := g.flow.Loader().Grid()
	for _, row := range grid.Cells {
		for _, cell := range row {
			r := g.view.box(cell, physics.AlienRadius)
			vector.StrokeRect(screen, r.X, r.Y, r.Width, r.Height, 1, colornames.Dimgray, false)
		}
	}
	for _, pad := range g.spec.LaunchPads {
		r := g.view.box(pad.Vec3(), physics.AlienRadius)
		vector.StrokeRect(screen, r.X, r.Y, r.Width, r.Height, 1, colornames.Yellow, false)
	}
	_, y := g.view.point(common.Vec3{Z: g.spec.Attack.BoundaryZ})
	vector.StrokeLine(screen, 0, y, baseWidth, y, 1, colornames.Darkred, false)
}

func kindColor(k component.Kind) color.Color {
	switch k {
	case component.Boss:
		return colornames.Limegreen
	case component.MediumGrunt:
		return colornames.Crimson
	default:
		return colornames.Gold
	}
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return baseWidth, baseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
