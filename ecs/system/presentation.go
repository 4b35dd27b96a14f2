package system

import (
	"github.com/milk9111/swarm/ecs"
	"github.com/milk9111/swarm/prefabs"
)

// TimedPresentation completes banners after the configured display times on
// the session clock. The wrapped presentation only has to draw them.
type TimedPresentation struct {
	Presentation
	exec    *ecs.Executor
	display prefabs.DisplaySpec
}

func NewTimedPresentation(inner Presentation, exec *ecs.Executor, display prefabs.DisplaySpec) *TimedPresentation {
	if inner == nil {
		inner = NopPresentation{}
	}
	return &TimedPresentation{Presentation: inner, exec: exec, display: display}
}

func (p *TimedPresentation) ShowPlayerBanner(player int, done func()) {
	p.Presentation.ShowPlayerBanner(player, nil)
	p.after("presentation: player banner", p.display.PlayerBanner, done)
}

func (p *TimedPresentation) ShowStageBanner(stage int, done func()) {
	p.Presentation.ShowStageBanner(stage, nil)
	p.after("presentation: stage banner", p.display.StageBanner, done)
}

func (p *TimedPresentation) after(name string, secs float64, done func()) {
	p.exec.Go(name, func(t *ecs.Task) error {
		if err := t.Wait(seconds(secs)); err != nil {
			return err
		}
		call(done)
		return nil
	})
}
