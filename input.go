package main

import (
	"context"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/milk9111/swarm/ecs/component"
)

// Pilot turns keyboard state into player ship decisions. Sample is called
// once per frame before the field is stepped.
type Pilot struct {
	speed      float64
	horizontal float64
	fire       bool
}

func NewPilot(speed float64) *Pilot {
	return &Pilot{speed: speed}
}

func (p *Pilot) Sample() {
	p.horizontal = 0
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) || ebiten.IsKeyPressed(ebiten.KeyA) {
		p.horizontal -= p.speed
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) || ebiten.IsKeyPressed(ebiten.KeyD) {
		p.horizontal += p.speed
	}
	p.fire = ebiten.IsKeyPressed(ebiten.KeySpace)
}

func (p *Pilot) Decide(_ context.Context, _ component.Observation) (component.Decision, error) {
	return component.Decision{Horizontal: p.horizontal, Fire: p.fire}, nil
}
