package system

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/milk9111/swarm/ecs/component"
	"github.com/milk9111/swarm/prefabs"
)

// Decider produces the steering and fire input for one movement tick.
type Decider interface {
	Decide(ctx context.Context, obs component.Observation) (component.Decision, error)
}

// DeciderFunc adapts a plain function to Decider.
type DeciderFunc func(ctx context.Context, obs component.Observation) (component.Decision, error)

func (f DeciderFunc) Decide(ctx context.Context, obs component.Observation) (component.Decision, error) {
	return f(ctx, obs)
}

// RandomDecider picks a whole-unit horizontal speed in [-Max, Max] and fires
// on a coin flip.
type RandomDecider struct {
	Rand *rand.Rand
	Max  int
}

func (d RandomDecider) Decide(_ context.Context, _ component.Observation) (component.Decision, error) {
	if d.Rand == nil || d.Max < 0 {
		return component.Decision{}, fmt.Errorf("system: random decider not configured")
	}
	return component.Decision{
		Horizontal: float64(d.Rand.Intn(2*d.Max+1) - d.Max),
		Fire:       d.Rand.Intn(2) == 1,
	}, nil
}

const decideDispatchScript = `
__decision := decide(__obs)
`

// ScriptDecider runs the decide(obs) function of a tengo script.
type ScriptDecider struct {
	name     string
	compiled *tengo.Compiled
}

// NewScriptDecider compiles the named script once; every Decide call reruns
// the compiled program with a fresh observation.
func NewScriptDecider(name string) (*ScriptDecider, error) {
	src, err := prefabs.LoadScript(name)
	if err != nil {
		return nil, fmt.Errorf("system: load script %s: %w", name, err)
	}

	script := tengo.NewScript([]byte(string(src) + "\n" + decideDispatchScript))
	_ = script.Add("__obs", map[string]any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("system: compile script %s: %w", name, err)
	}
	return &ScriptDecider{name: name, compiled: compiled}, nil
}

func (d *ScriptDecider) Name() string {
	return d.name
}

func (d *ScriptDecider) Decide(ctx context.Context, obs component.Observation) (component.Decision, error) {
	if err := d.compiled.Set("__obs", map[string]any{
		"x":         obs.Position.X,
		"z":         obs.Position.Z,
		"attacking": obs.Attacking,
		"player":    obs.Player,
		"player_x":  obs.Target.X,
		"player_z":  obs.Target.Z,
		"tick":      obs.Tick,
	}); err != nil {
		return component.Decision{}, err
	}
	if err := d.compiled.RunContext(ctx); err != nil {
		return component.Decision{}, err
	}

	out := d.compiled.Get("__decision").Map()
	if out == nil {
		return component.Decision{}, fmt.Errorf("system: script %s: decide must return a map", d.name)
	}
	return component.Decision{
		Horizontal: asFloat(out["horizontal"]),
		Fire:       asBool(out["fire"]),
	}, nil
}

// SafeDecide asks d for a decision and falls back to the zero decision when
// the decider errors, panics or runs past timeout.
func SafeDecide(d Decider, obs component.Observation, timeout time.Duration) (dec component.Decision) {
	if d == nil {
		return component.Decision{}
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("decision: panic: %v", r)
			dec = component.Decision{}
		}
	}()

	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	dec, err := d.Decide(ctx, obs)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		log.Printf("decision: %v", err)
		return component.Decision{}
	}
	return dec
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}
