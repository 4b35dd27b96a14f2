package component

import "github.com/milk9111/swarm/common"

// Grid holds the world position of every formation cell, indexed [row][col].
type Grid struct {
	Rows  int
	Cols  int
	Cells [][]common.Vec3
}

// At returns the position of cell c.
func (g Grid) At(c Cell) (common.Vec3, bool) {
	if c.Row < 0 || c.Row >= g.Rows || c.Col < 0 || c.Col >= g.Cols {
		return common.Vec3{}, false
	}
	return g.Cells[c.Row][c.Col], true
}

// Placement is one spawn of a load phase.
type Placement struct {
	Cell Cell
	Kind Kind
	Lane int
}

// Phase lists the placements spawned together, in launch order.
type Phase struct {
	Timeout    float64
	Placements []Placement
}

// Wave is the ordered list of load phases.
type Wave struct {
	Phases []Phase
}

// Size returns the total number of units spawned by the wave.
func (w Wave) Size() int {
	n := 0
	for _, p := range w.Phases {
		n += len(p.Placements)
	}
	return n
}
