package system

import (
	"errors"
	"fmt"

	"github.com/milk9111/swarm/common"
	"github.com/milk9111/swarm/ecs/component"
)

var ErrInvalidGrid = errors.New("system: invalid formation grid")

// BuildGrid lays out rows x cols formation cells starting from origin.
//
// Every row restarts at x = -5*gap regardless of the column count, so grids
// narrower or wider than ten columns are not centred. Existing waves are
// authored against that layout.
func BuildGrid(rows, cols int, gap float64, origin common.Vec3) (component.Grid, error) {
	if rows <= 0 || cols <= 0 {
		return component.Grid{}, fmt.Errorf("%w: %dx%d", ErrInvalidGrid, rows, cols)
	}
	if gap <= 0 {
		return component.Grid{}, fmt.Errorf("%w: gap %v", ErrInvalidGrid, gap)
	}

	cells := make([][]common.Vec3, rows)
	for i := 0; i < rows; i++ {
		cells[i] = make([]common.Vec3, cols)
		startX := gap * -5
		for j := 0; j < cols; j++ {
			cells[i][j] = common.Vec3{X: startX, Y: 0, Z: float64(i) * gap}.Add(origin)
			startX += gap
		}
	}
	return component.Grid{Rows: rows, Cols: cols, Cells: cells}, nil
}
