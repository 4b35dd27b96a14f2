package component

import "github.com/milk9111/swarm/common"

// Observation is the fixed input handed to a decision function.
type Observation struct {
	Position  common.Vec3
	Attacking bool
	// Player is set when the observation belongs to the player ship.
	Player bool
	// Target is the position of the opposing ship (the player for units).
	Target common.Vec3
	Tick   int
}

// Decision is the output of a decision function for one movement tick.
// Horizontal is a velocity along x in world units per second.
type Decision struct {
	Horizontal float64
	Fire       bool
}
