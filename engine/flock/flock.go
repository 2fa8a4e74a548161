// Package flock holds the boids rules: flock parameters, the velocity and position
// kernels (WGSL for the GPU and a Go rendition for host execution), seeding of the
// simulation textures, and the uniform block both kernels read.
package flock

import (
	"errors"
	"fmt"
)

// Simulation variable names. The WGSL kernels bind their inputs by these names.
const (
	PositionVariable = "position"
	VelocityVariable = "velocity"
)

const (
	// Bounds is the edge length of the seeding cube; the predator is scaled by it.
	Bounds float32 = 800
	// HalfBounds is half of Bounds.
	HalfBounds = Bounds / 2
	// PreyRadius is the distance within which the predator repels a bird.
	PreyRadius float32 = 150
	// SpeedLimit caps bird speed. Fleeing birds get FleeBoost on top.
	SpeedLimit float32 = 9
	// FleeBoost is added to SpeedLimit while the predator is within PreyRadius.
	FleeBoost float32 = 5
	// PhasePeriod wraps the wing-flap phase.
	PhasePeriod float32 = 62.83
	// MaxGridWidth bounds the square simulation grid (MaxGridWidth² agents).
	MaxGridWidth = 200
)

// ErrInvalidParameters is returned by Parameters.Validate.
var ErrInvalidParameters = errors.New("invalid flock parameters")

// Parameters are the user-tunable flocking distances.
type Parameters struct {
	// Separation is the distance band in which birds push apart.
	Separation float32 `toml:"separation" yaml:"separation"`
	// Alignment is the distance band in which birds match heading.
	Alignment float32 `toml:"alignment" yaml:"alignment"`
	// Cohesion is the distance band in which birds pull together.
	Cohesion float32 `toml:"cohesion" yaml:"cohesion"`
	// Freedom is carried to the GPU but not read by the kernels.
	Freedom float32 `toml:"freedom" yaml:"freedom"`
}

// DefaultParameters returns separation, alignment and cohesion of 20 with freedom 0.75.
func DefaultParameters() Parameters {
	return Parameters{Separation: 20, Alignment: 20, Cohesion: 20, Freedom: 0.75}
}

// Validate rejects negative distances and the all-zero configuration, which has no zone.
//
// Returns:
//   - error: ErrInvalidParameters wrapped with the reason, or nil
func (p Parameters) Validate() error {
	if p.Separation < 0 || p.Alignment < 0 || p.Cohesion < 0 {
		return fmt.Errorf("%w: distances must be non-negative (separation=%g, alignment=%g, cohesion=%g)",
			ErrInvalidParameters, p.Separation, p.Alignment, p.Cohesion)
	}
	if p.ZoneRadius() == 0 {
		return fmt.Errorf("%w: separation, alignment and cohesion are all zero", ErrInvalidParameters)
	}
	return nil
}

// ZoneRadius is the neighborhood radius, the sum of the three distances.
func (p Parameters) ZoneRadius() float32 {
	return p.Separation + p.Alignment + p.Cohesion
}

// Thresholds returns the normalized band edges used by the velocity kernel.
// For valid parameters 0 <= separation <= alignment <= 1.
//
// Returns:
//   - separation: Separation / ZoneRadius
//   - alignment: (Separation + Alignment) / ZoneRadius
func (p Parameters) Thresholds() (separation, alignment float32) {
	zone := p.ZoneRadius()
	if zone == 0 {
		return 0, 0
	}
	return p.Separation / zone, (p.Separation + p.Alignment) / zone
}

// GridWidth returns the width of the square grid that holds agentCount agents.
// Requests are rounded up so that every agent has a cell.
//
// Parameters:
//   - agentCount: requested number of agents
//
// Returns:
//   - int: the smallest w with w*w >= agentCount, at least 1
func GridWidth(agentCount int) int {
	w := 1
	for w*w < agentCount {
		w++
	}
	return w
}
