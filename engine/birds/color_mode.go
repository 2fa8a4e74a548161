// Package birds builds the flock's bird mesh and holds the shading side of the
// flock: the color modes, the vertex and uniform GPU types, the WGSL vertex and
// fragment stages, and a Go rendition of the per-vertex transform.
package birds

import (
	"errors"
	"fmt"
)

// ColorMode selects how per-vertex colors are derived from the two configured colors.
type ColorMode int

const (
	// ColorModeLerp interpolates color1 toward color2 by the bird's order.
	ColorModeLerp ColorMode = iota

	// ColorModeLerpGradient interpolates by a fresh random amount per vertex.
	ColorModeLerpGradient

	// ColorModeVariance adds a random fraction of color2 to color1, channel by channel.
	ColorModeVariance

	// ColorModeVarianceGradient behaves like ColorModeVariance; variance is already per vertex.
	ColorModeVarianceGradient

	// ColorModeMix adds order*color2 to color1 as packed integers.
	ColorModeMix
)

// ErrInvalidColorMode is returned for values outside ColorModeLerp..ColorModeMix.
var ErrInvalidColorMode = errors.New("invalid color mode")

var colorModeNames = [...]string{"lerp", "lerpGradient", "variance", "varianceGradient", "mix"}

// String returns the mode's name as used in configuration files.
func (m ColorMode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("ColorMode(%d)", int(m))
	}
	return colorModeNames[m]
}

// Valid reports whether m names one of the five color modes.
func (m ColorMode) Valid() bool {
	return m >= ColorModeLerp && m <= ColorModeMix
}

// Gradient reports whether the mode draws a random distance per vertex instead of using the bird order.
func (m ColorMode) Gradient() bool {
	return m == ColorModeLerpGradient || m == ColorModeVarianceGradient
}

// ParseColorMode resolves a configuration name to a ColorMode.
//
// Parameters:
//   - name: one of lerp, lerpGradient, variance, varianceGradient, mix
//
// Returns:
//   - ColorMode: the matching mode
//   - error: ErrInvalidColorMode if the name is unknown
func ParseColorMode(name string) (ColorMode, error) {
	for i, n := range colorModeNames {
		if n == name {
			return ColorMode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidColorMode, name)
}
