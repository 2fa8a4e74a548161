package scene

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-birds/common"
	"github.com/Carmen-Shannon/oxy-birds/engine/birds"
	"github.com/Carmen-Shannon/oxy-birds/engine/flock"
)

// ErrInvalidSettings is returned by Settings.Validate and Configure.
var ErrInvalidSettings = errors.New("scene: invalid settings")

// DefaultAgents is the default flock size, a full 32×32 grid.
const DefaultAgents = 32 * 32

// MaxAgents bounds the flock to the largest simulation grid.
const MaxAgents = flock.MaxGridWidth * flock.MaxGridWidth

// Settings describe one flock.
type Settings struct {
	// Agents is the number of birds drawn. The simulation grid rounds up to the next square.
	Agents int
	// WingSpan is the wing tip offset of the unscaled bird mesh.
	WingSpan float32
	// ColorMode selects how Color1 and Color2 are combined per vertex.
	ColorMode birds.ColorMode
	// Color1 and Color2 are packed 0xRRGGBB colors.
	Color1 uint32
	Color2 uint32
	// Flock holds the flocking distances.
	Flock flock.Parameters
	// Seed seeds positions, velocities and the random color modes. Zero picks a random seed.
	Seed uint64
}

// DefaultSettings returns 1024 birds with wing span 20, lerp coloring between the default
// colors and the default flock parameters.
func DefaultSettings() Settings {
	return Settings{
		Agents:    DefaultAgents,
		WingSpan:  birds.DefaultWingSpan,
		ColorMode: birds.ColorModeLerp,
		Color1:    birds.DefaultColor1,
		Color2:    birds.DefaultColor2,
		Flock:     flock.DefaultParameters(),
	}
}

// AgentCount returns the number of birds drawn.
func (s Settings) AgentCount() int {
	return s.Agents
}

// GridWidth returns the side of the square simulation grid. Every one of its GridWidth² cells
// is simulated, including those past AgentCount.
func (s Settings) GridWidth() int {
	return flock.GridWidth(s.Agents)
}

// Validate checks every field.
//
// Returns:
//   - error: ErrInvalidSettings wrapping the first problem, or nil
func (s Settings) Validate() error {
	if s.Agents < 1 || s.Agents > MaxAgents {
		return fmt.Errorf("%w: agent count %d outside [1, %d]", ErrInvalidSettings, s.Agents, MaxAgents)
	}
	if s.WingSpan < 0 {
		return fmt.Errorf("%w: negative wing span %g", ErrInvalidSettings, s.WingSpan)
	}
	if !s.ColorMode.Valid() {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, birds.ErrInvalidColorMode)
	}
	for _, c := range []uint32{s.Color1, s.Color2} {
		if err := common.ValidateColor(c); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
		}
	}
	if err := s.Flock.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	return nil
}
