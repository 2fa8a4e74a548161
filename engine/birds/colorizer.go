package birds

import (
	"math"
	"math/rand/v2"

	"github.com/Carmen-Shannon/oxy-birds/common"
)

// Default colors used when a host does not configure its own.
const (
	DefaultColor1 uint32 = 0x8bf329
	DefaultColor2 uint32 = 0x298bf3
)

// Colorizer picks the color of each bird vertex.
type Colorizer interface {
	// Color returns the color for a vertex of the bird at the given order.
	//
	// Parameters:
	//   - order: the bird index divided by the agent count, in [0, 1)
	//
	// Returns:
	//   - common.Color: the vertex color
	Color(order float32) common.Color

	// Mode returns the colorizer's color mode.
	Mode() ColorMode
}

type colorizer struct {
	mode   ColorMode
	color1 uint32
	color2 uint32
	c1     common.Color
	c2     common.Color
	rng    *rand.Rand
}

var _ Colorizer = &colorizer{}

// NewColorizer creates a Colorizer for the given mode and packed colors.
//
// Parameters:
//   - mode: the color mode
//   - color1: first packed 0xRRGGBB color
//   - color2: second packed 0xRRGGBB color
//   - rng: random source for the gradient and variance modes; a fixed-seed source is used when nil
//
// Returns:
//   - Colorizer: the colorizer
//   - error: ErrInvalidColorMode or common.ErrColorOutOfRange
func NewColorizer(mode ColorMode, color1, color2 uint32, rng *rand.Rand) (Colorizer, error) {
	if !mode.Valid() {
		return nil, ErrInvalidColorMode
	}
	if err := common.ValidateColor(color1); err != nil {
		return nil, err
	}
	if err := common.ValidateColor(color2); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(color1), uint64(color2)))
	}
	return &colorizer{
		mode:   mode,
		color1: color1,
		color2: color2,
		c1:     common.ColorFromHex(color1),
		c2:     common.ColorFromHex(color2),
		rng:    rng,
	}, nil
}

func (c *colorizer) Mode() ColorMode {
	return c.mode
}

func (c *colorizer) Color(order float32) common.Color {
	dist := order
	if c.mode.Gradient() {
		dist = c.rng.Float32()
	}

	switch c.mode {
	case ColorModeVariance, ColorModeVarianceGradient:
		return common.Color{
			R: common.Clamp(c.c1.R+c.rng.Float32()*c.c2.R, 0, 1),
			G: common.Clamp(c.c1.G+c.rng.Float32()*c.c2.G, 0, 1),
			B: common.Clamp(c.c1.B+c.rng.Float32()*c.c2.B, 0, 1),
		}
	case ColorModeMix:
		// Packed-integer arithmetic; channels carry into each other and overflow is dropped.
		mixed := math.Floor(float64(c.color1) + float64(dist)*float64(c.color2))
		return common.ColorFromHex(uint32(mixed) & common.MaxColor)
	default:
		return c.c1.Lerp(c.c2, dist)
	}
}
