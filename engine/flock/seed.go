package flock

import (
	"math/rand/v2"

	"github.com/Carmen-Shannon/oxy-birds/common"
)

// SeedPositions fills a width×width texture with positions uniform in
// [-HalfBounds, HalfBounds) on each axis and w = 1.
//
// Parameters:
//   - width: grid width
//   - rng: random source
//
// Returns:
//   - *common.FloatTextureData: the seeded texture
func SeedPositions(width int, rng *rand.Rand) *common.FloatTextureData {
	tex := common.NewFloatTextureData(uint32(width), uint32(width))
	for k := 0; k < len(tex.Texels); k += 4 {
		tex.Texels[k+0] = rng.Float32()*Bounds - HalfBounds
		tex.Texels[k+1] = rng.Float32()*Bounds - HalfBounds
		tex.Texels[k+2] = rng.Float32()*Bounds - HalfBounds
		tex.Texels[k+3] = 1
	}
	return tex
}

// SeedVelocities fills a width×width texture with velocities (rand-0.5)*10 per axis and w = 1.
//
// Parameters:
//   - width: grid width
//   - rng: random source
//
// Returns:
//   - *common.FloatTextureData: the seeded texture
func SeedVelocities(width int, rng *rand.Rand) *common.FloatTextureData {
	tex := common.NewFloatTextureData(uint32(width), uint32(width))
	for k := 0; k < len(tex.Texels); k += 4 {
		tex.Texels[k+0] = (rng.Float32() - 0.5) * 10
		tex.Texels[k+1] = (rng.Float32() - 0.5) * 10
		tex.Texels[k+2] = (rng.Float32() - 0.5) * 10
		tex.Texels[k+3] = 1
	}
	return tex
}
