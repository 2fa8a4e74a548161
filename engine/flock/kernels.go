package flock

import (
	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-birds/common"
)

// Field reads RGBA texels from one generation of a simulation texture.
type Field interface {
	Load(x, y int) [4]float32
	Width() int
	Height() int
}

func xyz(t [4]float32) common.Vec3 {
	return common.Vec3{X: t[0], Y: t[1], Z: t[2]}
}

// Velocity computes the next velocity of the bird at (x, y). It mirrors velocity.wgsl.
//
// Parameters:
//   - positions: current position generation (xyz, phase in w)
//   - velocities: current velocity generation
//   - u: per-tick uniforms
//   - x, y: the cell being updated
//
// Returns:
//   - [4]float32: the new velocity with w = 1
func Velocity(positions, velocities Field, u *GPUFlockUniforms, x, y int) [4]float32 {
	delta := u.Delta
	params := u.Parameters()
	zoneRadius := params.ZoneRadius()
	zoneRadiusSq := zoneRadius * zoneRadius
	separationThresh, alignmentThresh := params.Thresholds()

	selfPosition := xyz(positions.Load(x, y))
	velocity := xyz(velocities.Load(x, y))
	limit := SpeedLimit

	// Predator avoidance happens in the xy plane only.
	dir := common.Vec3{X: u.Predator[0], Y: u.Predator[1], Z: u.Predator[2]}.Scale(u.Bounds).Sub(selfPosition)
	dir.Z = 0
	dist := dir.Length()
	if dist < PreyRadius {
		f := (dist*dist/(PreyRadius*PreyRadius) - 1) * delta * 100
		velocity = velocity.Add(dir.Normalize().Scale(f))
		limit += FleeBoost
	}

	dir = selfPosition
	dir.Y *= 2.5
	velocity = velocity.Sub(dir.Normalize().Scale(delta * 5))

	if zoneRadius > 0 {
		w, h := positions.Width(), positions.Height()
		for oy := 0; oy < h; oy++ {
			for ox := 0; ox < w; ox++ {
				dir = xyz(positions.Load(ox, oy)).Sub(selfPosition)
				dist = dir.Length()
				if dist < 0.0001 {
					continue
				}
				distSq := dist * dist
				if distSq > zoneRadiusSq {
					continue
				}
				percent := distSq / zoneRadiusSq

				switch {
				case percent < separationThresh:
					f := (separationThresh/percent - 1) * delta
					velocity = velocity.Sub(dir.Normalize().Scale(f))
				case percent < alignmentThresh:
					adjusted := (percent - separationThresh) / (alignmentThresh - separationThresh)
					birdVelocity := xyz(velocities.Load(ox, oy))
					f := (0.5 - math32.Cos(adjusted*2*math32.Pi)*0.5 + 0.5) * delta
					velocity = velocity.Add(birdVelocity.Normalize().Scale(f))
				default:
					threshDelta := 1 - alignmentThresh
					if threshDelta <= 0 {
						continue
					}
					adjusted := (percent - alignmentThresh) / threshDelta
					f := (0.5 - (math32.Cos(adjusted*2*math32.Pi)*-0.5 + 0.5)) * delta
					velocity = velocity.Add(dir.Normalize().Scale(f))
				}
			}
		}
	}

	if velocity.Length() > limit {
		velocity = velocity.Normalize().Scale(limit)
	}
	return [4]float32{velocity.X, velocity.Y, velocity.Z, 1}
}

// Position integrates the bird at (x, y) and advances its wing phase. It mirrors position.wgsl.
//
// Parameters:
//   - positions: current position generation (xyz, phase in w)
//   - velocities: current velocity generation
//   - u: per-tick uniforms
//   - x, y: the cell being updated
//
// Returns:
//   - [4]float32: the new position with the new phase in w
func Position(positions, velocities Field, u *GPUFlockUniforms, x, y int) [4]float32 {
	delta := u.Delta
	tmp := positions.Load(x, y)
	velocity := xyz(velocities.Load(x, y))

	xzLen := math32.Sqrt(velocity.X*velocity.X + velocity.Z*velocity.Z)
	phase := floorMod(tmp[3]+delta+xzLen*delta*3+max(velocity.Y, 0)*delta*6, PhasePeriod)

	p := xyz(tmp).Add(velocity.Scale(delta * 15))
	return [4]float32{p.X, p.Y, p.Z, phase}
}

// floorMod matches the shading-language mod: x - y*floor(x/y).
func floorMod(x, y float32) float32 {
	return x - y*math32.Floor(x/y)
}
