package scene

import (
	"github.com/Carmen-Shannon/oxy-birds/common"
	"github.com/Carmen-Shannon/oxy-birds/engine/compute"
	"github.com/Carmen-Shannon/oxy-birds/engine/flock"
)

// flockPrograms returns the velocity and position programs carrying both the WGSL kernels and their
// Go renditions. The Go kernels call uniforms once per cell, so the block must not change during a tick.
func flockPrograms(uniforms func() *flock.GPUFlockUniforms) (velocity, position compute.Program) {
	velocity = compute.Program{
		Name:   flock.VelocityVariable,
		Source: flock.VelocitySource,
		Kernel: func(in compute.Inputs, x, y int) [4]float32 {
			return flock.Velocity(in.Sampler(flock.PositionVariable), in.Sampler(flock.VelocityVariable), uniforms(), x, y)
		},
	}
	position = compute.Program{
		Name:   flock.PositionVariable,
		Source: flock.PositionSource,
		Kernel: func(in compute.Inputs, x, y int) [4]float32 {
			return flock.Position(in.Sampler(flock.PositionVariable), in.Sampler(flock.VelocityVariable), uniforms(), x, y)
		},
	}
	return velocity, position
}

// registerFlock adds the velocity and position variables to s. Velocity runs first and both
// programs read both variables.
//
// Parameters:
//   - s: a scheduler that has not been initialized
//   - uniforms: returns the uniform block of the running tick
//   - positions: seed position texture
//   - velocities: seed velocity texture
//
// Returns:
//   - velocity: the velocity variable
//   - position: the position variable
//   - error: an error from AddVariable
func registerFlock(s compute.Scheduler, uniforms func() *flock.GPUFlockUniforms, positions, velocities *common.FloatTextureData) (velocity, position *compute.Variable, err error) {
	velProgram, posProgram := flockPrograms(uniforms)

	velocity, err = s.AddVariable(flock.VelocityVariable, velProgram, velocities)
	if err != nil {
		return nil, nil, err
	}
	position, err = s.AddVariable(flock.PositionVariable, posProgram, positions)
	if err != nil {
		return nil, nil, err
	}

	s.SetDependencies(velocity, position, velocity)
	s.SetDependencies(position, position, velocity)
	return velocity, position, nil
}
