package compute

// Sampler reads texels of one input target with the pass's wrap mode applied.
// Its method set matches flock.Field.
type Sampler interface {
	// Load returns the RGBA texel at (x, y). Out-of-range coordinates wrap or clamp.
	Load(x, y int) [4]float32
	// Width returns the grid width in texels.
	Width() int
	// Height returns the grid height in texels.
	Height() int
}

// Inputs gives a kernel the dependency snapshot of the pass it runs in.
type Inputs interface {
	// Sampler returns the current-generation sampler of the named dependency, or nil if the
	// variable does not depend on it.
	Sampler(name string) Sampler
}

// Kernel computes the new texel at (x, y) for the CPU backend.
type Kernel func(in Inputs, x, y int) [4]float32

// Program is what a variable runs each tick. A backend uses the part it understands:
// Source for the wgpu backend, Kernel for the CPU backend.
type Program struct {
	// Name labels pipelines and metrics. Defaults to the variable name.
	Name string
	// Source is the WGSL compute shader. It declares its textures with
	// //@oxy:texture <g> <b> input <dependency> and //@oxy:texture <g> <b> output <variable>.
	Source string
	// Kernel is the host rendition of Source.
	Kernel Kernel
}
