// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

// FloatTextureData holds RGBA float texel data for a simulation target pending upload.
// Texels are row-major with 4 components per texel, so len(Texels) == Width*Height*4.
type FloatTextureData struct {
	// Texels is the flat RGBA component slice.
	Texels []float32
	// Width is the texture width in texels.
	Width uint32
	// Height is the texture height in texels.
	Height uint32
}

// NewFloatTextureData allocates a zeroed RGBA float texture of the given size.
//
// Parameters:
//   - width: texture width in texels
//   - height: texture height in texels
//
// Returns:
//   - *FloatTextureData: the zeroed texture
func NewFloatTextureData(width, height uint32) *FloatTextureData {
	return &FloatTextureData{
		Texels: make([]float32, int(width)*int(height)*4),
		Width:  width,
		Height: height,
	}
}

// At returns the RGBA texel at (x, y). Coordinates must be in range.
func (t *FloatTextureData) At(x, y int) [4]float32 {
	i := (y*int(t.Width) + x) * 4
	return [4]float32{t.Texels[i], t.Texels[i+1], t.Texels[i+2], t.Texels[i+3]}
}

// Set writes the RGBA texel at (x, y). Coordinates must be in range.
func (t *FloatTextureData) Set(x, y int, v [4]float32) {
	i := (y*int(t.Width) + x) * 4
	copy(t.Texels[i:i+4], v[:])
}

// Clone returns a deep copy of the texture.
func (t *FloatTextureData) Clone() *FloatTextureData {
	out := &FloatTextureData{Width: t.Width, Height: t.Height, Texels: make([]float32, len(t.Texels))}
	copy(out.Texels, t.Texels)
	return out
}
