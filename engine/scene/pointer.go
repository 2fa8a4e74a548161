package scene

// Pointer offsets applied to mouse positions before mapping them to the predator.
// Touch positions are used as is.
const (
	MouseOffsetX float32 = 200
	MouseOffsetY float32 = 100

	// FarPointer is the pointer offset that parks the predator well outside the flock.
	FarPointer float32 = 10000
)

// PointerToPredator maps a pointer position in window pixels to the predator position in
// normalized device coordinates. Mouse positions are shifted by MouseOffsetX and MouseOffsetY.
//
// Parameters:
//   - x, y: pointer position in pixels from the top-left corner
//   - width, height: surface size in pixels; non-positive sizes count as 1
//   - touch: true for touch input
//
// Returns:
//   - [3]float32: the predator with z = 0
func PointerToPredator(x, y float32, width, height int, touch bool) [3]float32 {
	halfW, halfH := halfSize(width, height)
	mx, my := x-halfW, y-halfH
	if !touch {
		mx -= MouseOffsetX
		my -= MouseOffsetY
	}
	return offsetToPredator(mx, my, halfW, halfH)
}

// FarPredator returns the predator position used while no pointer input arrived since the last tick.
//
// Parameters:
//   - width, height: surface size in pixels; non-positive sizes count as 1
//
// Returns:
//   - [3]float32: the parked predator
func FarPredator(width, height int) [3]float32 {
	halfW, halfH := halfSize(width, height)
	return offsetToPredator(FarPointer, FarPointer, halfW, halfH)
}

func offsetToPredator(mx, my, halfW, halfH float32) [3]float32 {
	return [3]float32{0.5 * mx / halfW, -0.5 * my / halfH, 0}
}

func halfSize(width, height int) (float32, float32) {
	return float32(max(width, 1)) / 2, float32(max(height, 1)) / 2
}
