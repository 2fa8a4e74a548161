package common

import (
	"errors"
	"fmt"
)

// MaxColor is the largest packed 0xRRGGBB value.
const MaxColor = 0xffffff

// ErrColorOutOfRange is returned when a packed color exceeds 0xffffff.
var ErrColorOutOfRange = errors.New("color out of range")

// Color is a linear RGB triple with components nominally in [0, 1].
type Color struct {
	R, G, B float32
}

// ColorFromHex unpacks a 0xRRGGBB value. Bits above 24 are discarded.
//
// Parameters:
//   - hex: packed color
//
// Returns:
//   - Color: the unpacked color with components in [0, 1]
func ColorFromHex(hex uint32) Color {
	return Color{
		R: float32((hex>>16)&0xff) / 255,
		G: float32((hex>>8)&0xff) / 255,
		B: float32(hex&0xff) / 255,
	}
}

// Hex packs the color into 0xRRGGBB, clamping each channel.
func (c Color) Hex() uint32 {
	r := uint32(Clamp(c.R, 0, 1)*255 + 0.5)
	g := uint32(Clamp(c.G, 0, 1)*255 + 0.5)
	b := uint32(Clamp(c.B, 0, 1)*255 + 0.5)
	return r<<16 | g<<8 | b
}

// Lerp linearly interpolates from c toward o by t.
func (c Color) Lerp(o Color, t float32) Color {
	return Color{
		R: c.R + (o.R-c.R)*t,
		G: c.G + (o.G-c.G)*t,
		B: c.B + (o.B-c.B)*t,
	}
}

// RGBA returns the color as a 4-component array with the given alpha.
func (c Color) RGBA(alpha float32) [4]float32 {
	return [4]float32{c.R, c.G, c.B, alpha}
}

// ValidateColor reports an error when hex is not a valid 0xRRGGBB value.
//
// Parameters:
//   - hex: packed color
//
// Returns:
//   - error: ErrColorOutOfRange wrapped with the offending value, or nil
func ValidateColor(hex uint32) error {
	if hex > MaxColor {
		return fmt.Errorf("%w: %#x", ErrColorOutOfRange, hex)
	}
	return nil
}
