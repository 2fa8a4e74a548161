package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyR      = 82  // R key (ASCII), reseeds the flock
	KeySpace  = 32  // Spacebar (ASCII), pauses the simulation
	KeyEscape = 256 // closes the window

	// Color mode selection.
	Key0 = 48
	Key1 = 49
	Key2 = 50
	Key3 = 51
	Key4 = 52
)
