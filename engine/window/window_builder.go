package window

// WindowBuilderOption configures a window in NewWindow.
type WindowBuilderOption func(o *windowOptions)

type windowOptions struct {
	title  string
	width  int
	height int
}

func defaultWindowOptions() windowOptions {
	return windowOptions{title: "oxy-birds", width: 1280, height: 720}
}

// WithTitle sets the title bar text.
//
// Parameters:
//   - title: the window title
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(o *windowOptions) {
		o.title = title
	}
}

// WithSize sets the requested window size. Non-positive sizes keep the default. On high-DPI
// displays the framebuffer reported by Width and Height may be larger.
//
// Parameters:
//   - width, height: size in screen coordinates
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(o *windowOptions) {
		if width > 0 && height > 0 {
			o.width, o.height = width, height
		}
	}
}
