package window

import "github.com/Carmen-Shannon/oxy-scene/engine/logging"

// WindowBuilderOption is a functional option for configuring an engineWindow.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the window title displayed in the title bar.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithSize sets the initial client area size. Non-positive values keep the default.
//
// Parameters:
//   - width: initial width in pixels
//   - height: initial height in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		if width > 0 && height > 0 {
			w.size = Size{Width: width, Height: height}
		}
	}
}

// WithSizeLimits bounds interactive resizing.
//
// Parameters:
//   - minSize: the smallest allowed size
//   - maxSize: the largest allowed size
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSizeLimits(minSize, maxSize Size) WindowBuilderOption {
	return func(w *engineWindow) {
		w.minSize, w.maxSize = minSize, maxSize
	}
}

// WithLogger replaces the window logger.
func WithLogger(log logging.Logger) WindowBuilderOption {
	return func(w *engineWindow) {
		w.log = log
	}
}
