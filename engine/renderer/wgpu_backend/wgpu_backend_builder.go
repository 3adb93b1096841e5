package wgpu_backend

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/logging"
	"github.com/cogentcore/webgpu/wgpu"
)

// BackendBuilderOption is a functional option applied to the backend during construction via NewBackend.
type BackendBuilderOption func(*backend)

// WithPresentMode sets how frames are delivered to the display. The default is VSync.
//
// Parameters:
//   - mode: the PresentMode to use
//
// Returns:
//   - BackendBuilderOption: a function that applies the present mode option
func WithPresentMode(mode PresentMode) BackendBuilderOption {
	return func(b *backend) {
		b.presentMode = wgpuPresentMode(mode)
	}
}

// WithMSAA sets the sample count of the main render pass. The default is 4x.
//
// Parameters:
//   - count: 1, 4, 8 or 16
//
// Returns:
//   - BackendBuilderOption: a function that applies the MSAA option
func WithMSAA(count MSAASampleCount) BackendBuilderOption {
	return func(b *backend) {
		b.sampleCount = count
	}
}

// WithForceSoftwareRenderer requests the fallback (software) adapter.
//
// Parameters:
//   - force: whether to force the fallback adapter
//
// Returns:
//   - BackendBuilderOption: a function that applies the adapter option
func WithForceSoftwareRenderer(force bool) BackendBuilderOption {
	return func(b *backend) {
		b.forceFallback = force
	}
}

// WithClearColor sets the color the frame is cleared to.
func WithClearColor(r, g, bl, a float64) BackendBuilderOption {
	return func(b *backend) {
		b.clearColor = wgpu.Color{R: r, G: g, B: bl, A: a}
	}
}

// WithLogger replaces the backend's logger.
func WithLogger(log logging.Logger) BackendBuilderOption {
	return func(b *backend) {
		b.log = log
	}
}
