// Package config loads the scene settings file. Every field has a default, so a file only needs the keys it
// overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/pelletier/go-toml/v2"
)

// Config is the full set of scene settings.
type Config struct {
	Window WindowConfig `toml:"window"`
	Assets AssetsConfig `toml:"assets"`
	Camera CameraConfig `toml:"camera"`
	Lights LightsConfig `toml:"lights"`
	Loader LoaderConfig `toml:"loader"`
	Log    LogConfig    `toml:"log"`
}

// WindowConfig holds the window and surface settings.
type WindowConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	VSync  bool   `toml:"vsync"`
	MSAA   int    `toml:"msaa"`

	// MinSize and MaxSize bound interactive resizing as [width, height].
	MinSize [2]int `toml:"min_size"`
	MaxSize [2]int `toml:"max_size"`

	// ClearColor is the RGBA color the frame is cleared to.
	ClearColor [4]float64 `toml:"clear_color"`

	// SoftwareRenderer requests the fallback adapter instead of a hardware GPU.
	SoftwareRenderer bool `toml:"software_renderer"`
}

// AssetsConfig locates the asset directory. An empty ShaderDir uses the embedded shaders.
type AssetsConfig struct {
	Root      string `toml:"root"`
	ShaderDir string `toml:"shader_dir"`
}

// CameraConfig holds the projection, the starting view and the fly controls.
type CameraConfig struct {
	FovDegrees       float32    `toml:"fov_degrees"`
	Near             float32    `toml:"near"`
	Far              float32    `toml:"far"`
	Eye              [3]float32 `toml:"eye"`
	At               [3]float32 `toml:"at"`
	MoveSpeed        float32    `toml:"move_speed"`
	RotateSpeed      float32    `toml:"rotate_speed"`
	DegreesPerSecond float32    `toml:"degrees_per_second"`
}

// LightConfig holds one light's color, start position and per-frame step.
type LightConfig struct {
	Color    [4]float32 `toml:"color"`
	Position [3]float32 `toml:"position"`
	Step     float32    `toml:"step"`
}

// AttenuationConfig holds the falloff shared by every light.
type AttenuationConfig struct {
	SpotAngleDegrees float32 `toml:"spot_angle_degrees"`
	Constant         float32 `toml:"constant"`
	Linear           float32 `toml:"linear"`
	Quadratic        float32 `toml:"quadratic"`
}

// LightsConfig holds the three-light rig.
type LightsConfig struct {
	Ambient     [4]float32        `toml:"ambient"`
	Bound       float32           `toml:"bound"`
	Attenuation AttenuationConfig `toml:"attenuation"`
	Directional LightConfig       `toml:"directional"`
	Point       LightConfig       `toml:"point"`
	Spot        LightConfig       `toml:"spot"`
}

// LoaderConfig sizes the load graph worker pool.
type LoaderConfig struct {
	Workers   int `toml:"workers"`
	QueueSize int `toml:"queue_size"`
}

// LogConfig sets the default log level.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the built-in settings.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:      "oxy-scene",
			Width:      1280,
			Height:     720,
			VSync:      true,
			MSAA:       4,
			MinSize:    [2]int{320, 200},
			MaxSize:    [2]int{3840, 2160},
			ClearColor: [4]float64{0, 0, 0, 1},
		},
		Assets: AssetsConfig{Root: "Assets"},
		Camera: CameraConfig{
			FovDegrees:       70,
			Near:             0.01,
			Far:              100,
			Eye:              [3]float32{5, 10, -12},
			At:               [3]float32{0, -0.1, 0},
			MoveSpeed:        1,
			RotateSpeed:      0.75,
			DegreesPerSecond: 45,
		},
		Lights: LightsConfig{
			Bound:       20,
			Attenuation: AttenuationConfig{SpotAngleDegrees: 45, Constant: 1, Linear: 0.08},
			Directional: LightConfig{
				Color:    [4]float32{0.333333, 0.419608, 0.184314, 1},
				Position: [3]float32{2, 1, 5},
				Step:     1,
			},
			Point: LightConfig{
				Color:    [4]float32{1, 1, 0, 1},
				Position: [3]float32{2, 1, 5},
				Step:     0.25,
			},
			Spot: LightConfig{
				Color:    [4]float32{1, 0.549020, 0, 1},
				Position: [3]float32{0, 2, 0},
				Step:     1,
			},
		},
		Loader: LoaderConfig{Workers: 4, QueueSize: 32},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads and decodes a TOML settings file on top of the defaults.
//
// Parameters:
//   - path: the settings file path
//
// Returns:
//   - Config: the decoded configuration
//   - error: ErrResourceNotFound if the file does not exist, ErrIOFailure on other read failures, or a decode error
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: %s", common.ErrResourceNotFound, path)
		}
		return Config{}, fmt.Errorf("%w: %s: %w", common.ErrIOFailure, path, err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode decodes TOML from r on top of the defaults. Unknown keys are rejected.
//
// Parameters:
//   - r: the TOML source
//
// Returns:
//   - Config: the decoded configuration
//   - error: a decode or validation error
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the settings describe a usable scene.
func (c Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	case c.Window.MinSize[0] <= 0 || c.Window.MinSize[1] <= 0:
		return fmt.Errorf("window min size must be positive, got %dx%d", c.Window.MinSize[0], c.Window.MinSize[1])
	case c.Window.MaxSize[0] < c.Window.MinSize[0] || c.Window.MaxSize[1] < c.Window.MinSize[1]:
		return fmt.Errorf("window max size %dx%d is below min size %dx%d",
			c.Window.MaxSize[0], c.Window.MaxSize[1], c.Window.MinSize[0], c.Window.MinSize[1])
	case !unitColor(c.Window.ClearColor):
		return fmt.Errorf("clear color components must be in [0, 1], got %v", c.Window.ClearColor)
	case c.Window.MSAA != 1 && c.Window.MSAA != 4 && c.Window.MSAA != 8 && c.Window.MSAA != 16:
		return fmt.Errorf("msaa must be 1, 4, 8 or 16, got %d", c.Window.MSAA)
	case c.Camera.Near <= 0:
		return fmt.Errorf("camera near plane must be positive, got %g", c.Camera.Near)
	case c.Camera.Far <= c.Camera.Near:
		return fmt.Errorf("camera far plane %g must exceed near plane %g", c.Camera.Far, c.Camera.Near)
	case c.Camera.FovDegrees <= 0 || c.Camera.FovDegrees >= 180:
		return fmt.Errorf("camera fov must be in (0, 180), got %g", c.Camera.FovDegrees)
	case c.Lights.Bound <= 0:
		return fmt.Errorf("light bound must be positive, got %g", c.Lights.Bound)
	case c.Lights.Attenuation.SpotAngleDegrees <= 0 || c.Lights.Attenuation.SpotAngleDegrees >= 180:
		return fmt.Errorf("spot angle must be in (0, 180), got %g", c.Lights.Attenuation.SpotAngleDegrees)
	case !validFalloff(c.Lights.Attenuation):
		return fmt.Errorf("attenuation terms must be non-negative and not all zero, got %+v", c.Lights.Attenuation)
	case c.Loader.Workers < 1:
		return fmt.Errorf("loader needs at least one worker, got %d", c.Loader.Workers)
	case c.Loader.QueueSize < 1:
		return fmt.Errorf("loader queue size must be positive, got %d", c.Loader.QueueSize)
	}
	return nil
}

func unitColor(c [4]float64) bool {
	for _, v := range c {
		if v < 0 || v > 1 {
			return false
		}
	}
	return true
}

func validFalloff(a AttenuationConfig) bool {
	if a.Constant < 0 || a.Linear < 0 || a.Quadratic < 0 {
		return false
	}
	return a.Constant+a.Linear+a.Quadratic > 0
}
