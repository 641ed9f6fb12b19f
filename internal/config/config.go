package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Modes
const (
	ModeOrbit    = "orbit"
	ModePlayback = "playback"
	ModeBoth     = "both"
)

// Backends
const (
	BackendBuiltin = "builtin"
	BackendBlender = "blender"
)

type Config struct {
	ScenePath  string `yaml:"scene"`
	SceneDir   string `yaml:"scene_dir"`  // searched for the newest scene when ScenePath is empty
	OutputDir  string `yaml:"output_dir"` // every run gets its own subdirectory
	Mode       string `yaml:"mode"`
	OrbitFrame *int   `yaml:"orbit_frame,omitempty"` // scene frame the orbit is taken at, frame_start when unset

	Depth  DepthConfig  `yaml:"depth"`
	Orbit  OrbitConfig  `yaml:"orbit"`
	Render RenderConfig `yaml:"render"`
	GIF    GIFConfig    `yaml:"gif"`

	Preview      bool   `yaml:"preview"`
	MP4          bool   `yaml:"mp4"`
	VideoEncoder string `yaml:"video_encoder,omitempty"`
	Quality      int    `yaml:"quality"`
	ShowStats    bool   `yaml:"stats"`
	BuildVersion string `yaml:"-"`
}

type DepthConfig struct {
	Estimator      string    `yaml:"estimator"`
	Angles         []float64 `yaml:"angles,flow,omitempty"` // degrees
	MaxDistance    float64   `yaml:"max_distance"`
	Default        float64   `yaml:"default"`
	MinHitFraction float64   `yaml:"min_hit_fraction"`
}

type OrbitConfig struct {
	Frames    int     `yaml:"frames"`
	MinRadius float64 `yaml:"min_radius"`
	MaxRadius float64 `yaml:"max_radius"`
}

type RenderConfig struct {
	Backend    string        `yaml:"backend"`
	Program    string        `yaml:"program,omitempty"` // overrides the backend's executable
	BlendFile  string        `yaml:"blend_file,omitempty"`
	Resolution int           `yaml:"resolution"`
	Timeout    time.Duration `yaml:"timeout"`
	Pattern    string        `yaml:"pattern"`
}

type GIFConfig struct {
	Size            int    `yaml:"size"`
	DelayMS         int    `yaml:"delay_ms"`          // playback
	RotationDelayMS int    `yaml:"rotation_delay_ms"` // orbit
	Loop            int    `yaml:"loop"`
	Background      string `yaml:"background"`
	Filter          string `yaml:"filter"`
	Letterbox       bool   `yaml:"letterbox"`
	Dither          bool   `yaml:"dither"`
	Optimize        bool   `yaml:"optimize"`
}

// Delay returns the frame delay of a mode's GIF in milliseconds.
func (g GIFConfig) Delay(mode string) int {
	if mode == ModeOrbit {
		return g.RotationDelayMS
	}
	return g.DelayMS
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		SceneDir:  "input/scenes",
		OutputDir: "output",
		Mode:      ModeBoth,
		Depth: DepthConfig{
			Estimator:   "median",
			MaxDistance: 1000,
			Default:     5,
		},
		Orbit: OrbitConfig{
			Frames:    48,
			MinRadius: 1,
			MaxRadius: 30,
		},
		Render: RenderConfig{
			Backend:    BackendBuiltin,
			Resolution: 512,
			Timeout:    30 * time.Minute,
			Pattern:    "frame_*.png",
		},
		GIF: GIFConfig{
			Size:            384,
			DelayMS:         50,
			RotationDelayMS: 100,
			Background:      "#000000",
			Filter:          "lanczos",
			Optimize:        true,
		},
		Quality: 23,
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
// Inputs the caller may still discover, such as the .blend file, are left
// to Validate.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.check(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	if err := c.check(); err != nil {
		return err
	}
	if c.Render.Backend == BackendBlender && c.Render.BlendFile == "" {
		return errors.New("blender backend needs render.blend_file")
	}
	return nil
}

func (c *Config) check() error {
	switch c.Mode {
	case ModeOrbit, ModePlayback, ModeBoth:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	switch c.Render.Backend {
	case BackendBuiltin, BackendBlender:
	default:
		return fmt.Errorf("unknown render backend %q", c.Render.Backend)
	}
	if c.Orbit.Frames < 1 {
		return fmt.Errorf("orbit.frames must be at least 1, got %d", c.Orbit.Frames)
	}
	if c.Orbit.MinRadius <= 0 || c.Orbit.MaxRadius < c.Orbit.MinRadius {
		return fmt.Errorf("orbit radius range [%g, %g] is invalid", c.Orbit.MinRadius, c.Orbit.MaxRadius)
	}
	if c.Render.Resolution < 1 {
		return fmt.Errorf("render.resolution must be positive, got %d", c.Render.Resolution)
	}
	if c.Render.Timeout <= 0 {
		return fmt.Errorf("render.timeout must be positive, got %s", c.Render.Timeout)
	}
	if c.GIF.Size < 1 {
		return fmt.Errorf("gif.size must be positive, got %d", c.GIF.Size)
	}
	if c.GIF.DelayMS < 0 {
		return fmt.Errorf("gif.delay_ms must not be negative, got %d", c.GIF.DelayMS)
	}
	if c.GIF.RotationDelayMS < 0 {
		return fmt.Errorf("gif.rotation_delay_ms must not be negative, got %d", c.GIF.RotationDelayMS)
	}
	if c.GIF.Loop < -1 {
		return fmt.Errorf("gif.loop must be -1 (play once), 0 (forever) or a count, got %d", c.GIF.Loop)
	}
	if c.Depth.Default <= 0 || c.Depth.MaxDistance <= 0 {
		return errors.New("depth default and max distance must be positive")
	}
	if c.Depth.MinHitFraction < 0 || c.Depth.MinHitFraction > 1 {
		return fmt.Errorf("depth.min_hit_fraction %g is outside [0, 1]", c.Depth.MinHitFraction)
	}
	return nil
}

// Modes returns the run order: playback before orbit.
func (c *Config) Modes() []string {
	switch strings.ToLower(c.Mode) {
	case ModeOrbit:
		return []string{ModeOrbit}
	case ModePlayback:
		return []string{ModePlayback}
	default:
		return []string{ModePlayback, ModeOrbit}
	}
}
