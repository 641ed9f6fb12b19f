package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30*time.Minute, cfg.Render.Timeout)
	assert.Equal(t, []string{ModePlayback, ModeOrbit}, cfg.Modes())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
mode: orbit
orbit:
  frames: 12
render:
  timeout: 90s
  resolution: 256
gif:
  size: 128
  dither: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ModeOrbit, cfg.Mode)
	assert.Equal(t, 12, cfg.Orbit.Frames)
	assert.Equal(t, 30.0, cfg.Orbit.MaxRadius, "unset keys keep their defaults")
	assert.Equal(t, 90*time.Second, cfg.Render.Timeout)
	assert.Equal(t, 256, cfg.Render.Resolution)
	assert.Equal(t, BackendBuiltin, cfg.Render.Backend)
	assert.True(t, cfg.GIF.Dither)
	assert.Equal(t, []string{ModeOrbit}, cfg.Modes())
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default().Orbit, cfg.Orbit)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "orbit:\n  frame: 12\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"mode", func(c *Config) { c.Mode = "sideways" }},
		{"backend", func(c *Config) { c.Render.Backend = "povray" }},
		{"blender without file", func(c *Config) { c.Render.Backend = BackendBlender }},
		{"frames", func(c *Config) { c.Orbit.Frames = 0 }},
		{"radius", func(c *Config) { c.Orbit.MinRadius = 40 }},
		{"resolution", func(c *Config) { c.Render.Resolution = 0 }},
		{"timeout", func(c *Config) { c.Render.Timeout = 0 }},
		{"size", func(c *Config) { c.GIF.Size = 0 }},
		{"delay", func(c *Config) { c.GIF.DelayMS = -1 }},
		{"rotation delay", func(c *Config) { c.GIF.RotationDelayMS = -1 }},
		{"loop", func(c *Config) { c.GIF.Loop = -2 }},
		{"depth", func(c *Config) { c.Depth.Default = 0 }},
		{"hit fraction", func(c *Config) { c.Depth.MinHitFraction = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadLeavesBlendFileToCaller(t *testing.T) {
	cfg, err := Load(writeConfig(t, "render:\n  backend: blender\n"))
	require.NoError(t, err)
	assert.Equal(t, BackendBlender, cfg.Render.Backend)
	assert.Error(t, cfg.Validate(), "still required before a run")

	cfg.Render.BlendFile = "scene.blend"
	assert.NoError(t, cfg.Validate())
}

func TestOrbitFrameZeroIsKept(t *testing.T) {
	cfg, err := Load(writeConfig(t, "orbit_frame: 0\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.OrbitFrame)
	assert.Equal(t, 0, *cfg.OrbitFrame)

	cfg, err = Load(writeConfig(t, "mode: orbit\n"))
	require.NoError(t, err)
	assert.Nil(t, cfg.OrbitFrame)
}

func TestGIFDelayPerMode(t *testing.T) {
	g := Default().GIF
	assert.Equal(t, 50, g.Delay(ModePlayback))
	assert.Equal(t, 100, g.Delay(ModeOrbit))

	cfg, err := Load(writeConfig(t, "gif:\n  delay_ms: 40\n  rotation_delay_ms: 80\n  letterbox: true\n"))
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.GIF.Delay(ModePlayback))
	assert.Equal(t, 80, cfg.GIF.Delay(ModeOrbit))
	assert.True(t, cfg.GIF.Letterbox)
}
