package director

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/num/quat"

	"github.com/ivlev/orbit2gif/internal/scene"
)

// Mode selects what a plan's entries carry.
type Mode string

const (
	// ModeOrbit entries carry a camera shot each; the scene is held still.
	ModeOrbit Mode = "orbit"
	// ModePlayback entries carry a scene frame number; the scene camera is used.
	ModePlayback Mode = "playback"
)

var (
	ErrFrameCount = errors.New("frame count must be at least 1")
	ErrFrameRange = errors.New("invalid frame range")
	ErrPlanIndex  = errors.New("plan indices must be contiguous from 0")
)

// FramePlan is the ordered work list for one render batch
type FramePlan struct {
	Version    string  `yaml:"version"`
	Mode       Mode    `yaml:"mode"`
	SceneFrame int     `yaml:"scene_frame,omitempty"` // orbit: frame the scene is evaluated at
	Anchor     *Anchor `yaml:"anchor,omitempty"`
	Entries    []Entry `yaml:"entries"`
}

// Anchor parametrises the orbit circle
type Anchor struct {
	Point        scene.Vec3 `yaml:"point,flow"`
	Radius       float64    `yaml:"radius"`
	Elevation    float64    `yaml:"elevation"`     // radians above the horizontal plane
	StartAzimuth float64    `yaml:"start_azimuth"` // radians, around world Z
	Depth        float64    `yaml:"depth"`         // estimated depth the anchor was placed at
}

// Entry is one still to render
type Entry struct {
	Index   int     `yaml:"index"`
	Frame   int     `yaml:"frame,omitempty"`
	Azimuth float64 `yaml:"azimuth,omitempty"`
	Shot    *Shot   `yaml:"shot,omitempty"`
}

// Shot is a serialised camera pose
type Shot struct {
	Location    scene.Vec3 `yaml:"location,flow"`
	Rotation    scene.Vec3 `yaml:"rotation,flow"`   // XYZ Euler, radians
	Quaternion  [4]float64 `yaml:"quaternion,flow"` // w, x, y, z
	Lens        float64    `yaml:"lens"`
	SensorWidth float64    `yaml:"sensor_width"`
}

// ShotFromPose captures a pose for the plan file.
func ShotFromPose(p scene.Pose) *Shot {
	return &Shot{
		Location:    scene.FromR3(p.Position),
		Rotation:    scene.FromR3(p.Euler()),
		Quaternion:  [4]float64{p.Rotation.Real, p.Rotation.Imag, p.Rotation.Jmag, p.Rotation.Kmag},
		Lens:        p.Lens,
		SensorWidth: p.SensorWidth,
	}
}

// Pose restores the camera pose. The quaternion wins over the Euler angles
// when both are present.
func (s *Shot) Pose() scene.Pose {
	q := quat.Number{Real: s.Quaternion[0], Imag: s.Quaternion[1], Jmag: s.Quaternion[2], Kmag: s.Quaternion[3]}
	if quat.Abs(q) == 0 {
		return scene.PoseFromEuler(s.Location.R3(), s.Rotation.R3(), s.Lens, s.SensorWidth)
	}
	return scene.NewPose(s.Location.R3(), q, s.Lens, s.SensorWidth)
}

// Len returns the number of entries.
func (p *FramePlan) Len() int {
	return len(p.Entries)
}

// Validate checks the plan invariants: a known mode, at least one entry,
// indices 0..n-1 in order, a shot per orbit entry, non-negative increasing
// playback frames.
func (p *FramePlan) Validate() error {
	switch p.Mode {
	case ModeOrbit, ModePlayback:
	default:
		return fmt.Errorf("unknown plan mode %q", p.Mode)
	}
	if len(p.Entries) == 0 {
		return ErrFrameCount
	}
	for i, e := range p.Entries {
		if e.Index != i {
			return fmt.Errorf("%w: entry %d has index %d", ErrPlanIndex, i, e.Index)
		}
		if p.Mode == ModeOrbit && e.Shot == nil {
			return fmt.Errorf("orbit entry %d has no shot", i)
		}
		if p.Mode == ModePlayback && e.Frame < 0 {
			return fmt.Errorf("%w: playback entry %d has negative frame %d", ErrFrameRange, i, e.Frame)
		}
		if p.Mode == ModePlayback && i > 0 && e.Frame <= p.Entries[i-1].Frame {
			return fmt.Errorf("playback entry %d: frame %d does not follow %d", i, e.Frame, p.Entries[i-1].Frame)
		}
	}
	return nil
}

// FileNames returns the still file name of every entry, in plan order.
func (p *FramePlan) FileNames() []string {
	names := make([]string, len(p.Entries))
	for i, e := range p.Entries {
		names[i] = p.FileName(e)
	}
	return names
}
