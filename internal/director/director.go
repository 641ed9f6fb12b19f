package director

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ivlev/orbit2gif/internal/scene"
)

const planVersion = "1.0"

// Director generates camera work lists: a circular orbit around what the
// camera looks at, or a straight run over the scene's animation range.
type Director struct {
	MinRadius float64 // floor against a degenerate zero-radius orbit
	MaxRadius float64 // ceiling against runaway depth estimates
}

// NewDirector creates a new Director with default settings
func NewDirector() *Director {
	return &Director{
		MinRadius: 1.0,
		MaxRadius: 30.0,
	}
}

// Anchor places the orbit centre depth units in front of the camera and
// derives the circle that passes through the camera position.
func (d *Director) Anchor(pose scene.Pose, depth float64) Anchor {
	if !(depth > 0) {
		depth = 0
	}
	point := r3.Add(pose.Position, r3.Scale(depth, pose.Forward))
	offset := r3.Sub(pose.Position, point)

	horiz := math.Hypot(offset.X, offset.Y)
	start := 0.0
	if horiz > 1e-9 {
		start = math.Atan2(offset.Y, offset.X)
	}
	return Anchor{
		Point:        scene.FromR3(point),
		Radius:       d.clampRadius(r3.Norm(offset)),
		Elevation:    math.Atan2(offset.Z, horiz),
		StartAzimuth: start,
		Depth:        depth,
	}
}

// Orbit returns n poses evenly spaced on one full turn around the anchor,
// each aimed at it. Entry 0 sits at the original viewing angle.
func (d *Director) Orbit(pose scene.Pose, depth float64, n int) (*FramePlan, error) {
	if n < 1 {
		return nil, ErrFrameCount
	}
	anchor := d.Anchor(pose, depth)
	center := anchor.Point.R3()

	plan := &FramePlan{
		Version: planVersion,
		Mode:    ModeOrbit,
		Anchor:  &anchor,
		Entries: make([]Entry, 0, n),
	}
	for i := 0; i < n; i++ {
		az := anchor.StartAzimuth + 2*math.Pi*float64(i)/float64(n)
		pos := r3.Add(center, orbitOffset(anchor.Radius, anchor.Elevation, az))
		shot := scene.LookAt(pos, center, pose.Lens, pose.SensorWidth)
		plan.Entries = append(plan.Entries, Entry{
			Index:   i,
			Azimuth: az,
			Shot:    ShotFromPose(shot),
		})
	}
	return plan, nil
}

// Playback returns one entry per scene frame in [start, end]. Negative
// frames are rejected since their names would not sort.
func (d *Director) Playback(start, end int) (*FramePlan, error) {
	if end < start {
		return nil, fmt.Errorf("%w: end %d precedes start %d", ErrFrameRange, end, start)
	}
	if start < 0 {
		return nil, fmt.Errorf("%w: negative start frame %d", ErrFrameRange, start)
	}
	plan := &FramePlan{
		Version: planVersion,
		Mode:    ModePlayback,
		Entries: make([]Entry, 0, end-start+1),
	}
	for f := start; f <= end; f++ {
		plan.Entries = append(plan.Entries, Entry{Index: f - start, Frame: f})
	}
	return plan, nil
}

// orbitOffset is the point on the orbit sphere at the given elevation and
// azimuth, relative to the anchor.
func orbitOffset(radius, elevation, azimuth float64) r3.Vec {
	flat := radius * math.Cos(elevation)
	return r3.Vec{
		X: flat * math.Cos(azimuth),
		Y: flat * math.Sin(azimuth),
		Z: radius * math.Sin(elevation),
	}
}

func (d *Director) clampRadius(r float64) float64 {
	if r < d.MinRadius {
		r = d.MinRadius
	}
	if r > d.MaxRadius {
		r = d.MaxRadius
	}
	return r
}
