package director

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ivlev/orbit2gif/internal/scene"
)

const eps = 1e-9

func near(a, b r3.Vec, tol float64) bool {
	return r3.Norm(r3.Sub(a, b)) <= tol
}

func obliquePose() scene.Pose {
	return scene.LookAt(r3.Vec{X: 10, Y: -10, Z: 5}, r3.Vec{}, 50, 36)
}

func TestOrbitFirstFrameMatchesCamera(t *testing.T) {
	pose := obliquePose()
	depth := r3.Norm(pose.Position)

	plan, err := NewDirector().Orbit(pose, depth, 12)
	if err != nil {
		t.Fatalf("Orbit failed: %v", err)
	}

	first := plan.Entries[0].Shot.Location.R3()
	if !near(first, pose.Position, 1e-6) {
		t.Errorf("frame 0 at %v, camera at %v", first, pose.Position)
	}
	if !near(plan.Anchor.Point.R3(), r3.Vec{}, 1e-6) {
		t.Errorf("anchor should be the look-at target, got %v", plan.Anchor.Point)
	}

	got := plan.Entries[0].Shot.Pose().Forward
	if !near(got, pose.Forward, 1e-6) {
		t.Errorf("frame 0 forward %v, camera forward %v", got, pose.Forward)
	}
}

func TestOrbitGeometry(t *testing.T) {
	pose := obliquePose()
	const n = 8

	plan, err := NewDirector().Orbit(pose, 15, n)
	if err != nil {
		t.Fatalf("Orbit failed: %v", err)
	}
	if plan.Len() != n {
		t.Fatalf("Expected %d entries, got %d", n, plan.Len())
	}
	if err := plan.Validate(); err != nil {
		t.Fatalf("plan invalid: %v", err)
	}

	anchor := plan.Anchor.Point.R3()
	step := 2 * math.Pi / n
	for i, e := range plan.Entries {
		if e.Index != i {
			t.Errorf("entry %d has index %d", i, e.Index)
		}
		if i > 0 {
			if d := e.Azimuth - plan.Entries[i-1].Azimuth; math.Abs(d-step) > eps {
				t.Errorf("azimuth step %d is %f, want %f", i, d, step)
			}
		}

		p := e.Shot.Pose()
		if r := r3.Norm(r3.Sub(p.Position, anchor)); math.Abs(r-plan.Anchor.Radius) > 1e-6 {
			t.Errorf("entry %d off the circle: r=%f want %f", i, r, plan.Anchor.Radius)
		}
		// same height for every stop
		if math.Abs(p.Position.Z-pose.Position.Z) > 1e-6 {
			t.Errorf("entry %d at height %f, want %f", i, p.Position.Z, pose.Position.Z)
		}
		toAnchor := r3.Unit(r3.Sub(anchor, p.Position))
		if !near(p.Forward, toAnchor, 1e-6) {
			t.Errorf("entry %d looks along %v, want %v", i, p.Forward, toAnchor)
		}
		if p.Lens != pose.Lens || p.SensorWidth != pose.SensorWidth {
			t.Errorf("entry %d optics changed: %f/%f", i, p.Lens, p.SensorWidth)
		}
	}

	// half a turn later the camera is on the opposite side
	opposite := plan.Entries[n/2].Shot.Location.R3()
	mirrored := r3.Sub(r3.Scale(2, anchor), pose.Position)
	mirrored.Z = pose.Position.Z
	if !near(opposite, mirrored, 1e-6) {
		t.Errorf("entry %d at %v, want %v", n/2, opposite, mirrored)
	}
}

func TestOrbitRadiusClamp(t *testing.T) {
	pose := obliquePose()

	tests := []struct {
		name   string
		depth  float64
		radius float64
	}{
		{"zero depth", 0, 1},
		{"negative depth", -3, 1},
		{"nan depth", math.NaN(), 1},
		{"inside range", 12, 12},
		{"runaway depth", 10000, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := NewDirector().Orbit(pose, tt.depth, 4)
			if err != nil {
				t.Fatalf("Orbit failed: %v", err)
			}
			if math.Abs(plan.Anchor.Radius-tt.radius) > eps {
				t.Errorf("radius = %f, want %f", plan.Anchor.Radius, tt.radius)
			}
			for _, e := range plan.Entries {
				loc := e.Shot.Location.R3()
				if math.IsNaN(loc.X) || math.IsNaN(loc.Y) || math.IsNaN(loc.Z) {
					t.Fatalf("entry %d has NaN location", e.Index)
				}
			}
		})
	}
}

func TestOrbitZeroDepthCirclesCamera(t *testing.T) {
	pose := obliquePose()

	plan, err := NewDirector().Orbit(pose, 0, 4)
	if err != nil {
		t.Fatalf("Orbit failed: %v", err)
	}
	if !near(plan.Anchor.Point.R3(), pose.Position, eps) {
		t.Errorf("anchor %v should be the camera position %v", plan.Anchor.Point, pose.Position)
	}
	if plan.Anchor.Elevation != 0 || plan.Anchor.StartAzimuth != 0 {
		t.Errorf("degenerate offset should give a flat orbit at azimuth 0, got elev=%f az=%f",
			plan.Anchor.Elevation, plan.Anchor.StartAzimuth)
	}
	want := r3.Add(pose.Position, r3.Vec{X: 1})
	if got := plan.Entries[0].Shot.Location.R3(); !near(got, want, eps) {
		t.Errorf("frame 0 at %v, want %v", got, want)
	}
}

func TestOrbitTopDownCube(t *testing.T) {
	s := scene.Demo()
	pose, err := s.CameraPose(s.FrameStart)
	if err != nil {
		t.Fatalf("CameraPose failed: %v", err)
	}

	plan, err := NewDirector().Orbit(pose, 4.5, 8)
	if err != nil {
		t.Fatalf("Orbit failed: %v", err)
	}

	if !near(plan.Anchor.Point.R3(), r3.Vec{Z: 0.5}, eps) {
		t.Errorf("anchor = %v, want (0,0,0.5)", plan.Anchor.Point)
	}
	if math.Abs(plan.Anchor.Elevation-math.Pi/2) > eps {
		t.Errorf("elevation = %f, want pi/2", plan.Anchor.Elevation)
	}
	for _, e := range plan.Entries {
		p := e.Shot.Pose()
		if !near(p.Position, pose.Position, 1e-6) {
			t.Errorf("entry %d moved to %v: a top-down orbit spins in place", e.Index, p.Position)
		}
		if !near(p.Forward, r3.Vec{Z: -1}, 1e-6) {
			t.Errorf("entry %d looks along %v, want straight down", e.Index, p.Forward)
		}
	}
}

func TestOrbitFrameCount(t *testing.T) {
	d := NewDirector()

	plan, err := d.Orbit(obliquePose(), 5, 1)
	if err != nil {
		t.Fatalf("Orbit(1) failed: %v", err)
	}
	if plan.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", plan.Len())
	}

	for _, n := range []int{0, -4} {
		if _, err := d.Orbit(obliquePose(), 5, n); !errors.Is(err, ErrFrameCount) {
			t.Errorf("Orbit(%d) error = %v, want ErrFrameCount", n, err)
		}
	}
}

func TestPlayback(t *testing.T) {
	plan, err := NewDirector().Playback(1, 4)
	if err != nil {
		t.Fatalf("Playback failed: %v", err)
	}

	want := []Entry{
		{Index: 0, Frame: 1},
		{Index: 1, Frame: 2},
		{Index: 2, Frame: 3},
		{Index: 3, Frame: 4},
	}
	if diff := cmp.Diff(want, plan.Entries); diff != "" {
		t.Errorf("playback entries mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"frame_0001.png", "frame_0002.png", "frame_0003.png", "frame_0004.png"}, plan.FileNames()); diff != "" {
		t.Errorf("file names mismatch (-want +got):\n%s", diff)
	}

	single, err := NewDirector().Playback(7, 7)
	if err != nil || single.Len() != 1 {
		t.Errorf("Playback(7,7) = %v, %v; want one entry", single, err)
	}

	if _, err := NewDirector().Playback(5, 4); !errors.Is(err, ErrFrameRange) {
		t.Errorf("Playback(5,4) error = %v, want ErrFrameRange", err)
	}
	if _, err := NewDirector().Playback(-2, 3); !errors.Is(err, ErrFrameRange) {
		t.Errorf("Playback(-2,3) error = %v, want ErrFrameRange", err)
	}
}

func TestPlanWriteRead(t *testing.T) {
	plan, err := NewDirector().Orbit(obliquePose(), 15, 6)
	if err != nil {
		t.Fatalf("Orbit failed: %v", err)
	}
	plan.SceneFrame = 3

	path := filepath.Join(t.TempDir(), "plan.yaml")
	if err := WritePlan(plan, path); err != nil {
		t.Fatalf("WritePlan failed: %v", err)
	}

	loaded, err := ReadPlan(path)
	if err != nil {
		t.Fatalf("ReadPlan failed: %v", err)
	}
	if diff := cmp.Diff(plan, loaded); diff != "" {
		t.Errorf("plan changed on disk (-want +got):\n%s", diff)
	}
}

func TestPlanValidate(t *testing.T) {
	shot := ShotFromPose(obliquePose())
	tests := []struct {
		name string
		plan FramePlan
		ok   bool
	}{
		{"orbit", FramePlan{Mode: ModeOrbit, Entries: []Entry{{Index: 0, Shot: shot}}}, true},
		{"playback", FramePlan{Mode: ModePlayback, Entries: []Entry{{Index: 0, Frame: 3}, {Index: 1, Frame: 4}}}, true},
		{"empty", FramePlan{Mode: ModePlayback}, false},
		{"unknown mode", FramePlan{Mode: "sideways", Entries: []Entry{{Index: 0}}}, false},
		{"gap", FramePlan{Mode: ModePlayback, Entries: []Entry{{Index: 0, Frame: 1}, {Index: 2, Frame: 2}}}, false},
		{"missing shot", FramePlan{Mode: ModeOrbit, Entries: []Entry{{Index: 0}}}, false},
		{"negative frame", FramePlan{Mode: ModePlayback, Entries: []Entry{{Index: 0, Frame: -1}, {Index: 1, Frame: 0}}}, false},
		{"frames out of order", FramePlan{Mode: ModePlayback, Entries: []Entry{{Index: 0, Frame: 4}, {Index: 1, Frame: 3}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.plan.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestShotEulerFallback(t *testing.T) {
	pose := obliquePose()
	shot := ShotFromPose(pose)
	shot.Quaternion = [4]float64{}

	got := shot.Pose()
	if !near(got.Forward, pose.Forward, 1e-6) {
		t.Errorf("Euler-only shot looks along %v, want %v", got.Forward, pose.Forward)
	}
}

func TestSavePreview(t *testing.T) {
	plan, err := NewDirector().Orbit(obliquePose(), 15, 16)
	if err != nil {
		t.Fatalf("Orbit failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "orbit.png")
	if err := SavePreview(plan, path); err != nil {
		t.Fatalf("SavePreview failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("preview not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("preview is empty")
	}

	playback, _ := NewDirector().Playback(1, 2)
	if err := SavePreview(playback, path); err == nil {
		t.Error("expected an error for a playback plan")
	}
}
