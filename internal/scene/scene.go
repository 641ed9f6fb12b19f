package scene

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

// ErrNoCamera is returned when a scene has no camera to read a pose from.
var ErrNoCamera = errors.New("scene has no camera")

// Object types understood by the loader.
const (
	TypeMesh  = "mesh"
	TypeEmpty = "empty"
	TypeLight = "light"
)

// Vec3 is the on-disk form of a 3D vector.
type Vec3 [3]float64

// R3 converts v to a gonum vector.
func (v Vec3) R3() r3.Vec { return r3.Vec{X: v[0], Y: v[1], Z: v[2]} }

// FromR3 converts a gonum vector to its on-disk form.
func FromR3(v r3.Vec) Vec3 { return Vec3{v.X, v.Y, v.Z} }

// Scene is a persisted scene state: camera, objects and pre-baked
// per-frame transforms.
type Scene struct {
	Version    string   `yaml:"version"`
	FrameStart int      `yaml:"frame_start"`
	FrameEnd   int      `yaml:"frame_end"`
	FPS        int      `yaml:"fps,omitempty"`
	Background string   `yaml:"background,omitempty"` // hex colour, "#000000" by default
	Camera     *Camera  `yaml:"camera"`
	Objects    []Object `yaml:"objects"`

	// local-space triangles per object, filled by Prepare
	meshes [][]Triangle
	dir    string
}

// Camera is the scene camera. Rotation is an XYZ Euler angle in radians.
type Camera struct {
	Name        string     `yaml:"name,omitempty"`
	Location    Vec3       `yaml:"location,flow"`
	Rotation    Vec3       `yaml:"rotation,flow"`
	Lens        float64    `yaml:"lens,omitempty"`         // mm
	SensorWidth float64    `yaml:"sensor_width,omitempty"` // mm
	Keyframes   []Keyframe `yaml:"keyframes,omitempty"`
}

// Object is a renderable or helper object. Zero Scale means unit scale.
type Object struct {
	Name      string     `yaml:"name"`
	Type      string     `yaml:"type"`
	Primitive string     `yaml:"primitive,omitempty"` // cube, plane, uv_sphere
	Size      float64    `yaml:"size,omitempty"`
	Radius    float64    `yaml:"radius,omitempty"`
	File      string     `yaml:"file,omitempty"` // STL or OBJ, relative to the scene file
	Location  Vec3       `yaml:"location,flow"`
	Rotation  Vec3       `yaml:"rotation,flow"`
	Scale     Vec3       `yaml:"scale,flow,omitempty"`
	Color     string     `yaml:"color,omitempty"`
	Keyframes []Keyframe `yaml:"keyframes,omitempty"`
}

// Load reads a scene file and prepares its meshes.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	s.dir = filepath.Dir(path)
	if err := s.Prepare(); err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a scene without touching the file system. Call Prepare
// before querying geometry.
func Parse(data []byte) (*Scene, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Scene
	if err := dec.Decode(&s); err != nil {
		return nil, err
	}
	if s.Version == "" {
		s.Version = "1.0"
	}
	if s.FrameEnd < s.FrameStart {
		s.FrameEnd = s.FrameStart
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Write stores the scene as YAML.
func Write(s *Scene, path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks object types and mesh sources.
func (s *Scene) Validate() error {
	for i, obj := range s.Objects {
		switch strings.ToLower(obj.Type) {
		case TypeMesh:
			if obj.File == "" && obj.Primitive == "" {
				return fmt.Errorf("object %d (%s): mesh needs a primitive or a file", i, obj.Name)
			}
		case TypeEmpty, TypeLight:
		default:
			return fmt.Errorf("object %d (%s): unknown type %q", i, obj.Name, obj.Type)
		}
		for _, kf := range obj.Keyframes {
			if err := kf.validate(); err != nil {
				return fmt.Errorf("object %d (%s): %w", i, obj.Name, err)
			}
		}
	}
	if s.Camera != nil {
		for _, kf := range s.Camera.Keyframes {
			if err := kf.validate(); err != nil {
				return fmt.Errorf("camera: %w", err)
			}
		}
	}
	return nil
}

// Prepare builds the local-space mesh of every mesh object. Relative mesh
// files are resolved against the directory the scene was loaded from.
func (s *Scene) Prepare() error {
	s.meshes = make([][]Triangle, len(s.Objects))
	for i, obj := range s.Objects {
		if !obj.IsMesh() {
			continue
		}
		file := obj.File
		if file != "" && !filepath.IsAbs(file) && s.dir != "" {
			file = filepath.Join(s.dir, file)
		}
		tris, err := buildMesh(obj, file)
		if err != nil {
			return fmt.Errorf("object %s: %w", obj.Name, err)
		}
		s.meshes[i] = tris
	}
	return nil
}

// IsMesh reports whether the object carries renderable surfaces.
func (o Object) IsMesh() bool {
	return strings.EqualFold(o.Type, TypeMesh)
}

// CameraPose returns the camera pose at the given frame.
func (s *Scene) CameraPose(frame int) (Pose, error) {
	if s.Camera == nil {
		return Pose{}, ErrNoCamera
	}
	c := s.Camera
	loc, rot, _ := evaluate(c.Keyframes, frame, c.Location, c.Rotation, Vec3{1, 1, 1})
	return PoseFromEuler(loc.R3(), rot.R3(), c.Lens, c.SensorWidth), nil
}

// Frames returns the number of frames in the scene's range.
func (s *Scene) Frames() int {
	return s.FrameEnd - s.FrameStart + 1
}

// Demo returns a 1×1×1 cube at the origin seen from (0,0,5) straight down,
// spinning a quarter turn over frames 1..4.
func Demo() *Scene {
	quarter := Vec3{0, 0, 1.5707963267948966}
	return &Scene{
		Version:    "1.0",
		FrameStart: 1,
		FrameEnd:   4,
		FPS:        24,
		Background: "#000000",
		Camera: &Camera{
			Name:        "Camera",
			Location:    Vec3{0, 0, 5},
			Lens:        50,
			SensorWidth: 36,
		},
		Objects: []Object{
			{
				Name:      "Cube",
				Type:      TypeMesh,
				Primitive: PrimitiveCube,
				Size:      1,
				Color:     "#468966",
				Keyframes: []Keyframe{
					{Frame: 1, Rotation: &Vec3{}},
					{Frame: 4, Rotation: &quarter},
				},
			},
			{
				Name:     "Light",
				Type:     TypeLight,
				Location: Vec3{4, -4, 6},
			},
		},
	}
}
