package renderer

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/template"

	"github.com/ivlev/orbit2gif/internal/director"
)

// DefaultBlenderEngine is the render engine set by the generated script.
const DefaultBlenderEngine = "BLENDER_EEVEE_NEXT"

// BlenderBackend renders a .blend file through a generated Python script.
// Geometry for depth estimation still comes from the scene file; the two
// are expected to describe the same scene.
type BlenderBackend struct {
	Program   string // blender when empty
	BlendFile string
	Engine    string
}

func NewBlenderBackend(program, blendFile string) *BlenderBackend {
	return &BlenderBackend{Program: program, BlendFile: blendFile, Engine: DefaultBlenderEngine}
}

func (b *BlenderBackend) Name() string { return "blender" }

// Prepare writes the script to a temporary file:
//
//	blender --background <file.blend> --python <script> -- <out> <res> [n]
func (b *BlenderBackend) Prepare(req Request) (*Invocation, error) {
	if b.BlendFile == "" {
		return nil, fmt.Errorf("no .blend file")
	}
	program := b.Program
	if program == "" {
		program = "blender"
	}

	script, err := BlenderScript(req.Plan, b.Engine)
	if err != nil {
		return nil, err
	}
	f, err := os.CreateTemp("", "orbit2gif-*.py")
	if err != nil {
		return nil, err
	}
	path := f.Name()
	if _, err := f.WriteString(script); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, err
	}

	args := []string{"--background", b.BlendFile, "--python", path, Delimiter}
	args = append(args, req.BatchArgs()...)

	return &Invocation{
		Program: program,
		Args:    args,
		Env:     []string{"AL_LIB_LOGLEVEL=0"},
		cleanup: []string{path},
	}, nil
}

type blenderShot struct {
	Name     string
	Location string
	Rotation string
	Lens     string
	Sensor   string
}

type blenderFrame struct {
	Name  string
	Frame int
}

type blenderView struct {
	Engine     string
	Orbit      bool
	SceneFrame int
	Shots      []blenderShot
	Frames     []blenderFrame
}

// BlenderScript renders the plan as a Blender Python script.
func BlenderScript(plan *director.FramePlan, engine string) (string, error) {
	if engine == "" {
		engine = DefaultBlenderEngine
	}
	v := blenderView{
		Engine:     engine,
		Orbit:      plan.Mode == director.ModeOrbit,
		SceneFrame: plan.SceneFrame,
	}
	for _, e := range plan.Entries {
		name := plan.FileName(e)
		if !v.Orbit {
			v.Frames = append(v.Frames, blenderFrame{Name: name, Frame: e.Frame})
			continue
		}
		s := e.Shot
		v.Shots = append(v.Shots, blenderShot{
			Name:     name,
			Location: pyTuple(s.Location[:]),
			Rotation: pyTuple(s.Quaternion[:]),
			Lens:     pyFloat(s.Lens),
			Sensor:   pyFloat(s.SensorWidth),
		})
	}

	var sb strings.Builder
	if err := blenderTemplate.Execute(&sb, v); err != nil {
		return "", fmt.Errorf("blender script: %w", err)
	}
	return sb.String(), nil
}

func pyFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

func pyTuple(xs []float64) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = pyFloat(x)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

var blenderTemplate = template.Must(template.New("blender").Parse(`import os
import sys

import bpy

argv = sys.argv[sys.argv.index("--") + 1:]
out_dir = argv[0]
res = int(argv[1])
count = int(argv[2]) if len(argv) > 2 else None

scene = bpy.context.scene
scene.render.engine = "{{.Engine}}"
scene.render.resolution_x = res
scene.render.resolution_y = res
scene.render.resolution_percentage = 100
scene.render.film_transparent = False
scene.render.image_settings.file_format = "PNG"
scene.render.image_settings.color_mode = "RGB"

cam = scene.camera
if cam is None:
    sys.exit("scene has no camera")


def render(name):
    scene.render.filepath = os.path.join(out_dir, name)
    try:
        bpy.ops.render.render(write_still=True)
    except Exception as exc:
        print("frame %s failed: %s" % (name, exc))

{{if .Orbit}}
shots = [
{{- range .Shots}}
    ("{{.Name}}", {{.Location}}, {{.Rotation}}, {{.Lens}}, {{.Sensor}}),
{{- end}}
]
if count is not None and count != len(shots):
    sys.exit("frame count %d does not match %d planned shots" % (count, len(shots)))

scene.frame_set({{.SceneFrame}})
cam.rotation_mode = "QUATERNION"
for name, loc, rot, lens, sensor in shots:
    cam.location = loc
    cam.rotation_quaternion = rot
    cam.data.lens = lens
    cam.data.sensor_width = sensor
    render(name)
{{else}}
frames = [
{{- range .Frames}}
    ("{{.Name}}", {{.Frame}}),
{{- end}}
]
for name, frame in frames:
    scene.frame_set(frame)
    render(name)
{{end}}`))
