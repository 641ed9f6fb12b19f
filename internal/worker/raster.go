package worker

import (
	"image"
	"math"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ivlev/orbit2gif/internal/scene"
)

const (
	defaultObjectColor = "#468966"
	defaultBackground  = "#000000"
)

// Rasterizer draws scene geometry from a camera pose with fauxgl.
type Rasterizer struct {
	Size        int // output edge, pixels
	Supersample int // render at Size*Supersample and downsample
	Background  string
	Near, Far   float64
}

func NewRasterizer(size int, background string) *Rasterizer {
	if background == "" {
		background = defaultBackground
	}
	return &Rasterizer{
		Size:        size,
		Supersample: 2,
		Background:  background,
		Near:        0.05,
		Far:         1000,
	}
}

// Render draws every object of geom as seen from pose, lit from light
// (a world position; zero means a fixed key light).
func (r *Rasterizer) Render(pose scene.Pose, geom *scene.Geometry, light r3.Vec) image.Image {
	ss := r.Supersample
	if ss < 1 {
		ss = 1
	}
	size := r.Size * ss

	dc := fauxgl.NewContext(size, size)
	dc.ClearColorBufferWith(fauxgl.HexColor(r.Background))
	dc.Cull = fauxgl.CullNone

	eye := vec(pose.Position)
	center := vec(r3.Add(pose.Position, pose.Forward))
	up := vec(pose.Up)
	fovy := pose.FOV() * 180 / math.Pi
	matrix := fauxgl.LookAt(eye, center, up).Perspective(fovy, 1, r.Near, r.Far)

	lightDir := fauxgl.V(-0.75, 1, 0.25).Normalize()
	if r3.Norm(light) > 0 {
		lightDir = vec(r3.Unit(light))
	}

	for _, obj := range geom.Objects {
		tris := make([]*fauxgl.Triangle, 0, len(obj.Triangles))
		for _, t := range obj.Triangles {
			tris = append(tris, fauxgl.NewTriangleForPoints(vec(t[0]), vec(t[1]), vec(t[2])))
		}
		if len(tris) == 0 {
			continue
		}

		hex := obj.Color
		if hex == "" {
			hex = defaultObjectColor
		}
		shader := fauxgl.NewPhongShader(matrix, lightDir, eye)
		shader.ObjectColor = fauxgl.HexColor(hex)
		dc.Shader = shader
		dc.DrawMesh(fauxgl.NewTriangleMesh(tris))
	}

	img := dc.Image()
	if ss > 1 {
		img = resize.Resize(uint(r.Size), uint(r.Size), img, resize.Bilinear)
	}
	return img
}

func vec(v r3.Vec) fauxgl.Vector {
	return fauxgl.V(v.X, v.Y, v.Z)
}
