package scene

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/fogleman/fauxgl"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh primitives.
const (
	PrimitiveCube     = "cube"
	PrimitivePlane    = "plane"
	PrimitiveUVSphere = "uv_sphere"
)

const (
	sphereSegments = 24
	sphereRings    = 12
)

// Triangle is three counter-clockwise vertices.
type Triangle [3]r3.Vec

// Normal returns the unit face normal.
func (t Triangle) Normal() r3.Vec {
	n := r3.Cross(r3.Sub(t[1], t[0]), r3.Sub(t[2], t[0]))
	if r3.Norm(n) == 0 {
		return n
	}
	return r3.Unit(n)
}

func buildMesh(obj Object, file string) ([]Triangle, error) {
	if file != "" {
		return loadMeshFile(file)
	}
	switch strings.ToLower(obj.Primitive) {
	case PrimitiveCube:
		return cube(orDefault(obj.Size, 2)), nil
	case PrimitivePlane:
		return plane(orDefault(obj.Size, 2)), nil
	case PrimitiveUVSphere:
		return uvSphere(orDefault(obj.Radius, 1), sphereSegments, sphereRings), nil
	default:
		return nil, fmt.Errorf("unknown primitive %q", obj.Primitive)
	}
}

func orDefault(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

// loadMeshFile reads STL or OBJ triangles through fauxgl.
func loadMeshFile(path string) ([]Triangle, error) {
	var (
		mesh *fauxgl.Mesh
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".stl":
		mesh, err = fauxgl.LoadSTL(path)
	case ".obj":
		mesh, err = fauxgl.LoadOBJ(path)
	default:
		return nil, fmt.Errorf("unsupported mesh file %s", path)
	}
	if err != nil {
		return nil, err
	}
	tris := make([]Triangle, 0, len(mesh.Triangles))
	for _, t := range mesh.Triangles {
		tris = append(tris, Triangle{
			fromFauxgl(t.V1.Position),
			fromFauxgl(t.V2.Position),
			fromFauxgl(t.V3.Position),
		})
	}
	return tris, nil
}

func fromFauxgl(v fauxgl.Vector) r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

func quad(a, b, c, d r3.Vec) []Triangle {
	return []Triangle{{a, b, c}, {a, c, d}}
}

func cube(size float64) []Triangle {
	h := size / 2
	v := func(x, y, z float64) r3.Vec { return r3.Vec{X: x * h, Y: y * h, Z: z * h} }
	var tris []Triangle
	tris = append(tris, quad(v(-1, -1, 1), v(1, -1, 1), v(1, 1, 1), v(-1, 1, 1))...)     // +Z
	tris = append(tris, quad(v(-1, 1, -1), v(1, 1, -1), v(1, -1, -1), v(-1, -1, -1))...) // -Z
	tris = append(tris, quad(v(1, -1, -1), v(1, 1, -1), v(1, 1, 1), v(1, -1, 1))...)     // +X
	tris = append(tris, quad(v(-1, -1, 1), v(-1, 1, 1), v(-1, 1, -1), v(-1, -1, -1))...) // -X
	tris = append(tris, quad(v(-1, 1, 1), v(1, 1, 1), v(1, 1, -1), v(-1, 1, -1))...)     // +Y
	tris = append(tris, quad(v(-1, -1, -1), v(1, -1, -1), v(1, -1, 1), v(-1, -1, 1))...) // -Y
	return tris
}

func plane(size float64) []Triangle {
	h := size / 2
	return quad(
		r3.Vec{X: -h, Y: -h},
		r3.Vec{X: h, Y: -h},
		r3.Vec{X: h, Y: h},
		r3.Vec{X: -h, Y: h},
	)
}

func uvSphere(radius float64, segments, rings int) []Triangle {
	point := func(ring, seg int) r3.Vec {
		theta := math.Pi * float64(ring) / float64(rings)
		phi := 2 * math.Pi * float64(seg) / float64(segments)
		return r3.Vec{
			X: radius * math.Sin(theta) * math.Cos(phi),
			Y: radius * math.Sin(theta) * math.Sin(phi),
			Z: radius * math.Cos(theta),
		}
	}
	var tris []Triangle
	for r := 0; r < rings; r++ {
		for s := 0; s < segments; s++ {
			a, b := point(r, s), point(r+1, s)
			c, d := point(r+1, s+1), point(r, s+1)
			switch r {
			case 0:
				tris = append(tris, Triangle{a, b, c})
			case rings - 1:
				tris = append(tris, Triangle{a, b, d})
			default:
				tris = append(tris, quad(a, b, c, d)...)
			}
		}
	}
	return tris
}

// bounds returns the axis-aligned box around the given triangles.
func bounds(tris []Triangle) r3.Box {
	if len(tris) == 0 {
		return r3.Box{}
	}
	inf := math.Inf(1)
	b := r3.Box{
		Min: r3.Vec{X: inf, Y: inf, Z: inf},
		Max: r3.Vec{X: -inf, Y: -inf, Z: -inf},
	}
	for _, t := range tris {
		for _, p := range t {
			b.Min = r3.Vec{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y), Z: math.Min(b.Min.Z, p.Z)}
			b.Max = r3.Vec{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y), Z: math.Max(b.Max.Z, p.Z)}
		}
	}
	return b
}

// corners returns the eight corners of a box.
func corners(b r3.Box) [8]r3.Vec {
	var out [8]r3.Vec
	for i := range out {
		p := b.Min
		if i&1 != 0 {
			p.X = b.Max.X
		}
		if i&2 != 0 {
			p.Y = b.Max.Y
		}
		if i&4 != 0 {
			p.Z = b.Max.Z
		}
		out[i] = p
	}
	return out
}
