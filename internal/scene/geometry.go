package scene

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

const rayEpsilon = 1e-9

// WorldObject is a mesh object evaluated at one frame, in world space.
type WorldObject struct {
	Name      string
	Color     string
	Triangles []Triangle
	Box       r3.Box
	// Corners are the object's local bounding box corners moved to world
	// space; their centroid is the object's centre even when rotated.
	Corners [8]r3.Vec
}

// Geometry is the read-only set of renderable surfaces at one frame.
type Geometry struct {
	Frame   int
	Objects []WorldObject
}

// Geometry evaluates every mesh object at frame. Prepare must have run.
func (s *Scene) Geometry(frame int) *Geometry {
	g := &Geometry{Frame: frame}
	for i, obj := range s.Objects {
		if !obj.IsMesh() || i >= len(s.meshes) || len(s.meshes[i]) == 0 {
			continue
		}
		scale := obj.Scale
		if scale == (Vec3{}) {
			scale = Vec3{1, 1, 1}
		}
		loc, rot, scale := evaluate(obj.Keyframes, frame, obj.Location, obj.Rotation, scale)
		xf := newTransform(loc, rot, scale)

		local := s.meshes[i]
		tris := make([]Triangle, len(local))
		for j, t := range local {
			tris[j] = Triangle{xf.apply(t[0]), xf.apply(t[1]), xf.apply(t[2])}
		}
		wo := WorldObject{
			Name:      obj.Name,
			Color:     obj.Color,
			Triangles: tris,
			Box:       bounds(tris),
		}
		for k, c := range corners(bounds(local)) {
			wo.Corners[k] = xf.apply(c)
		}
		g.Objects = append(g.Objects, wo)
	}
	return g
}

// Lights returns the world position of every light object at frame.
func (s *Scene) Lights(frame int) []r3.Vec {
	var out []r3.Vec
	for _, obj := range s.Objects {
		if !strings.EqualFold(obj.Type, TypeLight) {
			continue
		}
		loc, _, _ := evaluate(obj.Keyframes, frame, obj.Location, obj.Rotation, Vec3{1, 1, 1})
		out = append(out, loc.R3())
	}
	return out
}

// Empty reports whether there are no mesh objects.
func (g *Geometry) Empty() bool {
	return len(g.Objects) == 0
}

// BoundCorners returns the world-space bounding-box corners of all mesh
// objects.
func (g *Geometry) BoundCorners() []r3.Vec {
	out := make([]r3.Vec, 0, 8*len(g.Objects))
	for _, o := range g.Objects {
		out = append(out, o.Corners[:]...)
	}
	return out
}

// RayCast returns the distance to the nearest surface hit by the ray within
// maxDist. Both triangle faces are hit.
func (g *Geometry) RayCast(origin, dir r3.Vec, maxDist float64) (float64, bool) {
	if r3.Norm(dir) == 0 {
		return 0, false
	}
	dir = r3.Unit(dir)
	best := maxDist
	hit := false
	for _, o := range g.Objects {
		if !rayBox(origin, dir, o.Box, best) {
			continue
		}
		for _, t := range o.Triangles {
			if d, ok := rayTriangle(origin, dir, t); ok && d <= best {
				best = d
				hit = true
			}
		}
	}
	return best, hit
}

// rayBox is the slab test against an axis-aligned box.
func rayBox(origin, dir r3.Vec, b r3.Box, maxDist float64) bool {
	tmin, tmax := 0.0, maxDist
	o := [3]float64{origin.X, origin.Y, origin.Z}
	d := [3]float64{dir.X, dir.Y, dir.Z}
	lo := [3]float64{b.Min.X, b.Min.Y, b.Min.Z}
	hi := [3]float64{b.Max.X, b.Max.Y, b.Max.Z}
	for i := 0; i < 3; i++ {
		if math.Abs(d[i]) < rayEpsilon {
			if o[i] < lo[i] || o[i] > hi[i] {
				return false
			}
			continue
		}
		inv := 1 / d[i]
		t0 := (lo[i] - o[i]) * inv
		t1 := (hi[i] - o[i]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tmin = math.Max(tmin, t0)
		tmax = math.Min(tmax, t1)
		if tmin > tmax {
			return false
		}
	}
	return true
}

// rayTriangle is the Möller–Trumbore intersection.
func rayTriangle(origin, dir r3.Vec, t Triangle) (float64, bool) {
	e1 := r3.Sub(t[1], t[0])
	e2 := r3.Sub(t[2], t[0])
	p := r3.Cross(dir, e2)
	det := r3.Dot(e1, p)
	if math.Abs(det) < rayEpsilon {
		return 0, false
	}
	inv := 1 / det
	s := r3.Sub(origin, t[0])
	u := r3.Dot(s, p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := r3.Cross(s, e1)
	v := r3.Dot(dir, q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	d := r3.Dot(e2, q) * inv
	if d <= rayEpsilon {
		return 0, false
	}
	return d, true
}

// transform is scale, then rotate, then translate.
type transform struct {
	loc   r3.Vec
	rot   r3.Rotation
	scale r3.Vec
}

func newTransform(loc, rot, scale Vec3) transform {
	return transform{
		loc:   loc.R3(),
		rot:   r3.Rotation(EulerToQuat(rot.R3())),
		scale: scale.R3(),
	}
}

func (t transform) apply(p r3.Vec) r3.Vec {
	p = r3.Vec{X: p.X * t.scale.X, Y: p.Y * t.scale.Y, Z: p.Z * t.scale.Z}
	return r3.Add(t.rot.Rotate(p), t.loc)
}
