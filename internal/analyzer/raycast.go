package analyzer

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ivlev/orbit2gif/internal/scene"
)

// Defaults of the ray grid.
const (
	DefaultMaxDistance = 1000.0
	DefaultDepth       = 5.0
)

// DefaultAngles is the per-axis offset grid in degrees; every horizontal
// offset is paired with every vertical one.
var DefaultAngles = []float64{0, -10, 10, -20, 20, -5, 5, -15, 15}

// RaycastEstimator casts a grid of rays around the view direction and takes
// the median hit distance, which ignores rays that slip past foreground
// objects into the background.
type RaycastEstimator struct {
	Angles       []float64 // degrees
	MaxDistance  float64
	DefaultDepth float64
	// MinHitFraction gates the ray-cast result: below it the bounding-box
	// fallback is used instead. Zero accepts a single hit.
	MinHitFraction float64
}

// NewRaycastEstimator creates a ray-cast estimator with default settings
func NewRaycastEstimator() *RaycastEstimator {
	return &RaycastEstimator{
		Angles:       DefaultAngles,
		MaxDistance:  DefaultMaxDistance,
		DefaultDepth: DefaultDepth,
	}
}

// Estimate never fails: no usable hits fall back to the bounding-box
// centroid distance, and an empty scene to the default depth.
func (e *RaycastEstimator) Estimate(pose scene.Pose, geom Geometry) Estimate {
	angles := e.Angles
	if len(angles) == 0 {
		angles = DefaultAngles
	}
	maxDist := e.MaxDistance
	if maxDist <= 0 {
		maxDist = DefaultMaxDistance
	}

	samples := make([]DepthSample, 0, len(angles)*len(angles))
	var depths []float64
	for _, h := range angles {
		for _, v := range angles {
			dir := r3.Add(pose.Forward, r3.Add(
				r3.Scale(math.Tan(h*math.Pi/180), pose.Right),
				r3.Scale(math.Tan(v*math.Pi/180), pose.Up),
			))
			dir = r3.Unit(dir)
			d, ok := geom.RayCast(pose.Position, dir, maxDist)
			samples = append(samples, DepthSample{Origin: pose.Position, Direction: dir, Distance: d, Hit: ok})
			if ok && d > 0 && !math.IsInf(d, 0) {
				depths = append(depths, d)
			}
		}
	}

	est := Estimate{Rays: len(samples), Hits: len(depths), Samples: samples}
	if len(depths) > 0 && float64(len(depths)) >= e.MinHitFraction*float64(len(samples)) {
		est.Depth = median(depths)
		est.Source = SourceRaycast
		return est
	}

	est.Depth, est.Source = boundsDepth(pose, geom, e.DefaultDepth)
	return est
}

// BoundsEstimator skips ray casting and uses only the bounding-box chain.
type BoundsEstimator struct {
	DefaultDepth float64
}

// NewBoundsEstimator creates a bounding-box estimator with default settings
func NewBoundsEstimator() *BoundsEstimator {
	return &BoundsEstimator{DefaultDepth: DefaultDepth}
}

func (e *BoundsEstimator) Estimate(pose scene.Pose, geom Geometry) Estimate {
	var est Estimate
	est.Depth, est.Source = boundsDepth(pose, geom, e.DefaultDepth)
	return est
}

// boundsDepth is the distance from the camera to the centroid of all mesh
// bounding-box corners, or def when there is nothing usable.
func boundsDepth(pose scene.Pose, geom Geometry, def float64) (float64, Source) {
	if def <= 0 {
		def = DefaultDepth
	}
	pts := geom.BoundCorners()
	if len(pts) == 0 {
		return def, SourceDefault
	}
	var sum r3.Vec
	for _, p := range pts {
		sum = r3.Add(sum, p)
	}
	center := r3.Scale(1/float64(len(pts)), sum)
	d := r3.Norm(r3.Sub(center, pose.Position))
	if d <= 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return def, SourceDefault
	}
	return d, SourceBounds
}

// median averages the two middle values for even counts.
func median(xs []float64) float64 {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
