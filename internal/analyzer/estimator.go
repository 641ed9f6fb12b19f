package analyzer

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ivlev/orbit2gif/internal/scene"
)

// Source names where a depth estimate came from.
type Source string

const (
	SourceRaycast Source = "raycast"
	SourceBounds  Source = "bounds"
	SourceDefault Source = "default"
)

// Geometry is the part of the scene an estimator may query.
type Geometry interface {
	RayCast(origin, dir r3.Vec, maxDist float64) (float64, bool)
	BoundCorners() []r3.Vec
}

// DepthSample is one cast ray.
type DepthSample struct {
	Origin    r3.Vec
	Direction r3.Vec
	Distance  float64
	Hit       bool
}

// Estimate is a typical depth in front of the camera, always positive and
// finite, plus how it was obtained.
type Estimate struct {
	Depth   float64
	Source  Source
	Rays    int
	Hits    int
	Samples []DepthSample
}

// Estimator is the interface for depth estimation strategies.
type Estimator interface {
	Estimate(pose scene.Pose, geom Geometry) Estimate
}
