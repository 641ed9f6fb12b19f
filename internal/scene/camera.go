package scene

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Default optics for cameras that leave them unset.
const (
	DefaultLens        = 50.0
	DefaultSensorWidth = 36.0
)

var (
	axisX   = r3.Vec{X: 1}
	axisY   = r3.Vec{Y: 1}
	axisZ   = r3.Vec{Z: 1}
	worldUp = axisZ
)

// Pose is an immutable camera snapshot. The camera looks down its local -Z
// axis with +Y up; Forward, Right and Up are those axes in world space.
type Pose struct {
	Position    r3.Vec
	Rotation    quat.Number
	Forward     r3.Vec
	Right       r3.Vec
	Up          r3.Vec
	Lens        float64
	SensorWidth float64
}

// NewPose builds a pose from a rotation quaternion, normalising it.
func NewPose(position r3.Vec, rotation quat.Number, lens, sensorWidth float64) Pose {
	if n := quat.Abs(rotation); n > 0 {
		rotation = quat.Scale(1/n, rotation)
	} else {
		rotation = quat.Number{Real: 1}
	}
	if lens <= 0 {
		lens = DefaultLens
	}
	if sensorWidth <= 0 {
		sensorWidth = DefaultSensorWidth
	}
	rot := r3.Rotation(rotation)
	return Pose{
		Position:    position,
		Rotation:    rotation,
		Forward:     r3.Unit(rot.Rotate(r3.Vec{Z: -1})),
		Right:       r3.Unit(rot.Rotate(axisX)),
		Up:          r3.Unit(rot.Rotate(axisY)),
		Lens:        lens,
		SensorWidth: sensorWidth,
	}
}

// PoseFromEuler builds a pose from an XYZ Euler rotation in radians.
func PoseFromEuler(position, euler r3.Vec, lens, sensorWidth float64) Pose {
	return NewPose(position, EulerToQuat(euler), lens, sensorWidth)
}

// LookAt returns a pose at position whose -Z axis points at target and whose
// +Y axis leans toward world +Z. When the view is parallel to world Z, world
// +Y is used as the secondary reference instead.
func LookAt(position, target r3.Vec, lens, sensorWidth float64) Pose {
	dir := r3.Sub(target, position)
	if r3.Norm(dir) == 0 {
		return NewPose(position, quat.Number{Real: 1}, lens, sensorWidth)
	}
	f := r3.Unit(dir)
	right := r3.Cross(f, worldUp)
	if r3.Norm(right) < 1e-9 {
		right = r3.Cross(f, axisY)
	}
	right = r3.Unit(right)
	up := r3.Cross(right, f)
	back := r3.Scale(-1, f)
	return NewPose(position, basisToQuat(right, up, back), lens, sensorWidth)
}

// Euler returns the XYZ Euler rotation of the pose in radians.
func (p Pose) Euler() r3.Vec {
	return QuatToEuler(p.Rotation)
}

// FOV returns the horizontal field of view in radians.
func (p Pose) FOV() float64 {
	return 2 * math.Atan(p.SensorWidth/(2*p.Lens))
}

// EulerToQuat converts an XYZ Euler rotation (applied X, then Y, then Z)
// to a quaternion.
func EulerToQuat(euler r3.Vec) quat.Number {
	qx := quat.Number(r3.NewRotation(euler.X, axisX))
	qy := quat.Number(r3.NewRotation(euler.Y, axisY))
	qz := quat.Number(r3.NewRotation(euler.Z, axisZ))
	return quat.Mul(quat.Mul(qz, qy), qx)
}

// QuatToEuler converts a rotation quaternion to XYZ Euler angles.
func QuatToEuler(q quat.Number) r3.Vec {
	rot := r3.Rotation(q)
	x := rot.Rotate(axisX) // column 0
	y := rot.Rotate(axisY) // column 1
	z := rot.Rotate(axisZ) // column 2

	sy := math.Max(-1, math.Min(1, -x.Z))
	beta := math.Asin(sy)
	if math.Cos(beta) < 1e-9 {
		// gimbal lock, fold Z into X
		return r3.Vec{X: math.Atan2(-z.Y, y.Y), Y: beta}
	}
	return r3.Vec{
		X: math.Atan2(y.Z, z.Z),
		Y: beta,
		Z: math.Atan2(x.Y, x.X),
	}
}

// basisToQuat converts an orthonormal basis (the columns of a rotation
// matrix) to a quaternion.
func basisToQuat(x, y, z r3.Vec) quat.Number {
	m11, m12, m13 := x.X, y.X, z.X
	m21, m22, m23 := x.Y, y.Y, z.Y
	m31, m32, m33 := x.Z, y.Z, z.Z
	trace := m11 + m22 + m33

	var q quat.Number
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q.Real = 0.25 / s
		q.Imag = (m32 - m23) * s
		q.Jmag = (m13 - m31) * s
		q.Kmag = (m21 - m12) * s
	case m11 > m22 && m11 > m33:
		s := 2 * math.Sqrt(1+m11-m22-m33)
		q.Real = (m32 - m23) / s
		q.Imag = 0.25 * s
		q.Jmag = (m12 + m21) / s
		q.Kmag = (m13 + m31) / s
	case m22 > m33:
		s := 2 * math.Sqrt(1+m22-m11-m33)
		q.Real = (m13 - m31) / s
		q.Imag = (m12 + m21) / s
		q.Jmag = 0.25 * s
		q.Kmag = (m23 + m32) / s
	default:
		s := 2 * math.Sqrt(1+m33-m11-m22)
		q.Real = (m21 - m12) / s
		q.Imag = (m13 + m31) / s
		q.Jmag = (m23 + m32) / s
		q.Kmag = 0.25 * s
	}
	return q
}
