package math

import gomath "math"

// Vec2 represents a 2D vector
type Vec2 struct {
	X, Y float32
}

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 represents a 4D vector
type Vec4 struct {
	X, Y, Z, W float32
}

/**
 * @brief Represents the extents of a 3d object.
 */
type Extents3D struct {
	/** @brief The minimum extents of the object. */
	Min Vec3
	/** @brief The maximum extents of the object. */
	Max Vec3
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Center returns the midpoint of the extents.
func (e Extents3D) Center() Vec3 {
	return e.Min.Add(e.Max).Scale(0.5)
}

// Size returns the length of each side of the extents.
func (e Extents3D) Size() Vec3 {
	return e.Max.Sub(e.Min)
}

func (v Vec3) Dot(o Vec3) float32 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

/**
 * @brief Calculates the cross product of the supplied vectors, a vector
 * orthogonal to both.
 */
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X}
}

func (v Vec3) Length() float32 {
	return float32(gomath.Sqrt(float64(v.Dot(v))))
}

// Normalized returns a unit copy of v. The zero vector stays zero.
func (v Vec3) Normalized() Vec3 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

/**
 * @brief Compares all elements of v and o and ensures the difference is
 * within tolerance.
 */
func (v Vec3) Compare(o Vec3, tolerance float32) bool {
	d := v.Sub(o)
	return gomath.Abs(float64(d.X)) <= float64(tolerance) &&
		gomath.Abs(float64(d.Y)) <= float64(tolerance) &&
		gomath.Abs(float64(d.Z)) <= float64(tolerance)
}
