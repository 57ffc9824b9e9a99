package math

import "golang.org/x/exp/constraints"

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// ExtentsOf returns the axis aligned bounds of the given points. An empty
// slice yields zero extents.
func ExtentsOf(points []Vec3) Extents3D {
	if len(points) == 0 {
		return Extents3D{}
	}
	e := Extents3D{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		e.Min = Vec3{Min(e.Min.X, p.X), Min(e.Min.Y, p.Y), Min(e.Min.Z, p.Z)}
		e.Max = Vec3{Max(e.Max.X, p.X), Max(e.Max.Y, p.Y), Max(e.Max.Z, p.Z)}
	}
	return e
}

// ColourFromARGB unpacks a packed 0xAARRGGBB colour into normalized channels.
func ColourFromARGB(argb uint32) Vec4 {
	return Vec4{
		X: float32((argb>>16)&0xff) / 255.0,
		Y: float32((argb>>8)&0xff) / 255.0,
		Z: float32(argb&0xff) / 255.0,
		W: float32((argb>>24)&0xff) / 255.0,
	}
}

// ColourFromRGB builds an opaque colour from three channels in [0, 1].
func ColourFromRGB(r, g, b float32) Vec4 {
	return Vec4{
		X: Clamp(r, 0, 1),
		Y: Clamp(g, 0, 1),
		Z: Clamp(b, 0, 1),
		W: 1,
	}
}
