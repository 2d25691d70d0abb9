// Package math provides vector types for voxel space.
package math

import "math"

// Vec3 is a 3D vector in world space.
type Vec3 struct {
	X, Y, Z float32
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Scale returns v * scalar.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Length returns the magnitude.
func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

// Distance returns the distance to another point.
func (v Vec3) Distance(other Vec3) float32 {
	return v.Sub(other).Length()
}

// Cell returns the voxel cell containing v.
// Voxel cubes are centered on integer coordinates.
func (v Vec3) Cell() Vec3i {
	return Vec3i{
		X: int32(math.Floor(float64(v.X) + 0.5)),
		Y: int32(math.Floor(float64(v.Y) + 0.5)),
		Z: int32(math.Floor(float64(v.Z) + 0.5)),
	}
}
