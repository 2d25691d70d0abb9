package math

import "fmt"

// Vec3i is an integer voxel grid coordinate.
type Vec3i struct {
	X, Y, Z int32
}

// Add returns v + other.
func (v Vec3i) Add(other Vec3i) Vec3i {
	return Vec3i{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3i) Sub(other Vec3i) Vec3i {
	return Vec3i{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Min returns the component-wise minimum.
func (v Vec3i) Min(other Vec3i) Vec3i {
	return Vec3i{min(v.X, other.X), min(v.Y, other.Y), min(v.Z, other.Z)}
}

// Max returns the component-wise maximum.
func (v Vec3i) Max(other Vec3i) Vec3i {
	return Vec3i{max(v.X, other.X), max(v.Y, other.Y), max(v.Z, other.Z)}
}

// Center returns the world-space center of the voxel cube at v.
func (v Vec3i) Center() Vec3 {
	return Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

// Coords returns the coordinates as a float64 slice for spatial indexing.
func (v Vec3i) Coords() []float64 {
	return []float64{float64(v.X), float64(v.Y), float64(v.Z)}
}

// Less orders coordinates by X, then Y, then Z.
func (v Vec3i) Less(other Vec3i) bool {
	if v.X != other.X {
		return v.X < other.X
	}
	if v.Y != other.Y {
		return v.Y < other.Y
	}
	return v.Z < other.Z
}

// String returns "(x,y,z)".
func (v Vec3i) String() string {
	return fmt.Sprintf("(%d,%d,%d)", v.X, v.Y, v.Z)
}
