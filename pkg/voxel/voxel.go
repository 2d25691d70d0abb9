// Package voxel defines voxels and the layers that hold them.
package voxel

import (
	"errors"
	"fmt"

	"github.com/Faultbox/voxforge/pkg/math"
)

// Voxel errors.
var (
	ErrPositionOccupied = errors.New("position already occupied")
	ErrDuplicateID      = errors.New("voxel id already present")
	ErrInvalidRotation  = errors.New("invalid rotation")
)

// ID identifies a voxel. IDs are unique within a store.
type ID int64

// LayerID identifies a layer.
type LayerID int32

// NoTexture marks a voxel without a texture.
const NoTexture int32 = -1

// Color is an 8-bit RGB color.
type Color struct {
	R, G, B uint8
}

// RGB creates a color from 8-bit components.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// Hex returns the color as 0xRRGGBB.
func (c Color) Hex() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// ColorFromHex creates a color from 0xRRGGBB.
func ColorFromHex(v uint32) Color {
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
}

// String returns "#rrggbb".
func (c Color) String() string {
	return fmt.Sprintf("#%06x", c.Hex())
}

// Rotation is a quarter-turn count in [0, 3].
type Rotation uint8

// Valid reports whether r is a legal quarter-turn count.
func (r Rotation) Valid() bool {
	return r <= 3
}

// Next returns the rotation one quarter turn further.
func (r Rotation) Next() Rotation {
	return (r + 1) % 4
}

// Voxel is a single colored unit cube at an integer coordinate.
// Pos must not change while the voxel is stored in a layer; a move is a remove followed by an add.
type Voxel struct {
	ID       ID
	Pos      math.Vec3i
	Color    Color
	Alpha    uint8
	Texture  int32 // NoTexture when untextured
	Rotation Rotation
	Layer    LayerID

	// Selected is transient editor state and is never persisted.
	Selected bool
}

// Validate checks field ranges.
func (v Voxel) Validate() error {
	if !v.Rotation.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidRotation, v.Rotation)
	}
	return nil
}

// String returns a short description for logs.
func (v Voxel) String() string {
	return fmt.Sprintf("voxel %d at %s in layer %d", v.ID, v.Pos, v.Layer)
}
