package voxel

import (
	"fmt"
	"slices"

	"github.com/Faultbox/voxforge/pkg/math"
	"github.com/Faultbox/voxforge/pkg/rtree"
)

var pointExtent = []float64{0, 0, 0}

// Layer is a named, independently visible collection of voxels.
//
// The spatial index and the ordered id list always hold the same voxel set:
// every mutation either updates both or neither. A Layer is not safe for
// concurrent use.
type Layer struct {
	ID      LayerID
	Name    string
	Visible bool

	index *rtree.Tree[*Voxel]
	ids   []ID
	byID  map[ID]*Voxel
}

// NewLayer creates an empty, visible layer.
func NewLayer(id LayerID, name string, opts rtree.Options) *Layer {
	return &Layer{
		ID:      id,
		Name:    name,
		Visible: true,
		index:   rtree.New[*Voxel](3, opts),
		byID:    make(map[ID]*Voxel),
	}
}

// Len returns the number of voxels in the layer.
func (l *Layer) Len() int {
	return len(l.ids)
}

// ContainsVoxel reports whether a voxel occupies pos.
func (l *Layer) ContainsVoxel(pos math.Vec3i) bool {
	return len(l.index.Search(pos.Coords(), pointExtent)) > 0
}

// AddVoxel stores a copy of v in the layer and sets its Layer field.
// It fails without side effects if the position or id is taken.
func (l *Layer) AddVoxel(v Voxel) error {
	if err := v.Validate(); err != nil {
		return err
	}
	if _, ok := l.byID[v.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateID, v.ID)
	}
	if l.ContainsVoxel(v.Pos) {
		return fmt.Errorf("%w: %s", ErrPositionOccupied, v.Pos)
	}

	v.Layer = l.ID
	stored := &v
	l.index.Insert(v.Pos.Coords(), pointExtent, stored)
	l.ids = append(l.ids, v.ID)
	l.byID[v.ID] = stored
	return nil
}

// RemoveVoxel deletes the voxel with the given id.
// It returns false and leaves the layer untouched if the voxel is absent.
func (l *Layer) RemoveVoxel(id ID) bool {
	v, ok := l.byID[id]
	if !ok {
		return false
	}
	i := slices.Index(l.ids, id)
	if i < 0 {
		return false
	}
	if !l.index.Delete(v.Pos.Coords(), pointExtent, v) {
		return false
	}
	l.ids = slices.Delete(l.ids, i, i+1)
	delete(l.byID, id)
	return true
}

// MoveVoxel relocates a voxel to pos, keeping its place in insertion order.
// It fails without side effects if the voxel is absent or pos is taken by another voxel.
func (l *Layer) MoveVoxel(id ID, pos math.Vec3i) error {
	v, ok := l.byID[id]
	if !ok {
		return fmt.Errorf("voxel %d not in layer %d", id, l.ID)
	}
	if v.Pos == pos {
		return nil
	}
	if l.ContainsVoxel(pos) {
		return fmt.Errorf("%w: %s", ErrPositionOccupied, pos)
	}
	if !l.index.Delete(v.Pos.Coords(), pointExtent, v) {
		return fmt.Errorf("voxel %d missing from index", id)
	}
	v.Pos = pos
	l.index.Insert(pos.Coords(), pointExtent, v)
	return nil
}

// UpdateVoxel overwrites the color, alpha, texture and rotation of the stored
// voxel with the same id. Position, layer and selection are left alone.
func (l *Layer) UpdateVoxel(v Voxel) error {
	if err := v.Validate(); err != nil {
		return err
	}
	stored, ok := l.byID[v.ID]
	if !ok {
		return fmt.Errorf("voxel %d not in layer %d", v.ID, l.ID)
	}
	stored.Color = v.Color
	stored.Alpha = v.Alpha
	stored.Texture = v.Texture
	stored.Rotation = v.Rotation
	return nil
}

// Voxel returns the voxel with the given id.
func (l *Layer) Voxel(id ID) (Voxel, bool) {
	v, ok := l.byID[id]
	if !ok {
		return Voxel{}, false
	}
	return *v, true
}

// VoxelAt returns the voxel occupying pos.
func (l *Layer) VoxelAt(pos math.Vec3i) (Voxel, bool) {
	found := l.index.Search(pos.Coords(), pointExtent)
	if len(found) == 0 {
		return Voxel{}, false
	}
	return *found[0], true
}

// Voxels returns a copy of every voxel in insertion order.
func (l *Layer) Voxels() []Voxel {
	out := make([]Voxel, 0, len(l.ids))
	for _, id := range l.ids {
		out = append(out, *l.byID[id])
	}
	return out
}

// Search returns the voxels inside the cube of the given radius around center,
// ordered by position.
func (l *Layer) Search(center math.Vec3i, radius float64) []Voxel {
	return collect(l.index.Search(center.Coords(), []float64{radius, radius, radius}))
}

// SearchBox returns the voxels inside the inclusive box [lo, hi], ordered by position.
func (l *Layer) SearchBox(lo, hi math.Vec3i) []Voxel {
	lo, hi = lo.Min(hi), lo.Max(hi)
	return collect(l.index.SearchRect(rtree.Rect{Min: lo.Coords(), Max: hi.Coords()}))
}

// SetSelected updates the transient selection flag of a voxel.
func (l *Layer) SetSelected(id ID, selected bool) bool {
	v, ok := l.byID[id]
	if !ok {
		return false
	}
	v.Selected = selected
	return true
}

// Selected returns the selected voxels in insertion order.
func (l *Layer) Selected() []Voxel {
	var out []Voxel
	for _, id := range l.ids {
		if v := l.byID[id]; v.Selected {
			out = append(out, *v)
		}
	}
	return out
}

func collect(found []*Voxel) []Voxel {
	out := make([]Voxel, 0, len(found))
	for _, v := range found {
		out = append(out, *v)
	}
	slices.SortFunc(out, func(a, b Voxel) int {
		switch {
		case a.Pos.Less(b.Pos):
			return -1
		case b.Pos.Less(a.Pos):
			return 1
		default:
			return 0
		}
	})
	return out
}
