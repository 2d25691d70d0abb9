package store

import (
	"fmt"
	"slices"

	"github.com/Faultbox/voxforge/pkg/encoding"
	"github.com/Faultbox/voxforge/pkg/history"
	"github.com/Faultbox/voxforge/pkg/math"
	"github.com/Faultbox/voxforge/pkg/voxel"
)

// submit records action in the history. It reports false when the history
// is frozen and the action was not applied.
func (s *Store) submit(action history.Action, attach bool) bool {
	intent := history.NewIntent(action, attach)
	s.history.ApplyIntent(intent)
	return !intent.FirstCall()
}

// CreateLayer adds an empty, visible layer on top of the others.
// The name is normalized with encoding.NormalizeName.
func (s *Store) CreateLayer(name string) (voxel.LayerID, error) {
	var id voxel.LayerID
	name = encoding.NormalizeName(name)
	err := s.update(func() error {
		if name == "" {
			return ErrEmptyName
		}
		l := voxel.NewLayer(s.nextLayer, name, s.opts)
		if s.submit(&layerAction{s: s, layer: l, index: len(s.layers), create: true}, false) {
			s.nextLayer++
			id = l.ID
		}
		return nil
	})
	return id, err
}

// DeleteLayer removes a layer and its voxels. Undo restores both.
func (s *Store) DeleteLayer(id voxel.LayerID) error {
	return s.update(func() error {
		l, i, err := s.layer(id)
		if err != nil {
			return err
		}
		s.submit(&layerAction{s: s, layer: l, index: i}, false)
		return nil
	})
}

// RenameLayer changes the name of a layer.
func (s *Store) RenameLayer(id voxel.LayerID, name string) error {
	name = encoding.NormalizeName(name)
	return s.update(func() error {
		if name == "" {
			return ErrEmptyName
		}
		l, _, err := s.layer(id)
		if err != nil {
			return err
		}
		if l.Name != name {
			s.submit(&renameLayerAction{s: s, layer: id, from: l.Name, to: name}, false)
		}
		return nil
	})
}

// SetLayerVisible shows or hides a layer.
func (s *Store) SetLayerVisible(id voxel.LayerID, visible bool) error {
	return s.update(func() error {
		l, _, err := s.layer(id)
		if err != nil {
			return err
		}
		if l.Visible != visible {
			s.submit(&layerVisibilityAction{s: s, layer: id, visible: visible}, false)
		}
		return nil
	})
}

// MoveLayer moves a layer delta places up (positive) or down (negative) in
// display order, stopping at either end.
func (s *Store) MoveLayer(id voxel.LayerID, delta int) error {
	return s.update(func() error {
		_, i, err := s.layer(id)
		if err != nil {
			return err
		}
		to := min(max(i+delta, 0), len(s.layers)-1)
		if to != i {
			s.submit(&moveLayerAction{s: s, layer: id, from: i, to: to}, false)
		}
		return nil
	})
}

// ClearLayer removes every voxel from a layer as one operation.
func (s *Store) ClearLayer(id voxel.LayerID) error {
	return s.update(func() error {
		l, _, err := s.layer(id)
		if err != nil {
			return err
		}
		if l.Len() > 0 {
			s.submit(&clearLayerAction{s: s, layer: id, voxels: unselected(l.Voxels())}, false)
		}
		return nil
	})
}

// AddVoxel creates a voxel in a layer and returns its id.
// While the history is frozen nothing is created and the id is 0.
func (s *Store) AddVoxel(layer voxel.LayerID, spec VoxelSpec) (voxel.ID, error) {
	ids, err := s.AddVoxels(layer, []VoxelSpec{spec})
	if err != nil || len(ids) == 0 {
		return 0, err
	}
	return ids[0], nil
}

// AddVoxels creates voxels in a layer as one undoable operation. Either every
// spec is valid and free, or nothing is created.
func (s *Store) AddVoxels(layer voxel.LayerID, specs []VoxelSpec) ([]voxel.ID, error) {
	var ids []voxel.ID
	err := s.update(func() error {
		l, _, err := s.layer(layer)
		if err != nil {
			return err
		}

		taken := make(map[math.Vec3i]bool, len(specs))
		for _, spec := range specs {
			if !spec.Rotation.Valid() {
				return fmt.Errorf("%w: %d", voxel.ErrInvalidRotation, spec.Rotation)
			}
			if taken[spec.Pos] || l.ContainsVoxel(spec.Pos) {
				return fmt.Errorf("%w: %s", voxel.ErrPositionOccupied, spec.Pos)
			}
			taken[spec.Pos] = true
		}

		for i, spec := range specs {
			v := voxel.Voxel{
				ID:       s.nextVoxel,
				Pos:      spec.Pos,
				Color:    spec.Color,
				Alpha:    spec.Alpha,
				Texture:  spec.Texture,
				Rotation: spec.Rotation,
				Layer:    layer,
			}
			if !s.submit(&addVoxelAction{s: s, v: v}, i > 0) {
				break
			}
			s.nextVoxel++
			ids = append(ids, v.ID)
		}
		return nil
	})
	return ids, err
}

// RemoveVoxel deletes a voxel.
func (s *Store) RemoveVoxel(id voxel.ID) error {
	return s.RemoveVoxels([]voxel.ID{id})
}

// RemoveVoxels deletes voxels as one undoable operation.
func (s *Store) RemoveVoxels(ids []voxel.ID) error {
	return s.update(func() error {
		victims, err := s.lookup(ids)
		if err != nil {
			return err
		}
		for i, v := range victims {
			if !s.submit(&removeVoxelAction{s: s, v: v}, i > 0) {
				break
			}
		}
		return nil
	})
}

// MoveVoxel moves a voxel to pos within its layer.
func (s *Store) MoveVoxel(id voxel.ID, pos math.Vec3i) error {
	return s.update(func() error {
		l, err := s.voxelLayer(id)
		if err != nil {
			return err
		}
		v, _ := l.Voxel(id)
		if v.Pos == pos {
			return nil
		}
		if l.ContainsVoxel(pos) {
			return fmt.Errorf("%w: %s", voxel.ErrPositionOccupied, pos)
		}
		s.submit(&moveVoxelAction{s: s, id: id, from: v.Pos, to: pos}, false)
		return nil
	})
}

// ShiftVoxels translates voxels by offset as one undoable operation. Voxels
// may move onto cells vacated by other voxels of the same shift.
func (s *Store) ShiftVoxels(ids []voxel.ID, offset math.Vec3i) error {
	return s.update(func() error {
		moving, err := s.lookup(ids)
		if err != nil {
			return err
		}
		if offset == (math.Vec3i{}) {
			return nil
		}

		members := make(map[voxel.ID]bool, len(moving))
		for _, v := range moving {
			members[v.ID] = true
		}
		for _, v := range moving {
			l, _, err := s.layer(v.Layer)
			if err != nil {
				return err
			}
			to := v.Pos.Add(offset)
			if other, ok := l.VoxelAt(to); ok && !members[other.ID] {
				return fmt.Errorf("%w: %s", voxel.ErrPositionOccupied, to)
			}
		}

		// Move the voxels furthest along offset first so that every target
		// cell has already been vacated. Undo runs in reverse and is safe too.
		slices.SortStableFunc(moving, func(a, b voxel.Voxel) int {
			da, db := dot(a.Pos, offset), dot(b.Pos, offset)
			switch {
			case da > db:
				return -1
			case da < db:
				return 1
			default:
				return 0
			}
		})
		for i, v := range moving {
			if !s.submit(&moveVoxelAction{s: s, id: v.ID, from: v.Pos, to: v.Pos.Add(offset)}, i > 0) {
				break
			}
		}
		return nil
	})
}

// SetColor changes the color of a voxel.
func (s *Store) SetColor(id voxel.ID, c voxel.Color) error {
	return s.modify(id, "set color", func(v *voxel.Voxel) { v.Color = c })
}

// SetAlpha changes the opacity of a voxel.
func (s *Store) SetAlpha(id voxel.ID, alpha uint8) error {
	return s.modify(id, "set alpha", func(v *voxel.Voxel) { v.Alpha = alpha })
}

// SetRotation changes the rotation of a voxel.
func (s *Store) SetRotation(id voxel.ID, r voxel.Rotation) error {
	if !r.Valid() {
		return fmt.Errorf("%w: %d", voxel.ErrInvalidRotation, r)
	}
	return s.modify(id, "set rotation", func(v *voxel.Voxel) { v.Rotation = r })
}

// SetTexture changes the texture of a voxel. Use voxel.NoTexture to clear it.
func (s *Store) SetTexture(id voxel.ID, texture int32) error {
	return s.modify(id, "set texture", func(v *voxel.Voxel) { v.Texture = texture })
}

func (s *Store) modify(id voxel.ID, label string, fn func(v *voxel.Voxel)) error {
	return s.update(func() error {
		l, err := s.voxelLayer(id)
		if err != nil {
			return err
		}
		before, _ := l.Voxel(id)
		after := before
		fn(&after)
		if after != before {
			s.submit(&updateVoxelAction{s: s, label: label, before: before, after: after}, false)
		}
		return nil
	})
}

// lookup resolves ids to voxel copies, dropping repeats. Selection is cleared
// on the copies since it is not part of the history.
func (s *Store) lookup(ids []voxel.ID) ([]voxel.Voxel, error) {
	seen := make(map[voxel.ID]bool, len(ids))
	out := make([]voxel.Voxel, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		l, err := s.voxelLayer(id)
		if err != nil {
			return nil, err
		}
		v, _ := l.Voxel(id)
		out = append(out, v)
	}
	return unselected(out), nil
}

func unselected(voxels []voxel.Voxel) []voxel.Voxel {
	for i := range voxels {
		voxels[i].Selected = false
	}
	return voxels
}

func dot(a, b math.Vec3i) int64 {
	return int64(a.X)*int64(b.X) + int64(a.Y)*int64(b.Y) + int64(a.Z)*int64(b.Z)
}
