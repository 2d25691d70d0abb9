package store

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/voxforge/pkg/math"
	"github.com/Faultbox/voxforge/pkg/voxel"
)

// History actions. Each one runs with s.mu held: intents are only applied
// from inside Store.update.

type addVoxelAction struct {
	s *Store
	v voxel.Voxel
}

func (a *addVoxelAction) ApplyAction(first bool) { a.s.insertVoxel(a.v) }
func (a *addVoxelAction) UnapplyAction()         { a.s.deleteVoxel(a.v.ID) }
func (a *addVoxelAction) String() string {
	return fmt.Sprintf("add voxel %d at %s", a.v.ID, a.v.Pos)
}

type removeVoxelAction struct {
	s *Store
	v voxel.Voxel
}

func (a *removeVoxelAction) ApplyAction(first bool) { a.s.deleteVoxel(a.v.ID) }
func (a *removeVoxelAction) UnapplyAction()         { a.s.insertVoxel(a.v) }
func (a *removeVoxelAction) String() string {
	return fmt.Sprintf("remove voxel %d at %s", a.v.ID, a.v.Pos)
}

type moveVoxelAction struct {
	s        *Store
	id       voxel.ID
	from, to math.Vec3i
}

func (a *moveVoxelAction) ApplyAction(first bool) { a.s.relocateVoxel(a.id, a.to) }
func (a *moveVoxelAction) UnapplyAction()         { a.s.relocateVoxel(a.id, a.from) }
func (a *moveVoxelAction) String() string {
	return fmt.Sprintf("move voxel %d from %s to %s", a.id, a.from, a.to)
}

// updateVoxelAction swaps the non-positional attributes of a voxel.
type updateVoxelAction struct {
	s             *Store
	label         string
	before, after voxel.Voxel
}

func (a *updateVoxelAction) ApplyAction(first bool) { a.s.updateVoxel(a.after) }
func (a *updateVoxelAction) UnapplyAction()         { a.s.updateVoxel(a.before) }
func (a *updateVoxelAction) String() string {
	return fmt.Sprintf("%s of voxel %d", a.label, a.after.ID)
}

type clearLayerAction struct {
	s      *Store
	layer  voxel.LayerID
	voxels []voxel.Voxel
}

func (a *clearLayerAction) ApplyAction(first bool) {
	for _, v := range a.voxels {
		a.s.deleteVoxel(v.ID)
	}
}

func (a *clearLayerAction) UnapplyAction() {
	for _, v := range a.voxels {
		a.s.insertVoxel(v)
	}
}

func (a *clearLayerAction) String() string {
	return fmt.Sprintf("clear layer %d (%d voxels)", a.layer, len(a.voxels))
}

// layerAction attaches or detaches a whole layer. The layer keeps its voxels
// while detached, so undoing a delete restores them in their original order.
type layerAction struct {
	s      *Store
	layer  *voxel.Layer
	index  int
	create bool
}

func (a *layerAction) ApplyAction(first bool) {
	if a.create {
		a.s.attachLayer(a.layer, a.index)
	} else {
		a.s.detachLayer(a.layer)
	}
}

func (a *layerAction) UnapplyAction() {
	if a.create {
		a.s.detachLayer(a.layer)
	} else {
		a.s.attachLayer(a.layer, a.index)
	}
}

func (a *layerAction) String() string {
	if a.create {
		return fmt.Sprintf("create layer %d %q", a.layer.ID, a.layer.Name)
	}
	return fmt.Sprintf("delete layer %d %q", a.layer.ID, a.layer.Name)
}

type renameLayerAction struct {
	s        *Store
	layer    voxel.LayerID
	from, to string
}

func (a *renameLayerAction) ApplyAction(first bool) { a.s.withLayer(a.layer, func(l *voxel.Layer) { l.Name = a.to }) }
func (a *renameLayerAction) UnapplyAction()         { a.s.withLayer(a.layer, func(l *voxel.Layer) { l.Name = a.from }) }
func (a *renameLayerAction) String() string {
	return fmt.Sprintf("rename layer %d to %q", a.layer, a.to)
}

type layerVisibilityAction struct {
	s       *Store
	layer   voxel.LayerID
	visible bool
}

func (a *layerVisibilityAction) ApplyAction(first bool) {
	a.s.withLayer(a.layer, func(l *voxel.Layer) { l.Visible = a.visible })
}

func (a *layerVisibilityAction) UnapplyAction() {
	a.s.withLayer(a.layer, func(l *voxel.Layer) { l.Visible = !a.visible })
}

func (a *layerVisibilityAction) String() string {
	if a.visible {
		return fmt.Sprintf("show layer %d", a.layer)
	}
	return fmt.Sprintf("hide layer %d", a.layer)
}

type moveLayerAction struct {
	s        *Store
	layer    voxel.LayerID
	from, to int
}

func (a *moveLayerAction) ApplyAction(first bool) { a.s.reorderLayer(a.layer, a.to) }
func (a *moveLayerAction) UnapplyAction()         { a.s.reorderLayer(a.layer, a.from) }
func (a *moveLayerAction) String() string {
	return fmt.Sprintf("move layer %d from %d to %d", a.layer, a.from, a.to)
}

// Primitive mutations. Edits are validated before their intent is built and
// the history is linear, so a failure here means the store is inconsistent.

func (s *Store) insertVoxel(v voxel.Voxel) {
	l, _, err := s.layer(v.Layer)
	if err == nil {
		err = l.AddVoxel(v)
	}
	if err != nil {
		s.log.Error("insert voxel", zap.Stringer("voxel", v), zap.Error(err))
		return
	}
	s.owner[v.ID] = l.ID
}

func (s *Store) deleteVoxel(id voxel.ID) {
	l, err := s.voxelLayer(id)
	if err != nil || !l.RemoveVoxel(id) {
		s.log.Error("delete voxel", zap.Int64("id", int64(id)), zap.Error(err))
		return
	}
	delete(s.owner, id)
}

func (s *Store) relocateVoxel(id voxel.ID, pos math.Vec3i) {
	l, err := s.voxelLayer(id)
	if err == nil {
		err = l.MoveVoxel(id, pos)
	}
	if err != nil {
		s.log.Error("move voxel", zap.Int64("id", int64(id)), zap.Stringer("to", pos), zap.Error(err))
	}
}

func (s *Store) updateVoxel(v voxel.Voxel) {
	l, err := s.voxelLayer(v.ID)
	if err == nil {
		err = l.UpdateVoxel(v)
	}
	if err != nil {
		s.log.Error("update voxel", zap.Stringer("voxel", v), zap.Error(err))
	}
}

func (s *Store) withLayer(id voxel.LayerID, fn func(l *voxel.Layer)) {
	l, _, err := s.layer(id)
	if err != nil {
		s.log.Error("layer edit", zap.Error(err))
		return
	}
	fn(l)
}

func (s *Store) attachLayer(l *voxel.Layer, index int) {
	index = min(max(index, 0), len(s.layers))
	s.layers = slices.Insert(s.layers, index, l)
	for _, v := range l.Voxels() {
		s.owner[v.ID] = l.ID
	}
}

func (s *Store) detachLayer(l *voxel.Layer) {
	_, i, err := s.layer(l.ID)
	if err != nil {
		s.log.Error("detach layer", zap.Error(err))
		return
	}
	s.layers = slices.Delete(s.layers, i, i+1)
	for _, v := range l.Voxels() {
		delete(s.owner, v.ID)
	}
}

func (s *Store) reorderLayer(id voxel.LayerID, to int) {
	l, i, err := s.layer(id)
	if err != nil {
		s.log.Error("reorder layer", zap.Error(err))
		return
	}
	s.layers = slices.Delete(s.layers, i, i+1)
	to = min(max(to, 0), len(s.layers))
	s.layers = slices.Insert(s.layers, to, l)
}
