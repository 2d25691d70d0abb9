// Package store is the voxel document: ordered layers, a shared undo history
// and the lock that guards both.
package store

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/voxforge/internal/logger"
	"github.com/Faultbox/voxforge/pkg/history"
	"github.com/Faultbox/voxforge/pkg/math"
	"github.com/Faultbox/voxforge/pkg/rtree"
	"github.com/Faultbox/voxforge/pkg/voxel"
)

// Store errors.
var (
	ErrLayerNotFound = errors.New("layer not found")
	ErrVoxelNotFound = errors.New("voxel not found")
	ErrEmptyName     = errors.New("layer name is empty")
	ErrFrozen        = errors.New("history is frozen")
)

// Intent is the history entry type used by the store.
type Intent = *history.ActionIntent

// Listener receives store history notifications. Notifications are delivered
// after the store lock is released, so a listener may call back into the store.
type Listener = history.Listener[Intent]

// Options configures a Store.
type Options struct {
	Index      rtree.Options
	Logger     *zap.Logger // defaults to logger.Named("store")
	DocumentID uuid.UUID   // defaults to a new random id
}

// LayerInfo describes a layer.
type LayerInfo struct {
	ID      voxel.LayerID
	Name    string
	Visible bool
	Voxels  int
}

// VoxelSpec holds the attributes of a voxel to be created.
type VoxelSpec struct {
	Pos      math.Vec3i
	Color    voxel.Color
	Alpha    uint8
	Texture  int32
	Rotation voxel.Rotation
}

// Solid returns an opaque, untextured spec.
func Solid(pos math.Vec3i, c voxel.Color) VoxelSpec {
	return VoxelSpec{Pos: pos, Color: c, Alpha: 255, Texture: voxel.NoTexture}
}

// Store holds the voxel layers of one document.
//
// Layers are kept in display order, bottom first. Every edit is recorded as an
// intent in the history and can be undone. All methods are safe for
// concurrent use.
type Store struct {
	mu   sync.Mutex
	log  *zap.Logger
	opts rtree.Options
	id   uuid.UUID

	layers    []*voxel.Layer
	owner     map[voxel.ID]voxel.LayerID
	nextVoxel voxel.ID
	nextLayer voxel.LayerID
	selected  voxel.LayerID

	history *history.Manager[Intent]

	// Notifications produced while mu is held, delivered after unlock.
	pending     []func(Listener)
	subscribers []subscriber
	nextSub     int
}

type subscriber struct {
	id       int
	listener Listener
}

// New creates an empty store.
func New(opts Options) *Store {
	log := opts.Logger
	if log == nil {
		log = logger.Named("store")
	}
	id := opts.DocumentID
	if id == uuid.Nil {
		id = uuid.New()
	}

	s := &Store{
		log:       log,
		opts:      opts.Index,
		id:        id,
		owner:     make(map[voxel.ID]voxel.LayerID),
		nextVoxel: 1,
		nextLayer: 1,
		history:   history.NewManager[Intent](),
	}
	s.history.AddListener(history.ListenerFuncs[Intent]{
		Change:        s.onChange,
		FrozenIntent:  s.onFrozenIntent,
		FrozenApply:   s.onFrozenApply,
		FrozenUnapply: s.onFrozenUnapply,
	})
	return s
}

// DocumentID returns the id written into snapshots.
func (s *Store) DocumentID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Subscribe registers l and returns a function that unregisters it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subscribers = append(s.subscribers, subscriber{id: id, listener: l})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subscribers = slices.DeleteFunc(s.subscribers, func(sub subscriber) bool {
			return sub.id == id
		})
	}
}

// update runs fn under the lock and then delivers the notifications it produced.
func (s *Store) update(fn func() error) error {
	s.mu.Lock()
	err := fn()
	events := s.pending
	s.pending = nil
	subs := slices.Clone(s.subscribers)
	s.mu.Unlock()

	for _, ev := range events {
		for _, sub := range subs {
			ev(sub.listener)
		}
	}
	return err
}

func (s *Store) onChange(i Intent) {
	if i == nil {
		s.log.Debug("history cleared")
	} else {
		s.log.Debug("history changed", zap.Stringer("intent", i))
	}
	s.pending = append(s.pending, func(l Listener) { l.OnChange(i) })
}

func (s *Store) onFrozenIntent(i Intent) {
	s.log.Warn("edit rejected, history frozen", zap.Stringer("intent", i))
	s.pending = append(s.pending, func(l Listener) { l.OnFrozenIntent(i) })
}

func (s *Store) onFrozenApply() {
	s.log.Warn("redo rejected, history frozen")
	s.pending = append(s.pending, func(l Listener) { l.OnFrozenApply() })
}

func (s *Store) onFrozenUnapply() {
	s.log.Warn("undo rejected, history frozen")
	s.pending = append(s.pending, func(l Listener) { l.OnFrozenUnapply() })
}

// Undo reverts the last operation.
func (s *Store) Undo() {
	s.update(func() error {
		s.history.Unapply()
		return nil
	})
}

// Redo reapplies the next undone operation.
func (s *Store) Redo() {
	s.update(func() error {
		s.history.Apply()
		return nil
	})
}

// CanUndo reports whether Undo would change anything.
func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

// CanRedo reports whether Redo would change anything.
func (s *Store) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// ClearHistory forgets every recorded operation. It does nothing while frozen.
func (s *Store) ClearHistory() {
	s.update(func() error {
		s.history.Clear()
		return nil
	})
}

// SetFrozen toggles frozen mode. While frozen, edits, undo and redo are
// reported to listeners and otherwise ignored.
func (s *Store) SetFrozen(frozen bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.SetFrozen(frozen)
}

// Frozen reports whether the history is frozen.
func (s *Store) Frozen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Frozen()
}

// Layers returns every layer in display order, bottom first.
func (s *Store) Layers() []LayerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]LayerInfo, 0, len(s.layers))
	for _, l := range s.layers {
		out = append(out, LayerInfo{ID: l.ID, Name: l.Name, Visible: l.Visible, Voxels: l.Len()})
	}
	return out
}

// SelectLayer marks a layer as the active one. Selection is not recorded in history.
func (s *Store) SelectLayer(id voxel.LayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, _, err := s.layer(id); err != nil {
		return err
	}
	s.selected = id
	return nil
}

// SelectedLayer returns the active layer, if it still exists.
func (s *Store) SelectedLayer() (voxel.LayerID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, _, err := s.layer(s.selected); err != nil {
		return 0, false
	}
	return s.selected, true
}

// Voxels returns the voxels of a layer in insertion order.
func (s *Store) Voxels(layer voxel.LayerID) ([]voxel.Voxel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, _, err := s.layer(layer)
	if err != nil {
		return nil, err
	}
	return l.Voxels(), nil
}

// Voxel returns the voxel with the given id.
func (s *Store) Voxel(id voxel.ID) (voxel.Voxel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.voxelLayer(id)
	if err != nil {
		return voxel.Voxel{}, false
	}
	return l.Voxel(id)
}

// VoxelAt returns the voxel at pos in the topmost visible layer that has one.
func (s *Store) VoxelAt(pos math.Vec3i) (voxel.Voxel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.layers) - 1; i >= 0; i-- {
		l := s.layers[i]
		if !l.Visible {
			continue
		}
		if v, ok := l.VoxelAt(pos); ok {
			return v, true
		}
	}
	return voxel.Voxel{}, false
}

// Search returns the voxels of a layer within the cube of the given radius around center.
func (s *Store) Search(layer voxel.LayerID, center math.Vec3i, radius float64) ([]voxel.Voxel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, _, err := s.layer(layer)
	if err != nil {
		return nil, err
	}
	return l.Search(center, radius), nil
}

// SearchBox returns the voxels of a layer inside the inclusive box [lo, hi].
func (s *Store) SearchBox(layer voxel.LayerID, lo, hi math.Vec3i) ([]voxel.Voxel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, _, err := s.layer(layer)
	if err != nil {
		return nil, err
	}
	return l.SearchBox(lo, hi), nil
}

// VoxelCount returns the number of voxels across all layers.
func (s *Store) VoxelCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.owner)
}

// Select sets the transient selection flag of a voxel.
func (s *Store) Select(id voxel.ID, selected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.voxelLayer(id)
	if err != nil {
		return err
	}
	l.SetSelected(id, selected)
	return nil
}

// Selected returns the selected voxels, layer by layer.
func (s *Store) Selected() []voxel.Voxel {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []voxel.Voxel
	for _, l := range s.layers {
		out = append(out, l.Selected()...)
	}
	return out
}

// ClearSelection deselects every voxel.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.layers {
		for _, v := range l.Selected() {
			l.SetSelected(v.ID, false)
		}
	}
}

// layer returns the layer with the given id and its display index.
func (s *Store) layer(id voxel.LayerID) (*voxel.Layer, int, error) {
	for i, l := range s.layers {
		if l.ID == id {
			return l, i, nil
		}
	}
	return nil, -1, fmt.Errorf("%w: %d", ErrLayerNotFound, id)
}

// voxelLayer returns the layer holding the voxel with the given id.
func (s *Store) voxelLayer(id voxel.ID) (*voxel.Layer, error) {
	lid, ok := s.owner[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrVoxelNotFound, id)
	}
	l, _, err := s.layer(lid)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", ErrVoxelNotFound, id)
	}
	return l, nil
}
