package store

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/voxforge/pkg/formats"
	"github.com/Faultbox/voxforge/pkg/voxel"
)

// Snapshot captures the layers and voxels of the store. Selection is not included.
func (s *Store) Snapshot() *formats.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &formats.Snapshot{
		Version:    formats.CurrentVXSVersion,
		DocumentID: s.id,
		Layers:     make([]formats.LayerRecord, 0, len(s.layers)),
	}
	for _, l := range s.layers {
		snap.Layers = append(snap.Layers, formats.LayerRecord{
			ID:      l.ID,
			Name:    l.Name,
			Visible: l.Visible,
			Voxels:  unselected(l.Voxels()),
		})
	}
	return snap
}

// Restore replaces the contents of the store with snap and clears the
// history. On error the store is left unchanged. Restore fails with ErrFrozen
// while the history is frozen.
func (s *Store) Restore(snap *formats.Snapshot) error {
	return s.update(func() error {
		if s.history.Frozen() {
			return ErrFrozen
		}

		layers := make([]*voxel.Layer, 0, len(snap.Layers))
		owner := make(map[voxel.ID]voxel.LayerID)
		nextVoxel, nextLayer := s.nextVoxel, s.nextLayer

		for _, rec := range snap.Layers {
			for _, l := range layers {
				if l.ID == rec.ID {
					return fmt.Errorf("restore: duplicate layer id %d", rec.ID)
				}
			}
			l := voxel.NewLayer(rec.ID, rec.Name, s.opts)
			l.Visible = rec.Visible
			for _, v := range rec.Voxels {
				if _, dup := owner[v.ID]; dup {
					return fmt.Errorf("restore layer %d: %w: %d", rec.ID, voxel.ErrDuplicateID, v.ID)
				}
				v.Selected = false
				if err := l.AddVoxel(v); err != nil {
					return fmt.Errorf("restore layer %d: %w", rec.ID, err)
				}
				owner[v.ID] = rec.ID
				nextVoxel = max(nextVoxel, v.ID+1)
			}
			layers = append(layers, l)
			nextLayer = max(nextLayer, rec.ID+1)
		}

		s.layers = layers
		s.owner = owner
		s.nextVoxel = nextVoxel
		s.nextLayer = nextLayer
		if snap.DocumentID != uuid.Nil {
			s.id = snap.DocumentID
		}
		s.history.Clear()

		s.log.Info("snapshot restored",
			zap.Stringer("document", s.id),
			zap.Int("layers", len(layers)),
			zap.Int("voxels", len(owner)))
		return nil
	})
}
