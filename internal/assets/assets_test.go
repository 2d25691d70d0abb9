package assets

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/Faultbox/voxforge/pkg/formats"
	"github.com/Faultbox/voxforge/pkg/voxel"
)

func writeSnapshot(t *testing.T, dir, name, layer string) string {
	t.Helper()
	snap := &formats.Snapshot{Layers: []formats.LayerRecord{{ID: 1, Name: layer, Visible: true}}}
	path := filepath.Join(dir, name)
	if err := formats.WriteVXSFile(path, snap, false); err != nil {
		t.Fatalf("failed to write snapshot: %v", err)
	}
	return path
}

func TestLoadSearchesLastDirFirst(t *testing.T) {
	low, high := t.TempDir(), t.TempDir()
	writeSnapshot(t, low, "scene.vxs", "low")
	writeSnapshot(t, high, "scene.vxs", "high")
	writeSnapshot(t, low, "only-low.vxs", "low")

	m := NewManager()
	defer m.Close()
	for _, dir := range []string{low, high} {
		if err := m.AddDir(dir); err != nil {
			t.Fatalf("AddDir failed: %v", err)
		}
	}

	snap, err := m.Load("scene.vxs")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := snap.Layers[0].Name; got != "high" {
		t.Errorf("expected snapshot from the last directory, got layer %q", got)
	}

	snap, err = m.Load("only-low.vxs")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := snap.Layers[0].Name; got != "low" {
		t.Errorf("expected fallback to the first directory, got layer %q", got)
	}

	if _, err := m.Load("missing.vxs"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestLoadAbsolutePath(t *testing.T) {
	path := writeSnapshot(t, t.TempDir(), "abs.vxs", "abs")

	m := NewManager()
	snap, err := m.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if snap.Layers[0].Name != "abs" {
		t.Errorf("unexpected layer %q", snap.Layers[0].Name)
	}
}

func TestLoadUsesCacheUntilFileChanges(t *testing.T) {
	dir := t.TempDir()
	path := writeSnapshot(t, dir, "scene.vxs", "first")

	m := NewManager()
	if err := m.AddDir(dir); err != nil {
		t.Fatalf("AddDir failed: %v", err)
	}

	first, err := m.Load("scene.vxs")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	again, err := m.Load("scene.vxs")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if first != again {
		t.Error("expected the cached snapshot on the second load")
	}
	if hits, misses := m.Stats(); hits != 1 || misses != 1 {
		t.Errorf("expected 1 hit and 1 miss, got %d and %d", hits, misses)
	}

	writeSnapshot(t, dir, "scene.vxs", "second")
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	reloaded, err := m.Load("scene.vxs")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if reloaded.Layers[0].Name != "second" {
		t.Errorf("expected a reparse after modification, got layer %q", reloaded.Layers[0].Name)
	}
}

func TestLoadCorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.vxs"), []byte("not a snapshot at all, really"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	m := NewManager()
	if err := m.AddDir(dir); err != nil {
		t.Fatalf("AddDir failed: %v", err)
	}
	if _, err := m.Load("bad.vxs"); !errors.Is(err, formats.ErrInvalidVXSMagic) {
		t.Errorf("expected ErrInvalidVXSMagic, got %v", err)
	}
}

func TestList(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	writeSnapshot(t, a, "b.vxs", "x")
	writeSnapshot(t, a, "a.VXS", "x")
	writeSnapshot(t, b, "b.vxs", "x")
	if err := os.WriteFile(filepath.Join(b, "notes.txt"), nil, 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	m := NewManager()
	m.AddDir(a)
	m.AddDir(b)

	names, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if want := []string{"a.VXS", "b.vxs"}; !reflect.DeepEqual(names, want) {
		t.Errorf("expected %v, got %v", want, names)
	}
}

func TestAddDirRejectsFiles(t *testing.T) {
	path := writeSnapshot(t, t.TempDir(), "file.vxs", "x")

	m := NewManager()
	if err := m.AddDir(path); err == nil {
		t.Error("expected error adding a file as directory")
	}
	if err := m.AddDir("/nonexistent/snapshots"); err == nil {
		t.Error("expected error adding a missing directory")
	}
}

func TestCacheClear(t *testing.T) {
	c := NewCache()
	now := time.Now()
	c.Set("x", now, &formats.Snapshot{Layers: []formats.LayerRecord{{ID: voxel.LayerID(3)}}})

	if _, ok := c.Get("x", now); !ok {
		t.Error("expected cache hit")
	}
	if _, ok := c.Get("x", now.Add(time.Second)); ok {
		t.Error("expected miss for a different modification time")
	}

	c.Clear()
	if _, ok := c.Get("x", now); ok {
		t.Error("expected miss after Clear")
	}
	if hits, misses := c.Stats(); hits != 0 || misses != 1 {
		t.Errorf("expected stats reset by Clear, got %d hits and %d misses", hits, misses)
	}
}
