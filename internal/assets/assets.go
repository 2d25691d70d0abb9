// Package assets handles VXS snapshot lookup and caching.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Faultbox/voxforge/pkg/formats"
)

// ErrSnapshotNotFound is returned when no directory holds the requested snapshot.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Extension is the file extension of VXS snapshots.
const Extension = ".vxs"

// Manager loads snapshots from a list of directories.
// Snapshots returned by Load are shared through the cache and must not be modified.
type Manager struct {
	dirs  []string
	cache *Cache
	mu    sync.RWMutex
}

// NewManager creates a new snapshot manager.
func NewManager() *Manager {
	return &Manager{
		cache: NewCache(),
	}
}

// AddDir adds a snapshot directory.
// Directories are searched in reverse order (last added = highest priority).
func (m *Manager) AddDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("adding snapshot dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("adding snapshot dir %s: not a directory", dir)
	}

	m.mu.Lock()
	m.dirs = append(m.dirs, dir)
	m.mu.Unlock()

	return nil
}

// Load returns the snapshot stored under name. Absolute paths are read
// directly; other names are resolved against the directories.
func (m *Manager) Load(name string) (*formats.Snapshot, error) {
	path, info, err := m.resolve(name)
	if err != nil {
		return nil, err
	}

	// Check cache first
	if snap, ok := m.cache.Get(path, info.ModTime()); ok {
		return snap, nil
	}

	snap, err := formats.ParseVXSFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	m.cache.Set(path, info.ModTime(), snap)
	return snap, nil
}

// Path returns the file a name resolves to.
func (m *Manager) Path(name string) (string, error) {
	path, _, err := m.resolve(name)
	return path, err
}

func (m *Manager) resolve(name string) (string, os.FileInfo, error) {
	if filepath.IsAbs(name) {
		info, err := os.Stat(name)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, name)
		}
		return name, info, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	// Search directories in reverse order
	for i := len(m.dirs) - 1; i >= 0; i-- {
		path := filepath.Join(m.dirs[i], name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, info, nil
		}
	}
	return "", nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, name)
}

// List returns the names of all snapshots in the directories, sorted.
// A name found in several directories is listed once.
func (m *Manager) List() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for _, dir := range m.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), Extension) {
				continue
			}
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}

// Stats returns cache statistics.
func (m *Manager) Stats() (hits, misses int) {
	return m.cache.Stats()
}

// Close forgets all directories and cached snapshots.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.dirs = nil
	m.cache.Clear()
}

// Cache is a simple in-memory cache of parsed snapshots keyed by path.
// An entry is stale once the file's modification time changes.
type Cache struct {
	data map[string]cacheEntry
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

type cacheEntry struct {
	modTime time.Time
	snap    *formats.Snapshot
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]cacheEntry),
	}
}

// Get retrieves a snapshot cached for path at the given modification time.
func (c *Cache) Get(path string, modTime time.Time) (*formats.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[path]
	ok = ok && e.modTime.Equal(modTime)
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return e.snap, ok
}

// Set stores a snapshot in cache.
func (c *Cache) Set(path string, modTime time.Time, snap *formats.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[path] = cacheEntry{modTime: modTime, snap: snap}
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]cacheEntry)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
