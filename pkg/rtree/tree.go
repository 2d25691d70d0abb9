// Package rtree implements an in-memory R-tree over axis-aligned boxes.
//
// Nodes live in a flat arena and refer to each other by index, so splits,
// merges and reinsertion never juggle pointers. A Tree is not safe for
// concurrent use.
package rtree

import (
	"fmt"
)

// DefaultMaxEntries is the node capacity used when Options.MaxEntries is zero.
const DefaultMaxEntries = 50

// Options configures node fill limits.
type Options struct {
	MaxEntries int // Node capacity M (0 = DefaultMaxEntries)
	MinEntries int // Minimum fill m for non-root nodes (0 = 40% of M)
}

// limits validates the options and fills in defaults.
func (o Options) limits() (maxEntries, minEntries int) {
	maxEntries = o.MaxEntries
	if maxEntries == 0 {
		maxEntries = DefaultMaxEntries
	}
	if maxEntries < 2 {
		panic(fmt.Sprintf("rtree: max entries must be at least 2, got %d", maxEntries))
	}

	minEntries = o.MinEntries
	if minEntries == 0 {
		minEntries = max(1, maxEntries*40/100)
	}
	if minEntries < 1 || minEntries > maxEntries/2 {
		panic(fmt.Sprintf("rtree: min entries must be in [1, %d], got %d", maxEntries/2, minEntries))
	}
	return maxEntries, minEntries
}

// entry is a slot in a node. Branch entries point at a child node,
// leaf entries carry a value.
type entry[T comparable] struct {
	rect  Rect
	child int
	value T
}

type node[T comparable] struct {
	leaf    bool
	parent  int // -1 for the root and for free slots
	entries []entry[T]
}

// Tree maps boxes to values.
type Tree[T comparable] struct {
	dims       int
	maxEntries int
	minEntries int

	nodes []node[T]
	free  []int
	root  int
	size  int
}

// New creates an empty tree over dims-dimensional space.
// It panics if dims is not positive or opts are inconsistent.
func New[T comparable](dims int, opts Options) *Tree[T] {
	if dims < 1 {
		panic(fmt.Sprintf("rtree: dimensionality must be positive, got %d", dims))
	}
	maxEntries, minEntries := opts.limits()
	t := &Tree[T]{
		dims:       dims,
		maxEntries: maxEntries,
		minEntries: minEntries,
	}
	t.Clear()
	return t
}

// Dims returns the dimensionality of the tree.
func (t *Tree[T]) Dims() int {
	return t.dims
}

// Len returns the number of stored entries.
func (t *Tree[T]) Len() int {
	return t.size
}

// Clear removes every entry.
func (t *Tree[T]) Clear() {
	t.nodes = nil
	t.free = nil
	t.size = 0
	t.root = t.alloc(true, -1)
}

// Bounds returns the box covering every entry.
// The second result is false when the tree is empty.
func (t *Tree[T]) Bounds() (Rect, bool) {
	if t.size == 0 {
		return Rect{}, false
	}
	return t.bounds(t.root), true
}

// Insert stores value under the box centered on center with the given half extent.
// A zero half extent stores a point. Duplicate (box, value) pairs are not rejected.
func (t *Tree[T]) Insert(center, halfExtent []float64, value T) {
	r := Box(center, halfExtent)
	t.check(r)
	t.insert(r, value)
	t.size++
}

// Delete removes one entry whose box and value match exactly.
// It reports whether an entry was found.
func (t *Tree[T]) Delete(center, halfExtent []float64, value T) bool {
	r := Box(center, halfExtent)
	t.check(r)

	leaf, i := t.findLeaf(t.root, r, value)
	if leaf < 0 {
		return false
	}
	t.nodes[leaf].entries = removeEntry(t.nodes[leaf].entries, i)
	t.size--
	t.condense(leaf)

	// Collapse a root left with a single branch.
	for !t.nodes[t.root].leaf && len(t.nodes[t.root].entries) == 1 {
		old := t.root
		t.root = t.nodes[old].entries[0].child
		t.nodes[t.root].parent = -1
		t.release(old)
	}
	return true
}

// Search returns the values whose boxes overlap the box centered on center.
func (t *Tree[T]) Search(center, halfExtent []float64) []T {
	return t.SearchRect(Box(center, halfExtent))
}

// SearchRect returns the values whose boxes overlap r.
func (t *Tree[T]) SearchRect(r Rect) []T {
	t.check(r)

	var out []T
	stack := []int{t.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		nd := &t.nodes[n]
		for _, e := range nd.entries {
			if !e.rect.Overlaps(r) {
				continue
			}
			if nd.leaf {
				out = append(out, e.value)
			} else {
				stack = append(stack, e.child)
			}
		}
	}
	return out
}

// check panics when r does not match the tree dimensionality.
func (t *Tree[T]) check(r Rect) {
	if len(r.Min) != t.dims || len(r.Max) != t.dims {
		panic(fmt.Sprintf("rtree: rect has %d dimensions, tree has %d", len(r.Min), t.dims))
	}
}

func (t *Tree[T]) alloc(leaf bool, parent int) int {
	n := node[T]{
		leaf:    leaf,
		parent:  parent,
		entries: make([]entry[T], 0, t.maxEntries+1),
	}
	if k := len(t.free); k > 0 {
		idx := t.free[k-1]
		t.free = t.free[:k-1]
		t.nodes[idx] = n
		return idx
	}
	t.nodes = append(t.nodes, n)
	return len(t.nodes) - 1
}

func (t *Tree[T]) release(idx int) {
	t.nodes[idx] = node[T]{parent: -1}
	t.free = append(t.free, idx)
}

// bounds computes the tight box of a non-empty node.
func (t *Tree[T]) bounds(n int) Rect {
	entries := t.nodes[n].entries
	if len(entries) == 0 {
		return Rect{}
	}
	r := entries[0].rect.clone()
	for _, e := range entries[1:] {
		r.extend(e.rect)
	}
	return r
}

// slot returns the index of child's entry inside parent.
func (t *Tree[T]) slot(parent, child int) int {
	for i, e := range t.nodes[parent].entries {
		if e.child == child {
			return i
		}
	}
	panic(fmt.Sprintf("rtree: node %d is not a child of %d", child, parent))
}

// insert places a leaf entry without touching the size counter.
func (t *Tree[T]) insert(r Rect, value T) {
	leaf := t.chooseLeaf(r)
	t.nodes[leaf].entries = append(t.nodes[leaf].entries, entry[T]{rect: r, child: -1, value: value})
	t.adjust(leaf)
}

// chooseLeaf descends through the child needing the least enlargement,
// preferring the smaller box on ties.
func (t *Tree[T]) chooseLeaf(r Rect) int {
	n := t.root
	for !t.nodes[n].leaf {
		entries := t.nodes[n].entries
		best := 0
		bestGrow := enlargement(entries[0].rect, r)
		bestArea := entries[0].rect.Area()
		for i := 1; i < len(entries); i++ {
			g := enlargement(entries[i].rect, r)
			a := entries[i].rect.Area()
			switch {
			case g.area < bestGrow.area:
			case g.area == bestGrow.area && a < bestArea:
			case g.area == bestGrow.area && a == bestArea && g.margin < bestGrow.margin:
			default:
				continue
			}
			best, bestGrow, bestArea = i, g, a
		}
		n = entries[best].child
	}
	return n
}

// adjust walks from n to the root, splitting overflowing nodes and
// tightening the boxes stored in each parent.
func (t *Tree[T]) adjust(n int) {
	for {
		sibling := -1
		if len(t.nodes[n].entries) > t.maxEntries {
			sibling = t.split(n)
		}

		p := t.nodes[n].parent
		if p < 0 {
			if sibling >= 0 {
				root := t.alloc(false, -1)
				t.nodes[root].entries = append(t.nodes[root].entries,
					entry[T]{rect: t.bounds(n), child: n},
					entry[T]{rect: t.bounds(sibling), child: sibling},
				)
				t.nodes[n].parent = root
				t.nodes[sibling].parent = root
				t.root = root
			}
			return
		}

		t.nodes[p].entries[t.slot(p, n)].rect = t.bounds(n)
		if sibling >= 0 {
			t.nodes[sibling].parent = p
			t.nodes[p].entries = append(t.nodes[p].entries, entry[T]{rect: t.bounds(sibling), child: sibling})
		}
		n = p
	}
}

// findLeaf locates the leaf entry holding exactly (r, value).
func (t *Tree[T]) findLeaf(n int, r Rect, value T) (int, int) {
	nd := &t.nodes[n]
	if nd.leaf {
		for i, e := range nd.entries {
			if e.value == value && e.rect.Equal(r) {
				return n, i
			}
		}
		return -1, -1
	}
	for _, e := range nd.entries {
		if !e.rect.Contains(r) {
			continue
		}
		if leaf, i := t.findLeaf(e.child, r, value); leaf >= 0 {
			return leaf, i
		}
	}
	return -1, -1
}

// condense unlinks underfull nodes on the path from n to the root,
// shrinks the remaining ancestor boxes and reinserts orphaned values.
func (t *Tree[T]) condense(n int) {
	var orphans []entry[T]
	for n != t.root {
		p := t.nodes[n].parent
		i := t.slot(p, n)
		if len(t.nodes[n].entries) < t.minEntries {
			t.nodes[p].entries = removeEntry(t.nodes[p].entries, i)
			orphans = t.collect(n, orphans)
		} else {
			t.nodes[p].entries[i].rect = t.bounds(n)
		}
		n = p
	}

	if !t.nodes[t.root].leaf && len(t.nodes[t.root].entries) == 0 {
		t.nodes[t.root].leaf = true
	}
	for _, e := range orphans {
		t.insert(e.rect, e.value)
	}
}

// collect appends every leaf entry below n to out and frees the subtree.
func (t *Tree[T]) collect(n int, out []entry[T]) []entry[T] {
	if t.nodes[n].leaf {
		out = append(out, t.nodes[n].entries...)
	} else {
		for _, e := range t.nodes[n].entries {
			out = t.collect(e.child, out)
		}
	}
	t.release(n)
	return out
}

func removeEntry[T comparable](entries []entry[T], i int) []entry[T] {
	last := len(entries) - 1
	copy(entries[i:], entries[i+1:])
	entries[last] = entry[T]{}
	return entries[:last]
}
