package rtree

import "math"

// split divides the overflowing node n using Guttman's quadratic split.
// n keeps the first group; the second group moves to a new sibling whose index is returned.
func (t *Tree[T]) split(n int) int {
	entries := t.nodes[n].entries
	s1, s2 := pickSeeds(entries)

	g1 := make([]entry[T], 0, t.maxEntries+1)
	g2 := make([]entry[T], 0, t.maxEntries+1)
	g1 = append(g1, entries[s1])
	g2 = append(g2, entries[s2])
	r1 := entries[s1].rect.clone()
	r2 := entries[s2].rect.clone()

	rest := make([]entry[T], 0, len(entries)-2)
	for i, e := range entries {
		if i != s1 && i != s2 {
			rest = append(rest, e)
		}
	}

	for len(rest) > 0 {
		// A group that needs every remaining entry to reach minimum fill takes them all.
		if len(g1)+len(rest) <= t.minEntries {
			g1 = append(g1, rest...)
			break
		}
		if len(g2)+len(rest) <= t.minEntries {
			g2 = append(g2, rest...)
			break
		}

		i, d1, d2 := pickNext(rest, r1, r2)
		e := rest[i]
		rest[i] = rest[len(rest)-1]
		rest = rest[:len(rest)-1]

		if preferFirst(d1, d2, r1, r2, len(g1), len(g2)) {
			g1 = append(g1, e)
			r1.extend(e.rect)
		} else {
			g2 = append(g2, e)
			r2.extend(e.rect)
		}
	}

	leaf := t.nodes[n].leaf
	parent := t.nodes[n].parent
	t.nodes[n].entries = g1

	sibling := t.alloc(leaf, parent)
	t.nodes[sibling].entries = g2
	if !leaf {
		for _, e := range g2 {
			t.nodes[e.child].parent = sibling
		}
	}
	return sibling
}

// pickSeeds returns the pair of entries that would waste the most space
// if grouped together.
func pickSeeds[T comparable](entries []entry[T]) (int, int) {
	s1, s2 := 0, 1
	bestArea, bestMargin := math.Inf(-1), math.Inf(-1)
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			a, b := entries[i].rect, entries[j].rect
			u := a.Union(b)
			area := u.Area() - a.Area() - b.Area()
			margin := u.Margin() - a.Margin() - b.Margin()
			if area > bestArea || (area == bestArea && margin > bestMargin) {
				s1, s2 = i, j
				bestArea, bestMargin = area, margin
			}
		}
	}
	return s1, s2
}

// pickNext returns the entry with the strongest preference for one group,
// along with its enlargement cost for each group.
func pickNext[T comparable](rest []entry[T], r1, r2 Rect) (int, growth, growth) {
	best := -1
	var bestD1, bestD2 growth
	var bestDiff growth
	for i, e := range rest {
		d1 := enlargement(r1, e.rect)
		d2 := enlargement(r2, e.rect)
		diff := growth{
			area:   math.Abs(d1.area - d2.area),
			margin: math.Abs(d1.margin - d2.margin),
		}
		if best < 0 || bestDiff.less(diff) {
			best, bestD1, bestD2, bestDiff = i, d1, d2, diff
		}
	}
	return best, bestD1, bestD2
}

// preferFirst decides group membership: least enlargement, then smaller box,
// then fewer entries.
func preferFirst(d1, d2 growth, r1, r2 Rect, n1, n2 int) bool {
	if d1.less(d2) {
		return true
	}
	if d2.less(d1) {
		return false
	}
	if a1, a2 := r1.Area(), r2.Area(); a1 != a2 {
		return a1 < a2
	}
	if m1, m2 := r1.Margin(), r2.Margin(); m1 != m2 {
		return m1 < m2
	}
	return n1 <= n2
}
