package interval

import "slices"

// Search returns every record whose range overlaps query, in (Start, End)
// key order.
//
// A subtree is skipped when its maxEnd lies before query.Start, and the right
// subtree of a node is skipped once the node starts after query.End, giving
// O(log N + k).
func (t *Tree[V]) Search(query Interval) []*Record[V] {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.root == nilHandle {
		return nil
	}

	var results []*Record[V]

	t.collectOverlap(t.root, query, &results)

	return results
}

// SearchInstant returns every record active at instant.
func (t *Tree[V]) SearchInstant(instant float64) []*Record[V] {
	return t.Search(Instant(instant))
}

// SearchNot returns every record whose range does not overlap query, in key
// order. It visits the whole tree.
func (t *Tree[V]) SearchNot(query Interval) []*Record[V] {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var results []*Record[V]

	t.walk(t.root, func(nd *node[V]) {
		if !query.Overlaps(Interval{Start: nd.start, End: nd.end}) {
			results = append(results, nd.records...)
		}
	})

	return results
}

// Intervals returns all records in key order.
func (t *Tree[V]) Intervals() []*Record[V] {
	t.mu.RLock()
	defer t.mu.RUnlock()

	results := make([]*Record[V], 0, t.size)

	t.walk(t.root, func(nd *node[V]) {
		results = append(results, nd.records...)
	})

	return results
}

// EventTimes returns the sorted, distinct finite Start and End values of the
// stored records. A non-empty attribute restricts the scan to records whose
// Attribute has that name.
func (t *Tree[V]) EventTimes(attribute string) []float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if attribute == "" {
		return t.index.EventTimes()
	}

	var times []float64

	t.walk(t.root, func(nd *node[V]) {
		for _, rec := range nd.records {
			if rec.Attribute == nil || rec.Attribute.Name != attribute {
				continue
			}

			if isFinite(rec.Start) {
				times = append(times, rec.Start)
			}

			if isFinite(rec.End) {
				times = append(times, rec.End)
			}
		}
	})

	slices.Sort(times)

	return slices.Compact(times)
}

// Bounds returns the smallest Start and the largest End stored.
// ok is false for an empty tree.
func (t *Tree[V]) Bounds() (start, end float64, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.root == nilHandle {
		return 0, 0, false
	}

	storage := t.arena.storage

	return storage[t.minimum(t.root)].start, storage[t.root].maxEnd, true
}

// collectOverlap recursively collects records overlapping query.
func (t *Tree[V]) collectOverlap(nodeIdx handle, query Interval, results *[]*Record[V]) {
	if nodeIdx == nilHandle {
		return
	}

	nd := &t.arena.storage[nodeIdx]

	// Prune: nothing in this subtree ends at or after the query start.
	if nd.maxEnd < query.Start {
		return
	}

	t.collectOverlap(nd.left, query, results)

	if query.Overlaps(Interval{Start: nd.start, End: nd.end}) {
		*results = append(*results, nd.records...)
	}

	// Prune right: every key there starts at or after nd.start.
	if nd.start > query.End {
		return
	}

	t.collectOverlap(nd.right, query, results)
}

// walk visits nodes in key order.
func (t *Tree[V]) walk(nodeIdx handle, visit func(nd *node[V])) {
	if nodeIdx == nilHandle {
		return
	}

	storage := t.arena.storage

	t.walk(storage[nodeIdx].left, visit)
	visit(&storage[nodeIdx])
	t.walk(storage[nodeIdx].right, visit)
}
