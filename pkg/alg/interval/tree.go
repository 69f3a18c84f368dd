package interval

import (
	"slices"
	"sync"
)

// Tree is an augmented interval tree of Records keyed by (Start, End).
//
// Records with an identical key share one node. Mutations take an exclusive
// lock and searches a shared one, so a built tree can serve concurrent
// readers; interleaving writers with live snapshot queries is still the
// caller's responsibility.
type Tree[V any] struct {
	mu    sync.RWMutex
	arena *arena[V]
	index *Index[V]
	root  handle
	size  int
}

// NewTree creates an empty interval tree.
func NewTree[V any]() *Tree[V] {
	return &Tree[V]{
		arena: newArena[V](),
		index: NewIndex[V](),
	}
}

// Len returns the number of records in the tree.
func (t *Tree[V]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.size
}

// NodeCount returns the number of distinct (Start, End) keys.
func (t *Tree[V]) NodeCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.arena.used()
}

// Clear removes all records from the tree and its index.
func (t *Tree[V]) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.arena.reset()
	t.index.Clear()
	t.root = nilHandle
	t.size = 0
}

// Insert adds rec under entity. A record whose key already exists joins that
// node; otherwise a new red leaf is linked and the tree rebalanced.
// A record is stored at most once: inserting it again is a no-op.
func (t *Tree[V]) Insert(rec *Record[V], entity string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, stored := t.index.EntityOf(rec); stored {
		return
	}

	t.insert(rec)
	t.index.Add(entity, rec)
}

// Remove unlinks the (rec, entity) pair from the tree and the index.
// It returns false, changing nothing, when the pair is not stored.
func (t *Tree[V]) Remove(rec *Record[V], entity string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.index.Contains(entity, rec) {
		return false
	}

	nodeIdx := t.find(rec.Start, rec.End)
	if nodeIdx == nilHandle {
		return false
	}

	storage := t.arena.storage

	pos := slices.Index(storage[nodeIdx].records, rec)
	if pos < 0 {
		return false
	}

	t.index.Remove(entity, rec)
	t.size--

	if len(storage[nodeIdx].records) > 1 {
		storage[nodeIdx].records = slices.Delete(storage[nodeIdx].records, pos, pos+1)

		return true
	}

	t.deleteNode(nodeIdx)

	return true
}

// Find returns the records stored under the exact key [start, end).
func (t *Tree[V]) Find(start, end float64) []*Record[V] {
	t.mu.RLock()
	defer t.mu.RUnlock()

	nodeIdx := t.find(start, end)
	if nodeIdx == nilHandle {
		return nil
	}

	return slices.Clone(t.arena.storage[nodeIdx].records)
}

// RecordsFor returns the records inserted for entity, in insertion order.
func (t *Tree[V]) RecordsFor(entity string) []*Record[V] {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.index.Records(entity)
}

// Entities returns every entity with at least one record, sorted.
func (t *Tree[V]) Entities() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.index.Entities()
}

// EntityOf returns the entity rec was inserted under.
func (t *Tree[V]) EntityOf(rec *Record[V]) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.index.EntityOf(rec)
}

// insert links rec into the tree. Caller holds the write lock.
func (t *Tree[V]) insert(rec *Record[V]) {
	storage := t.arena.storage
	parent := nilHandle
	cursor := t.root
	cmp := 0

	for cursor != nilHandle {
		cmp = compareKey(rec.Start, rec.End, storage[cursor].start, storage[cursor].end)
		if cmp == 0 {
			storage[cursor].records = append(storage[cursor].records, rec)
			t.size++

			return
		}

		parent = cursor

		if cmp < 0 {
			cursor = storage[cursor].left
		} else {
			cursor = storage[cursor].right
		}
	}

	nodeIdx := t.arena.malloc()
	storage = t.arena.storage
	storage[nodeIdx] = node[V]{
		start:   rec.Start,
		end:     rec.End,
		maxEnd:  rec.End,
		records: []*Record[V]{rec},
		parent:  parent,
		color:   red,
	}

	switch {
	case parent == nilHandle:
		t.root = nodeIdx
	case cmp < 0:
		storage[parent].left = nodeIdx
	default:
		storage[parent].right = nodeIdx
	}

	// maxEnd only grows on insertion; stop at the first ancestor that already covers it.
	for cursor = parent; cursor != nilHandle && storage[cursor].maxEnd < rec.End; cursor = storage[cursor].parent {
		storage[cursor].maxEnd = rec.End
	}

	t.size++
	t.insertFixup(nodeIdx)
}

// find locates the node with the exact key.
func (t *Tree[V]) find(start, end float64) handle {
	storage := t.arena.storage
	cursor := t.root

	for cursor != nilHandle {
		cmp := compareKey(start, end, storage[cursor].start, storage[cursor].end)

		switch {
		case cmp == 0:
			return cursor
		case cmp < 0:
			cursor = storage[cursor].left
		default:
			cursor = storage[cursor].right
		}
	}

	return nilHandle
}

// deleteNode removes nodeIdx from the tree structure and frees it.
func (t *Tree[V]) deleteNode(nodeIdx handle) {
	storage := t.arena.storage

	if storage[nodeIdx].left != nilHandle && storage[nodeIdx].right != nilHandle {
		// Splice: move the in-order successor's payload here, then delete the successor.
		succ := t.minimum(storage[nodeIdx].right)
		storage[nodeIdx].start = storage[succ].start
		storage[nodeIdx].end = storage[succ].end
		storage[nodeIdx].records = storage[succ].records
		t.propagateMaxEnd(nodeIdx)

		nodeIdx = succ
	}

	child := storage[nodeIdx].left
	if child == nilHandle {
		child = storage[nodeIdx].right
	}

	switch {
	case child != nilHandle:
		// A node with exactly one child is black and the child is a red leaf.
		t.replace(nodeIdx, child)
		storage[child].color = black
		t.propagateMaxEnd(storage[child].parent)
	case nodeIdx == t.root:
		t.root = nilHandle
	default:
		if storage[nodeIdx].color == black {
			t.deleteFixup(nodeIdx)
		}

		parent := storage[nodeIdx].parent
		if storage[parent].left == nodeIdx {
			storage[parent].left = nilHandle
		} else {
			storage[parent].right = nilHandle
		}

		t.propagateMaxEnd(parent)
	}

	t.arena.free(nodeIdx)
}

// replace puts newIdx where oldIdx hangs from its parent.
func (t *Tree[V]) replace(oldIdx, newIdx handle) {
	storage := t.arena.storage
	parent := storage[oldIdx].parent

	switch {
	case parent == nilHandle:
		t.root = newIdx
	case storage[parent].left == oldIdx:
		storage[parent].left = newIdx
	default:
		storage[parent].right = newIdx
	}

	if newIdx != nilHandle {
		storage[newIdx].parent = parent
	}
}

// minimum returns the leftmost node under nodeIdx.
func (t *Tree[V]) minimum(nodeIdx handle) handle {
	storage := t.arena.storage

	for storage[nodeIdx].left != nilHandle {
		nodeIdx = storage[nodeIdx].left
	}

	return nodeIdx
}

// recalcMaxEnd recomputes a node's maxEnd from its own end and children.
func (t *Tree[V]) recalcMaxEnd(nodeIdx handle) {
	storage := t.arena.storage
	nd := &storage[nodeIdx]

	nd.maxEnd = max(nd.end, storage[nd.left].maxEnd, storage[nd.right].maxEnd)
}

// propagateMaxEnd recalculates maxEnd from nodeIdx up to the root.
func (t *Tree[V]) propagateMaxEnd(nodeIdx handle) {
	for nodeIdx != nilHandle {
		t.recalcMaxEnd(nodeIdx)
		nodeIdx = t.arena.storage[nodeIdx].parent
	}
}
