package interval

import (
	"errors"
	"fmt"
	"math"
)

// ErrCorruptTree is returned by CheckInvariants when the tree structure is inconsistent.
var ErrCorruptTree = errors.New("interval tree corrupt")

// CheckInvariants verifies the red-black properties, the maxEnd
// augmentation, key ordering, parent links and record counts.
func (t *Tree[V]) CheckInvariants() error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	sentinel := t.arena.storage[nilHandle]
	if sentinel.color != black || !math.IsInf(sentinel.maxEnd, -1) {
		return fmt.Errorf("%w: sentinel modified", ErrCorruptTree)
	}

	if t.root == nilHandle {
		if t.size != 0 {
			return fmt.Errorf("%w: empty tree reports %d records", ErrCorruptTree, t.size)
		}

		return nil
	}

	if t.arena.storage[t.root].color != black {
		return fmt.Errorf("%w: red root", ErrCorruptTree)
	}

	if t.arena.storage[t.root].parent != nilHandle {
		return fmt.Errorf("%w: root has a parent", ErrCorruptTree)
	}

	records := 0

	_, err := t.checkNode(t.root, &records)
	if err != nil {
		return err
	}

	if records != t.size || t.index.Len() != t.size {
		return fmt.Errorf("%w: size %d, counted %d, indexed %d", ErrCorruptTree, t.size, records, t.index.Len())
	}

	return nil
}

// checkNode returns the black height of the subtree rooted at nodeIdx.
func (t *Tree[V]) checkNode(nodeIdx handle, records *int) (int, error) {
	if nodeIdx == nilHandle {
		return 1, nil
	}

	storage := t.arena.storage
	nd := storage[nodeIdx]

	if len(nd.records) == 0 {
		return 0, fmt.Errorf("%w: node %s holds no records", ErrCorruptTree, Interval{nd.start, nd.end})
	}

	*records += len(nd.records)

	for _, rec := range nd.records {
		if rec.Start != nd.start || rec.End != nd.end {
			return 0, fmt.Errorf("%w: record %s in node %s", ErrCorruptTree, rec.Interval, Interval{nd.start, nd.end})
		}
	}

	if nd.color == red && (storage[nd.left].color == red || storage[nd.right].color == red) {
		return 0, fmt.Errorf("%w: red node %s has a red child", ErrCorruptTree, Interval{nd.start, nd.end})
	}

	for _, child := range []handle{nd.left, nd.right} {
		if child != nilHandle && storage[child].parent != nodeIdx {
			return 0, fmt.Errorf("%w: broken parent link under %s", ErrCorruptTree, Interval{nd.start, nd.end})
		}
	}

	if nd.left != nilHandle && compareKey(storage[nd.left].start, storage[nd.left].end, nd.start, nd.end) >= 0 {
		return 0, fmt.Errorf("%w: left child out of order at %s", ErrCorruptTree, Interval{nd.start, nd.end})
	}

	if nd.right != nilHandle && compareKey(storage[nd.right].start, storage[nd.right].end, nd.start, nd.end) <= 0 {
		return 0, fmt.Errorf("%w: right child out of order at %s", ErrCorruptTree, Interval{nd.start, nd.end})
	}

	want := max(nd.end, storage[nd.left].maxEnd, storage[nd.right].maxEnd)
	if nd.maxEnd != want {
		return 0, fmt.Errorf("%w: maxEnd %g at %s, want %g", ErrCorruptTree, nd.maxEnd, Interval{nd.start, nd.end}, want)
	}

	leftHeight, err := t.checkNode(nd.left, records)
	if err != nil {
		return 0, err
	}

	rightHeight, err := t.checkNode(nd.right, records)
	if err != nil {
		return 0, err
	}

	if leftHeight != rightHeight {
		return 0, fmt.Errorf("%w: black height %d/%d at %s", ErrCorruptTree, leftHeight, rightHeight, Interval{nd.start, nd.end})
	}

	if nd.color == black {
		leftHeight++
	}

	return leftHeight, nil
}
