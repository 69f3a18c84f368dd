package interval

// childOf returns the left child when left is true, otherwise the right one.
func (t *Tree[V]) childOf(nodeIdx handle, left bool) handle {
	if left {
		return t.arena.storage[nodeIdx].left
	}

	return t.arena.storage[nodeIdx].right
}

// colorOf returns the node color; the sentinel is always black.
func (t *Tree[V]) colorOf(nodeIdx handle) nodeColor {
	return t.arena.storage[nodeIdx].color
}

// insertFixup restores red-black properties after linking a red leaf.
func (t *Tree[V]) insertFixup(nodeIdx handle) {
	storage := t.arena.storage

	for nodeIdx != t.root && storage[storage[nodeIdx].parent].color == red {
		parent := storage[nodeIdx].parent
		grandparent := storage[parent].parent
		leftCase := parent == storage[grandparent].left

		uncle := t.childOf(grandparent, !leftCase)
		if t.colorOf(uncle) == red {
			storage[parent].color = black
			storage[uncle].color = black
			storage[grandparent].color = red
			nodeIdx = grandparent

			continue
		}

		// Inner child: rotate it to the outside first.
		if nodeIdx == t.childOf(parent, !leftCase) {
			nodeIdx = parent
			t.rotate(nodeIdx, leftCase)
			parent = storage[nodeIdx].parent
		}

		storage[parent].color = black
		storage[grandparent].color = red
		t.rotate(grandparent, !leftCase)
	}

	storage[t.root].color = black
}

// deleteFixup resolves the double-black left by removing the black leaf
// nodeIdx. It runs while nodeIdx is still linked, so the sibling of every
// double-black node visited is a real node.
func (t *Tree[V]) deleteFixup(nodeIdx handle) {
	storage := t.arena.storage

	for nodeIdx != t.root && storage[nodeIdx].color == black {
		parent := storage[nodeIdx].parent
		isLeft := nodeIdx == storage[parent].left

		sibling := t.childOf(parent, !isLeft)
		doAssert(sibling != nilHandle)

		if storage[sibling].color == red {
			storage[sibling].color = black
			storage[parent].color = red
			t.rotate(parent, isLeft)
			sibling = t.childOf(parent, !isLeft)
		}

		inner := t.childOf(sibling, isLeft)
		outer := t.childOf(sibling, !isLeft)

		if t.colorOf(inner) == black && t.colorOf(outer) == black {
			storage[sibling].color = red
			nodeIdx = parent

			continue
		}

		if t.colorOf(outer) == black {
			storage[inner].color = black
			storage[sibling].color = red
			t.rotate(sibling, !isLeft)
			sibling = t.childOf(parent, !isLeft)
			outer = t.childOf(sibling, !isLeft)
		}

		storage[sibling].color = storage[parent].color
		storage[parent].color = black
		storage[outer].color = black
		t.rotate(parent, isLeft)

		nodeIdx = t.root
	}

	storage[nodeIdx].color = black
}

// rotate performs a rotation at pivot. When left is true, rotates left;
// otherwise rotates right. Maintains the maxEnd augmentation.
//
// Left rotation:
//
//	  X              Y
//	A   Y    =>    X   C
//	  B C        A B
func (t *Tree[V]) rotate(pivot handle, left bool) {
	storage := t.arena.storage
	child := t.childOf(pivot, !left)
	doAssert(child != nilHandle)

	inner := t.childOf(child, left)

	if left {
		storage[pivot].right = inner
	} else {
		storage[pivot].left = inner
	}

	if inner != nilHandle {
		storage[inner].parent = pivot
	}

	t.replace(pivot, child)

	if left {
		storage[child].left = pivot
	} else {
		storage[child].right = pivot
	}

	storage[pivot].parent = child

	// pivot is now below child: recompute bottom-up.
	t.recalcMaxEnd(pivot)
	t.recalcMaxEnd(child)
}
