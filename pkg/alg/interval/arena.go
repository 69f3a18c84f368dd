package interval

import "math"

// handle addresses a node inside an arena. Zero is reserved for the sentinel.
type handle uint32

const nilHandle handle = 0

// maxHandle bounds the arena size; math.MaxUint32 stays unused.
const maxHandle = math.MaxUint32 - 1

// nodeColor is the red-black node color.
type nodeColor bool

// Red-black tree color constants.
const (
	red   nodeColor = false
	black nodeColor = true
)

// node is an arena-resident red-black node augmented with maxEnd.
type node[V any] struct {
	start, end float64
	maxEnd     float64
	records    []*Record[V]

	parent, left, right handle
	color               nodeColor
}

// arena owns the nodes of one Tree. Freed slots are recycled through gaps.
type arena[V any] struct {
	storage []node[V]
	gaps    []handle
}

func newArena[V any]() *arena[V] {
	return &arena[V]{storage: []node[V]{sentinelNode[V]()}}
}

// sentinelNode is the shared nil leaf: black, with no subtree end.
func sentinelNode[V any]() node[V] {
	return node[V]{maxEnd: math.Inf(-1), color: black}
}

// used returns the number of live nodes.
func (a *arena[V]) used() int {
	return len(a.storage) - 1 - len(a.gaps)
}

func (a *arena[V]) malloc() handle {
	if n := len(a.gaps); n > 0 {
		h := a.gaps[n-1]
		a.gaps = a.gaps[:n-1]

		return h
	}

	doAssert(len(a.storage) < maxHandle)

	a.storage = append(a.storage, node[V]{})

	return handle(len(a.storage) - 1)
}

func (a *arena[V]) free(h handle) {
	doAssert(h != nilHandle)

	a.storage[h] = node[V]{}
	a.gaps = append(a.gaps, h)
}

func (a *arena[V]) reset() {
	clear(a.storage[1:])
	a.storage = a.storage[:1]
	a.storage[nilHandle] = sentinelNode[V]()
	a.gaps = a.gaps[:0]
}

func doAssert(condition bool) {
	if !condition {
		panic("interval tree internal assertion failed")
	}
}
