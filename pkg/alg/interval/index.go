package interval

import (
	"slices"
	"sort"

	"github.com/tidwall/btree"
)

// Index maps entity identifiers (node ids, edge ids) to the records inserted
// for them and keeps the set of finite event times ordered as records come
// and go.
//
// Index is not synchronized; a Tree serializes access to its own Index.
type Index[V any] struct {
	byEntity map[string][]*Record[V]
	owner    map[*Record[V]]string

	times *btree.BTreeG[float64]
	refs  map[float64]int
}

// NewIndex creates an empty index.
func NewIndex[V any]() *Index[V] {
	return &Index[V]{
		byEntity: make(map[string][]*Record[V]),
		owner:    make(map[*Record[V]]string),
		times:    newTimeSet(),
		refs:     make(map[float64]int),
	}
}

func newTimeSet() *btree.BTreeG[float64] {
	return btree.NewBTreeGOptions(func(a, b float64) bool { return a < b }, btree.Options{NoLocks: true})
}

// Add records that rec belongs to entity. It returns false if rec is
// already indexed.
func (idx *Index[V]) Add(entity string, rec *Record[V]) bool {
	if _, ok := idx.owner[rec]; ok {
		return false
	}

	idx.owner[rec] = entity
	idx.byEntity[entity] = append(idx.byEntity[entity], rec)
	idx.retain(rec.Start)
	idx.retain(rec.End)

	return true
}

// Remove forgets the (entity, rec) pair. Unknown pairs are ignored.
func (idx *Index[V]) Remove(entity string, rec *Record[V]) bool {
	if !idx.Contains(entity, rec) {
		return false
	}

	delete(idx.owner, rec)

	records := idx.byEntity[entity]
	if pos := slices.Index(records, rec); pos >= 0 {
		records = slices.Delete(records, pos, pos+1)
	}

	if len(records) == 0 {
		delete(idx.byEntity, entity)
	} else {
		idx.byEntity[entity] = records
	}

	idx.release(rec.Start)
	idx.release(rec.End)

	return true
}

// Contains reports whether rec is indexed under entity.
func (idx *Index[V]) Contains(entity string, rec *Record[V]) bool {
	owner, ok := idx.owner[rec]

	return ok && owner == entity
}

// EntityOf returns the entity rec is indexed under.
func (idx *Index[V]) EntityOf(rec *Record[V]) (string, bool) {
	entity, ok := idx.owner[rec]

	return entity, ok
}

// Records returns a copy of entity's records in insertion order.
func (idx *Index[V]) Records(entity string) []*Record[V] {
	return slices.Clone(idx.byEntity[entity])
}

// Entities returns the indexed entity identifiers, sorted.
func (idx *Index[V]) Entities() []string {
	entities := make([]string, 0, len(idx.byEntity))
	for entity := range idx.byEntity {
		entities = append(entities, entity)
	}

	sort.Strings(entities)

	return entities
}

// Len returns the number of indexed records.
func (idx *Index[V]) Len() int {
	return len(idx.owner)
}

// EventTimes returns every distinct finite Start/End of the indexed records,
// ascending.
func (idx *Index[V]) EventTimes() []float64 {
	times := make([]float64, 0, idx.times.Len())

	idx.times.Scan(func(t float64) bool {
		times = append(times, t)

		return true
	})

	return times
}

// Clear empties the index.
func (idx *Index[V]) Clear() {
	clear(idx.byEntity)
	clear(idx.owner)
	clear(idx.refs)
	idx.times = newTimeSet()
}

func (idx *Index[V]) retain(t float64) {
	if !isFinite(t) {
		return
	}

	idx.refs[t]++
	if idx.refs[t] == 1 {
		idx.times.Set(t)
	}
}

func (idx *Index[V]) release(t float64) {
	if !isFinite(t) {
		return
	}

	idx.refs[t]--
	if idx.refs[t] <= 0 {
		delete(idx.refs, t)
		idx.times.Delete(t)
	}
}
