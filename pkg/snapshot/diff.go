package snapshot

import (
	"cmp"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/timegraph/pkg/alg/interval"
)

// Delta describes what one SetInterval call changed. Ids are sorted.
type Delta struct {
	Query interval.Interval `json:"query"`

	NodesAdded   []string `json:"nodes_added,omitempty"`
	NodesRemoved []string `json:"nodes_removed,omitempty"`
	EdgesAdded   []string `json:"edges_added,omitempty"`
	EdgesRemoved []string `json:"edges_removed,omitempty"`

	// RecordsOn and RecordsOff count records, across all tracked trees,
	// that entered or left the query result.
	RecordsOn  int `json:"records_on"`
	RecordsOff int `json:"records_off"`

	// Nodes and Edges are the snapshot sizes after the change.
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`
}

// Empty reports whether the snapshot's node and edge sets did not change.
func (d Delta) Empty() bool {
	return len(d.NodesAdded) == 0 && len(d.NodesRemoved) == 0 &&
		len(d.EdgesAdded) == 0 && len(d.EdgesRemoved) == 0
}

// Diff returns the records of prev missing from next (turned off) and the
// records of next missing from prev (turned on), compared by identity.
// Both results keep the order of their input.
func Diff[V any](prev, next []*interval.Record[V]) (off, on []*interval.Record[V]) {
	inPrev := make(map[*interval.Record[V]]struct{}, len(prev))
	for _, rec := range prev {
		inPrev[rec] = struct{}{}
	}

	inNext := make(map[*interval.Record[V]]struct{}, len(next))
	for _, rec := range next {
		inNext[rec] = struct{}{}
	}

	for _, rec := range prev {
		if _, ok := inNext[rec]; !ok {
			off = append(off, rec)
		}
	}

	for _, rec := range next {
		if _, ok := inPrev[rec]; !ok {
			on = append(on, rec)
		}
	}

	return off, on
}

// change is one record entering or leaving the result set of a tree.
type change[V any] struct {
	rec    *interval.Record[V]
	entity string
}

// recordDiff is the staged difference for one tree, plus the result set it
// leads to.
type recordDiff[V any] struct {
	off  []change[V]
	on   []change[V]
	next map[*interval.Record[V]]string
}

// plan is everything SetInterval will apply, computed without touching state.
type plan struct {
	query   interval.Interval
	nodes   recordDiff[bool]
	edges   recordDiff[bool]
	weights recordDiff[any]
	ends    map[string]Endpoints
}

// diffResults compares the last applied result set with a fresh search
// result. Records rejected by keep are treated as absent. Entities are
// resolved once, when a record first appears, so records removed from the
// tree since the last call still turn off under their original entity.
func diffResults[V any](
	prev map[*interval.Record[V]]string,
	results []*interval.Record[V],
	entityOf func(*interval.Record[V]) (string, bool),
	keep func(*interval.Record[V]) bool,
) recordDiff[V] {
	d := recordDiff[V]{next: make(map[*interval.Record[V]]string, len(results))}

	for _, rec := range results {
		if !keep(rec) {
			continue
		}

		if entity, ok := prev[rec]; ok {
			d.next[rec] = entity

			continue
		}

		entity, ok := entityOf(rec)
		if !ok {
			continue
		}

		d.next[rec] = entity
		d.on = append(d.on, change[V]{rec: rec, entity: entity})
	}

	for rec, entity := range prev {
		if _, ok := d.next[rec]; !ok {
			d.off = append(d.off, change[V]{rec: rec, entity: entity})
		}
	}

	slices.SortFunc(d.off, compareChange[V])

	return d
}

func compareChange[V any](a, b change[V]) int {
	return cmp.Or(
		strings.Compare(a.entity, b.entity),
		cmp.Compare(a.rec.Start, b.rec.Start),
		cmp.Compare(a.rec.End, b.rec.End),
	)
}

// deltaBuilder accumulates net changes: an id removed and re-added within one
// call (or the reverse) cancels out.
type deltaBuilder struct {
	added   map[string]struct{}
	removed map[string]struct{}
}

func newDeltaBuilder() *deltaBuilder {
	return &deltaBuilder{added: make(map[string]struct{}), removed: make(map[string]struct{})}
}

func (b *deltaBuilder) add(id string) {
	if _, ok := b.removed[id]; ok {
		delete(b.removed, id)

		return
	}

	b.added[id] = struct{}{}
}

func (b *deltaBuilder) remove(id string) {
	if _, ok := b.added[id]; ok {
		delete(b.added, id)

		return
	}

	b.removed[id] = struct{}{}
}

func (b *deltaBuilder) result() (added, removed []string) {
	return sortedKeys(b.added), sortedKeys(b.removed)
}

func sortedKeys[V any](m map[string]V) []string {
	if len(m) == 0 {
		return nil
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}
