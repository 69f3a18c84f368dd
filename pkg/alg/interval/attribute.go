package interval

import (
	"math"
	"reflect"
	"slices"
)

// Attribute is one logical time-varying value, such as "node N exists" or
// "edge E, column weight". It owns a list of records stored in a shared Tree
// and keeps that list free of touching or overlapping equal-value records.
type Attribute[V any] struct {
	Entity string
	Name   string

	tree    *Tree[V]
	records []*Record[V]
}

// NewAttribute binds an attribute of entity to tree.
func NewAttribute[V any](tree *Tree[V], entity, name string) *Attribute[V] {
	return &Attribute[V]{Entity: entity, Name: name, tree: tree}
}

// Add asserts on over [start, end). See AddWithOff.
func (a *Attribute[V]) Add(start, end float64, on V) (*Record[V], error) {
	return a.add(start, end, on, nil)
}

// AddWithOff asserts on over [start, end) and off outside it.
func (a *Attribute[V]) AddWithOff(start, end float64, on, off V) (*Record[V], error) {
	return a.add(start, end, on, &off)
}

// add validates the range, absorbs every equal-value record it touches and
// inserts the merged record into the tree.
func (a *Attribute[V]) add(start, end float64, on V, off *V) (*Record[V], error) {
	merged, err := New(start, end)
	if err != nil {
		return nil, err
	}

	for {
		pos := slices.IndexFunc(a.records, func(rec *Record[V]) bool {
			return rec.Touches(merged) && reflect.DeepEqual(rec.OnValue, on)
		})
		if pos < 0 {
			break
		}

		rec := a.records[pos]
		merged.Start = math.Min(merged.Start, rec.Start)
		merged.End = math.Max(merged.End, rec.End)

		if off == nil && rec.HasOff {
			prev := rec.OffValue
			off = &prev
		}

		a.tree.Remove(rec, a.Entity)
		a.records = slices.Delete(a.records, pos, pos+1)
	}

	rec := &Record[V]{Interval: merged, OnValue: on, Attribute: a}
	if off != nil {
		rec.WithOff(*off)
	}

	a.tree.Insert(rec, a.Entity)

	pos, _ := slices.BinarySearchFunc(a.records, rec, func(x, y *Record[V]) int {
		return compareKey(x.Start, x.End, y.Start, y.End)
	})
	a.records = slices.Insert(a.records, pos, rec)

	return rec, nil
}

// Remove unlinks rec from the attribute, the tree and the tree's index.
func (a *Attribute[V]) Remove(rec *Record[V]) bool {
	pos := slices.Index(a.records, rec)
	if pos < 0 {
		return false
	}

	a.records = slices.Delete(a.records, pos, pos+1)
	a.tree.Remove(rec, a.Entity)

	return true
}

// Clear removes every record of the attribute.
func (a *Attribute[V]) Clear() {
	for _, rec := range a.records {
		a.tree.Remove(rec, a.Entity)
	}

	a.records = nil
}

// Records returns the attribute's records ordered by (Start, End).
func (a *Attribute[V]) Records() []*Record[V] {
	return slices.Clone(a.records)
}

// Len returns the number of records.
func (a *Attribute[V]) Len() int {
	return len(a.records)
}

// Min returns the earliest Start, or +Inf when the attribute is empty.
func (a *Attribute[V]) Min() float64 {
	lowest := math.Inf(1)
	for _, rec := range a.records {
		lowest = math.Min(lowest, rec.Start)
	}

	return lowest
}

// Max returns the latest End, or -Inf when the attribute is empty.
func (a *Attribute[V]) Max() float64 {
	highest := math.Inf(-1)
	for _, rec := range a.records {
		highest = math.Max(highest, rec.End)
	}

	return highest
}

// ValueAt returns the value at instant t: the on-value of a record covering
// t, else the off-value of the closest record that has one.
func (a *Attribute[V]) ValueAt(t float64) (V, bool) {
	if rec := a.covering(t); rec != nil {
		return rec.OnValue, true
	}

	var (
		best     *Record[V]
		bestDist = math.Inf(1)
	)

	for _, rec := range a.records {
		if !rec.HasOff {
			continue
		}

		dist := math.Min(math.Abs(t-rec.Start), math.Abs(t-rec.End))
		if dist < bestDist {
			best, bestDist = rec, dist
		}
	}

	if best == nil {
		var zero V

		return zero, false
	}

	return best.OffValue, true
}

// ValueAtInterpolated is ValueAt, except that an instant falling in a gap
// between two finite records blends the earlier on-value into the later one.
func (a *Attribute[V]) ValueAtInterpolated(t float64) (V, bool) {
	if rec := a.covering(t); rec != nil {
		return rec.OnValue, true
	}

	var before, after *Record[V]

	for _, rec := range a.records {
		if rec.End <= t && (before == nil || rec.End > before.End) {
			before = rec
		}

		if rec.Start > t && (after == nil || rec.Start < after.Start) {
			after = rec
		}
	}

	if before == nil || after == nil || !isFinite(before.End) || !isFinite(after.Start) {
		return a.ValueAt(t)
	}

	alpha := (t - before.End) / (after.Start - before.End)

	return before.Interpolate(after.OnValue, alpha), true
}

func (a *Attribute[V]) covering(t float64) *Record[V] {
	for _, rec := range a.records {
		if rec.Contains(t) {
			return rec
		}
	}

	return nil
}
