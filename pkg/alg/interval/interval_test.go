package interval

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNew_Valid verifies well-formed ranges and unbounded sentinels.
func TestNew_Valid(t *testing.T) {
	t.Parallel()

	iv, err := New(1, 5)
	require.NoError(t, err)
	assert.Equal(t, Interval{Start: 1, End: 5}, iv)

	iv, err = New(math.Inf(-1), math.Inf(1))
	require.NoError(t, err)
	assert.Equal(t, Unbounded(), iv)

	iv, err = New(3, 3)
	require.NoError(t, err)
	assert.True(t, iv.IsInstant())
}

// TestNew_Invalid verifies that reversed and NaN ranges are rejected.
func TestNew_Invalid(t *testing.T) {
	t.Parallel()

	_, err := New(5, 1)
	require.ErrorIs(t, err, ErrInvalidInterval)

	_, err = New(math.NaN(), 1)
	require.ErrorIs(t, err, ErrInvalidInterval)

	_, err = NewRecord(2, 1, true)
	require.ErrorIs(t, err, ErrInvalidInterval)

	_, err = New(math.Inf(1), math.Inf(1))
	require.ErrorIs(t, err, ErrInvalidInterval)

	_, err = New(math.Inf(-1), math.Inf(-1))
	require.ErrorIs(t, err, ErrInvalidInterval)

	require.ErrorIs(t, Instant(math.Inf(1)).Validate(), ErrInvalidInterval)
}

// TestOverlaps_Boundaries enumerates the boundary cases of the overlap relation.
func TestOverlaps_Boundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"instant at range start", Instant(10), Interval{10, 15}, true},
		{"instant at range end", Instant(10), Interval{5, 10}, false},
		{"instant inside range", Instant(7), Interval{5, 10}, true},
		{"instant before range", Instant(4), Interval{5, 10}, false},
		{"equal instants", Instant(3), Instant(3), true},
		{"distinct instants", Instant(3), Instant(4), false},
		{"touching ranges", Interval{0, 5}, Interval{5, 9}, false},
		{"sharing one unit", Interval{0, 6}, Interval{5, 9}, true},
		{"nested range", Interval{2, 3}, Interval{0, 10}, true},
		{"identical ranges", Interval{1, 2}, Interval{1, 2}, true},
		{"disjoint ranges", Interval{0, 1}, Interval{2, 3}, false},
		{"unbounded covers instant", Unbounded(), Instant(1e9), true},
		{"left-unbounded before end", Interval{math.Inf(-1), 0}, Instant(-1), true},
		{"left-unbounded at end", Interval{math.Inf(-1), 0}, Instant(0), false},
		{"right-unbounded at start", Interval{0, math.Inf(1)}, Instant(0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a), "overlap must be symmetric")
		})
	}
}

// TestOverlaps_MatchesPointSets checks the relation against explicit point
// sets on a small grid: two intervals overlap iff some sample point lies in both.
func TestOverlaps_MatchesPointSets(t *testing.T) {
	t.Parallel()

	const limit = 6

	for a0 := 0.0; a0 <= limit; a0++ {
		for a1 := a0; a1 <= limit; a1++ {
			for b0 := 0.0; b0 <= limit; b0++ {
				for b1 := b0; b1 <= limit; b1++ {
					a := Interval{a0, a1}
					b := Interval{b0, b1}

					want := false

					for p := 0.0; p <= limit; p += 0.5 {
						if a.Contains(p) && b.Contains(p) {
							want = true

							break
						}
					}

					assert.Equal(t, want, a.Overlaps(b), "%s vs %s", a, b)
				}
			}
		}
	}
}

// TestCompare verifies the Relation values.
func TestCompare(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Overlap, Interval{0, 10}.Compare(Instant(0)))
	assert.Equal(t, Disjoint, Interval{0, 10}.Compare(Instant(10)))
	assert.Equal(t, "overlap", Overlap.String())
	assert.Equal(t, "disjoint", Disjoint.String())
}

// TestTouches verifies inclusive adjacency.
func TestTouches(t *testing.T) {
	t.Parallel()

	assert.True(t, Interval{0, 5}.Touches(Interval{5, 9}))
	assert.True(t, Instant(5).Touches(Interval{0, 5}))
	assert.False(t, Interval{0, 4}.Touches(Interval{5, 9}))
}

// TestString verifies formatting with infinite bounds.
func TestString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "[1.5, 3)", Interval{1.5, 3}.String())
	assert.Equal(t, "[-inf, +inf)", Unbounded().String())
}

// TestRecord_Values verifies on/off accessors.
func TestRecord_Values(t *testing.T) {
	t.Parallel()

	rec, err := NewRecord(0, 10, "on")
	require.NoError(t, err)

	assert.Equal(t, "on", rec.GetOnValue())

	_, ok := rec.GetOffValue()
	assert.False(t, ok)

	rec.WithOff("off")

	off, ok := rec.GetOffValue()
	assert.True(t, ok)
	assert.Equal(t, "off", off)
}

// TestRecord_Overlaps verifies record-level overlap and CompareOverlap.
func TestRecord_Overlaps(t *testing.T) {
	t.Parallel()

	a, err := NewRecord(0, 10, 1)
	require.NoError(t, err)

	b, err := NewRecord(10, 20, 1)
	require.NoError(t, err)

	c, err := NewRecord(9, 9, 1)
	require.NoError(t, err)

	assert.False(t, a.Overlaps(b))
	assert.True(t, a.Overlaps(c))
	assert.Equal(t, Disjoint, a.CompareOverlap(b))
	assert.Equal(t, Overlap, c.CompareOverlap(a))
}

// TestRecord_Interpolate covers numeric, color and non-interpolable values.
func TestRecord_Interpolate(t *testing.T) {
	t.Parallel()

	f := &Record[float64]{OnValue: 10}
	assert.InDelta(t, 15.0, f.Interpolate(20, 0.5), 1e-9)
	assert.InDelta(t, 20.0, f.Interpolate(20, 3), 1e-9, "alpha is clamped")
	assert.InDelta(t, 10.0, f.Interpolate(20, -1), 1e-9, "alpha is clamped")

	i := &Record[int]{OnValue: 0}
	assert.Equal(t, 3, i.Interpolate(10, 0.25))

	i64 := &Record[int64]{OnValue: 100}
	assert.Equal(t, int64(50), i64.Interpolate(0, 0.5))

	c := &Record[color.RGBA]{OnValue: color.RGBA{R: 0, G: 0, B: 0, A: 255}}
	assert.Equal(t, color.RGBA{R: 128, G: 64, B: 0, A: 255},
		c.Interpolate(color.RGBA{R: 255, G: 128, B: 0, A: 255}, 0.5))

	s := &Record[string]{OnValue: "a"}
	assert.Equal(t, "a", s.Interpolate("b", 0.5))

	dynamic := &Record[any]{OnValue: 2.0}
	assert.Equal(t, 3.0, dynamic.Interpolate(4.0, 0.5))
}
