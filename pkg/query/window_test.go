package query

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/timegraph/pkg/alg/interval"
)

func TestWindow_Resolve(t *testing.T) {
	t.Parallel()

	start := 3.0
	end := 8.0

	tests := []struct {
		name  string
		w     Window
		width float64
		want  interval.Interval
	}{
		{"instant", At(4), 0, interval.Instant(4)},
		{"at with width", At(4), 2, interval.Interval{Start: 4, End: 6}},
		{"range", Between(1, 9), 5, interval.Interval{Start: 1, End: 9}},
		{"open end", Window{Start: &start}, 0, interval.Interval{Start: 3, End: math.Inf(1)}},
		{"open start", Window{End: &end}, 0, interval.Interval{Start: math.Inf(-1), End: 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.w.Resolve(tt.width)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWindow_ResolveErrors(t *testing.T) {
	t.Parallel()

	_, err := Window{}.Resolve(0)
	require.ErrorIs(t, err, ErrEmptyQuery)

	w := At(1)
	w.End = new(float64)

	_, err = w.Resolve(0)
	require.ErrorIs(t, err, ErrAmbiguousQuery)

	_, err = Between(5, 1).Resolve(0)
	require.ErrorIs(t, err, interval.ErrInvalidInterval)
}

func TestParseWindow(t *testing.T) {
	t.Parallel()

	w, err := ParseWindow("", "-inf", "12.5")
	require.NoError(t, err)
	assert.Nil(t, w.At)
	require.NotNil(t, w.Start)
	assert.True(t, math.IsInf(*w.Start, -1))
	assert.InDelta(t, 12.5, *w.End, 0)

	w, err = ParseWindow("7", "", "")
	require.NoError(t, err)
	assert.InDelta(t, 7.0, *w.At, 0)

	_, err = ParseWindow("soon", "", "")
	require.ErrorIs(t, err, ErrBadTime)

	_, err = ParseWindow("", "nan", "")
	require.ErrorIs(t, err, ErrBadTime)
}
