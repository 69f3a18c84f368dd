package interval

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterval_JSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		iv   Interval
		wire string
	}{
		{Interval{Start: 1, End: 5}, `{"start":1,"end":5}`},
		{Instant(2.5), `{"start":2.5,"end":2.5}`},
		{Interval{Start: math.Inf(-1), End: 3}, `{"start":null,"end":3}`},
		{Unbounded(), `{"start":null,"end":null}`},
	}

	for _, tt := range tests {
		data, err := json.Marshal(tt.iv)
		require.NoError(t, err)
		assert.JSONEq(t, tt.wire, string(data))

		var back Interval

		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, tt.iv, back)
	}
}

func TestInterval_JSONDefaultsAndErrors(t *testing.T) {
	t.Parallel()

	var iv Interval

	require.NoError(t, json.Unmarshal([]byte(`{"start": 4}`), &iv))
	assert.InDelta(t, 4.0, iv.Start, 0)
	assert.True(t, math.IsInf(iv.End, 1))

	err := json.Unmarshal([]byte(`{"start": 5, "end": 1}`), &iv)
	require.ErrorIs(t, err, ErrInvalidInterval)

	_, err = json.Marshal(Interval{Start: math.NaN(), End: 1})
	require.Error(t, err)
}

func TestInterval_JSONInfiniteInstants(t *testing.T) {
	t.Parallel()

	for _, iv := range []Interval{Instant(math.Inf(1)), Instant(math.Inf(-1))} {
		_, err := json.Marshal(iv)
		require.ErrorIs(t, err, ErrInvalidInterval, iv.String())
	}

	var iv Interval

	err := json.Unmarshal([]byte(`{"start": null, "end": null}`), &iv)
	require.NoError(t, err)
	assert.Equal(t, Unbounded(), iv)
}
