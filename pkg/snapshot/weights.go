package snapshot

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// DefaultWeight is the weight of an edge with no overlapping weight value.
const DefaultWeight = 1.0

// WeightMap returns a weight for every materialized edge: the mean of the
// numeric on-values of the edge's weight records overlapping the query, or
// DefaultWeight when none do or no weight tree is configured.
func (e *Engine) WeightMap() (map[string]float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	weights := make(map[string]float64, len(e.state.edges))

	for _, edge := range sortedKeys(e.state.edges) {
		w, err := e.weight(edge)
		if err != nil {
			return nil, err
		}

		weights[edge] = w
	}

	return weights, nil
}

// Weight returns the weight of one materialized edge.
func (e *Engine) Weight(edge string) (float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.weight(edge)
}

func (e *Engine) weight(edge string) (float64, error) {
	recs := e.state.weightRec[edge]
	if e.sources.Weights == nil || len(recs) == 0 {
		return DefaultWeight, nil
	}

	values := make([]float64, 0, len(recs))

	for _, rec := range recs {
		v, ok := toFloat(rec.OnValue)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: edge %s has %T value %v over %s",
				ErrNonNumericWeight, edge, rec.OnValue, rec.OnValue, rec.Interval)
		}

		values = append(values, v)
	}

	mean := stat.Mean(values, nil)
	if mean < 0 {
		return 0, fmt.Errorf("%w: edge %s averages %g", ErrNegativeWeight, edge, mean)
	}

	return mean, nil
}

// toFloat converts integer and floating-point values; anything else,
// including numeric strings, is rejected. Non-finite results are left to
// the caller.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()

		return f, err == nil
	default:
		return 0, false
	}
}
