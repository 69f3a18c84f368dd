package interval

import (
	"encoding/json"
	"fmt"
)

// wireInterval is the JSON form of an Interval. An unbounded side is null.
type wireInterval struct {
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
}

// MarshalJSON encodes the interval as {"start": s, "end": e}, with null for
// an infinite bound. Invalid intervals are not encoded.
func (iv Interval) MarshalJSON() ([]byte, error) {
	// A valid interval can only be unbounded below at Start and above at
	// End, so null decodes back unambiguously.
	err := iv.Validate()
	if err != nil {
		return nil, err
	}

	var w wireInterval

	if isFinite(iv.Start) {
		w.Start = &iv.Start
	}

	if isFinite(iv.End) {
		w.End = &iv.End
	}

	return json.Marshal(w)
}

// UnmarshalJSON decodes the MarshalJSON form and validates the result. A
// missing or null start is -Inf; a missing or null end is +Inf.
func (iv *Interval) UnmarshalJSON(data []byte) error {
	var w wireInterval

	err := json.Unmarshal(data, &w)
	if err != nil {
		return fmt.Errorf("decode interval: %w", err)
	}

	decoded := Unbounded()

	if w.Start != nil {
		decoded.Start = *w.Start
	}

	if w.End != nil {
		decoded.End = *w.End
	}

	err = decoded.Validate()
	if err != nil {
		return err
	}

	*iv = decoded

	return nil
}
