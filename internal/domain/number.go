package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a JSON numeric field that tolerates numeric strings, null and
// malformed input instead of failing the whole request body.
type Number struct {
	Value float64
	// Set is true when the key was present with a non-null value
	Set bool
	// Valid is true when the value parsed to a finite number
	Valid bool
}

// NumberOf returns a set, valid Number
func NumberOf(v float64) Number {
	return Number{Value: v, Set: true, Valid: !math.IsNaN(v) && !math.IsInf(v, 0)}
}

// UnmarshalJSON accepts numbers, numeric strings and null. Anything else is
// recorded as set but invalid.
func (n *Number) UnmarshalJSON(b []byte) error {
	raw := bytes.TrimSpace(b)
	if bytes.Equal(raw, []byte("null")) {
		*n = Number{}
		return nil
	}

	text := string(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			*n = Number{Set: true}
			return nil
		}
		text = strings.TrimSpace(s)
		// an empty string reads as zero
		if text == "" {
			*n = Number{Set: true, Valid: true}
			return nil
		}
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		*n = Number{Set: true}
		return nil
	}
	*n = Number{Value: v, Set: true, Valid: true}
	return nil
}

// MarshalJSON writes the value, or null when absent or malformed
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Set || !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// OrZero returns the value, or 0 when absent or malformed
func (n Number) OrZero() float64 {
	if n.Valid {
		return n.Value
	}
	return 0
}

// Float returns the value, 0 when absent and NaN when malformed
func (n Number) Float() float64 {
	switch {
	case !n.Set:
		return 0
	case !n.Valid:
		return math.NaN()
	default:
		return n.Value
	}
}
