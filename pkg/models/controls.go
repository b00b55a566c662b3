package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ControlType is the scalar type held by a node control.
type ControlType string

const (
	ControlTypeNumber ControlType = "number"
	ControlTypeText   ControlType = "text"
)

// NormalizeControl converts a decoded control value into float64 or string.
// Any other type is not representable in a payload.
func NormalizeControl(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("control value %q: %w", v.String(), ErrSerialization)
		}

		return f, nil
	case string:
		return v, nil
	default:
		return nil, fmt.Errorf("control value of type %T: %w", value, ErrSerialization)
	}
}

// ControlNumber reads a numeric control, accepting numeric strings written by older editors.
func ControlNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}

		return f, true
	default:
		normalized, err := NormalizeControl(value)
		if err != nil {
			return 0, false
		}

		f, ok := normalized.(float64)

		return f, ok
	}
}
