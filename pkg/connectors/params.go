package connectors

import "github.com/datalinkhq/connector-engine/pkg/apperrors"

// IntParam reads a numeric parameter that may arrive as int or, after a
// JSON round trip, as float64. Absent parameters yield the fallback.
func IntParam(params map[string]any, name string, fallback int) (int, error) {
	raw, present := params[name]
	if !present {
		return fallback, nil
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, apperrors.NewValidationError(name, "must be an integer")
		}
		return int(v), nil
	default:
		return 0, apperrors.NewValidationError(name, "must be an integer")
	}
}

// BoolParam reads a boolean parameter. Absent parameters yield the fallback.
func BoolParam(params map[string]any, name string, fallback bool) (bool, error) {
	raw, present := params[name]
	if !present {
		return fallback, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, apperrors.NewValidationError(name, "must be a boolean")
	}
	return b, nil
}
