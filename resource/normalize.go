package resource

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/crmarques/confsync/faults"
)

// Normalize canonicalizes a payload value for comparison and storage:
// integers widen to int64, json.Number collapses to int64 or float64,
// and containers are rebuilt so two payloads describing the same content
// compare equal regardless of how they were decoded.
func Normalize(value Value) (Value, error) {
	switch typed := value.(type) {
	case nil, bool, string:
		return typed, nil
	case float32:
		return normalizeFloat(float64(typed))
	case float64:
		return normalizeFloat(typed)
	case int:
		return int64(typed), nil
	case int8:
		return int64(typed), nil
	case int16:
		return int64(typed), nil
	case int32:
		return int64(typed), nil
	case int64:
		return typed, nil
	case uint:
		return normalizeUint(uint64(typed))
	case uint8:
		return normalizeUint(uint64(typed))
	case uint16:
		return normalizeUint(uint64(typed))
	case uint32:
		return normalizeUint(uint64(typed))
	case uint64:
		return normalizeUint(typed)
	case json.Number:
		return normalizeNumber(typed)
	case []any:
		return normalizeSlice(typed)
	case map[string]any:
		return normalizeMap(typed)
	case map[any]any:
		return normalizeUntypedMap(typed)
	}

	return nil, faults.NewTypedError(
		faults.ValidationError,
		fmt.Sprintf("unsupported payload type %T", value),
		nil,
	)
}

// NormalizeObject is Normalize constrained to object payloads, which is
// what every resource instance carries.
func NormalizeObject(payload map[string]any) (map[string]any, error) {
	normalized, err := normalizeMap(payload)
	if err != nil {
		return nil, err
	}
	return normalized, nil
}

func normalizeFloat(value float64) (any, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, faults.NewTypedError(faults.ValidationError, "payload contains non-finite float", nil)
	}
	if value == math.Trunc(value) && math.Abs(value) < 1<<53 {
		return int64(value), nil
	}
	return value, nil
}

func normalizeUint(value uint64) (int64, error) {
	if value > math.MaxInt64 {
		return 0, faults.NewTypedError(faults.ValidationError, "payload contains integer out of range", nil)
	}
	return int64(value), nil
}

func normalizeNumber(value json.Number) (any, error) {
	if asInt, err := value.Int64(); err == nil {
		return asInt, nil
	}
	asFloat, err := value.Float64()
	if err != nil {
		return nil, faults.NewTypedError(faults.ValidationError, "payload contains invalid number", err)
	}
	return normalizeFloat(asFloat)
}

func normalizeSlice(values []any) ([]any, error) {
	normalized := make([]any, len(values))
	for idx, item := range values {
		itemValue, err := Normalize(item)
		if err != nil {
			return nil, err
		}
		normalized[idx] = itemValue
	}
	return normalized, nil
}

func normalizeMap(values map[string]any) (map[string]any, error) {
	normalized := make(map[string]any, len(values))
	for key, item := range values {
		itemValue, err := Normalize(item)
		if err != nil {
			return nil, err
		}
		normalized[key] = itemValue
	}
	return normalized, nil
}

func normalizeUntypedMap(values map[any]any) (map[string]any, error) {
	normalized := make(map[string]any, len(values))
	for key, item := range values {
		stringKey, ok := key.(string)
		if !ok {
			return nil, faults.NewTypedError(faults.ValidationError, "payload map keys must be strings", nil)
		}
		itemValue, err := Normalize(item)
		if err != nil {
			return nil, err
		}
		normalized[stringKey] = itemValue
	}
	return normalized, nil
}
