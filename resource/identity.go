package resource

import (
	"fmt"

	"github.com/crmarques/confsync/faults"
)

// IdentityKey extracts the instance identity from a payload using the
// kind's identity field. Singletons fall back to the kind name, so a
// settings document without an id still has a stable key.
func IdentityKey(kind Kind, payload map[string]any) (string, error) {
	raw, ok := payload[kind.IdentityField]
	if !ok || raw == nil {
		if kind.Singleton {
			return kind.Name, nil
		}
		return "", faults.NewTypedError(
			faults.ValidationError,
			fmt.Sprintf("%s payload is missing identity field %q", kind.Name, kind.IdentityField),
			nil,
		)
	}

	switch typed := raw.(type) {
	case string:
		return typed, nil
	case int:
		return fmt.Sprintf("%d", typed), nil
	case int64:
		return fmt.Sprintf("%d", typed), nil
	case float64:
		return fmt.Sprintf("%.0f", typed), nil
	default:
		return "", faults.NewTypedError(
			faults.ValidationError,
			fmt.Sprintf("%s identity field %q has unsupported type %T", kind.Name, kind.IdentityField, raw),
			nil,
		)
	}
}

// FromPayload builds an Instance from a raw payload: normalize, then
// derive the identity key.
func FromPayload(kind Kind, payload map[string]any) (Instance, error) {
	normalized, err := NormalizeObject(payload)
	if err != nil {
		return Instance{}, err
	}
	key, err := IdentityKey(kind, normalized)
	if err != nil {
		return Instance{}, err
	}
	return Instance{Key: key, Payload: normalized}, nil
}
