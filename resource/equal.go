package resource

import (
	"reflect"
	"strings"
)

// Equal decides content equality for two instances of a kind. Both
// payloads are normalized and the kind's server-managed fields are
// stripped first, so timestamps and version counters never produce
// spurious diffs. Foreign keys compare by their identity value alone.
func (m *Model) Equal(kind Kind, a Instance, b Instance) (bool, error) {
	left, err := ComparablePayload(kind, a)
	if err != nil {
		return false, err
	}
	right, err := ComparablePayload(kind, b)
	if err != nil {
		return false, err
	}
	return reflect.DeepEqual(left, right), nil
}

// ComparablePayload returns the instance payload as it participates in
// equality: normalized, with the kind's IgnoreFields removed.
func ComparablePayload(kind Kind, instance Instance) (map[string]any, error) {
	normalized, err := NormalizeObject(instance.Payload)
	if err != nil {
		return nil, err
	}
	for _, path := range kind.IgnoreFields {
		removeFieldPath(normalized, strings.Split(path, "."))
	}
	return normalized, nil
}

func removeFieldPath(payload map[string]any, path []string) {
	if len(path) == 0 || payload == nil {
		return
	}
	if len(path) == 1 {
		delete(payload, path[0])
		return
	}
	child, ok := payload[path[0]].(map[string]any)
	if !ok {
		return
	}
	removeFieldPath(child, path[1:])
}
