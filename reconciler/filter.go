package reconciler

import (
	"fmt"
	"strings"

	"github.com/crmarques/confsync/resource"
)

// Filter narrows an operation to a subset of the model's kinds. Only
// and Exclude may be combined; Exclude always wins.
type Filter struct {
	Only    []string
	Exclude []string
}

func (f Filter) validate(model *resource.Model) error {
	for _, name := range append(append([]string(nil), f.Only...), f.Exclude...) {
		if _, ok := model.Kind(name); !ok {
			return validationError(fmt.Sprintf(
				"unknown kind %q (known kinds: %s)",
				name, strings.Join(model.KindNames(), ", "),
			), nil)
		}
	}
	return nil
}

func (f Filter) include(kind resource.Kind) bool {
	for _, name := range f.Exclude {
		if name == kind.Name {
			return false
		}
	}
	if len(f.Only) == 0 {
		return true
	}
	for _, name := range f.Only {
		if name == kind.Name {
			return true
		}
	}
	return false
}

// filterSnapshot copies the snapshot restricted to included kinds, so a
// narrowed diff never classifies out-of-scope instances.
func filterSnapshot(model *resource.Model, snap *resource.Snapshot, include func(resource.Kind) bool) (*resource.Snapshot, error) {
	filtered := resource.NewSnapshot()
	for _, kind := range model.Kinds() {
		if !include(kind) {
			continue
		}
		for _, instance := range snap.Instances(kind.Name) {
			if err := filtered.Add(kind.Name, instance); err != nil {
				return nil, err
			}
		}
	}
	return filtered, nil
}
