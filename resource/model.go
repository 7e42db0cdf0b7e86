package resource

import (
	"fmt"
	"sort"

	"github.com/crmarques/confsync/faults"
)

// Model is an ordered, validated set of kinds. The DependsOn edges form
// a partial order consumed by the applier; NewModel rejects graphs that
// are not acyclic, so ordering violations are impossible by construction.
type Model struct {
	kinds  []Kind
	byName map[string]Kind
}

func NewModel(kinds ...Kind) (*Model, error) {
	if len(kinds) == 0 {
		return nil, validationError("model requires at least one kind", nil)
	}

	byName := make(map[string]Kind, len(kinds))
	for _, kind := range kinds {
		if kind.Name == "" {
			return nil, validationError("kind name must not be empty", nil)
		}
		if kind.IdentityField == "" {
			return nil, validationError(fmt.Sprintf("kind %q has no identity field", kind.Name), nil)
		}
		if _, exists := byName[kind.Name]; exists {
			return nil, validationError(fmt.Sprintf("duplicate kind %q", kind.Name), nil)
		}
		if kind.Singleton && (kind.Ops.Create || kind.Ops.Delete) {
			return nil, validationError(fmt.Sprintf("singleton kind %q must be update-only", kind.Name), nil)
		}
		byName[kind.Name] = kind
	}

	for _, kind := range kinds {
		for _, dep := range kind.DependsOn {
			if _, exists := byName[dep]; !exists {
				return nil, validationError(fmt.Sprintf("kind %q depends on unknown kind %q", kind.Name, dep), nil)
			}
			if dep == kind.Name {
				return nil, validationError(fmt.Sprintf("kind %q depends on itself", kind.Name), nil)
			}
		}
		for field, target := range kind.RefFields {
			if _, exists := byName[target]; !exists {
				return nil, validationError(fmt.Sprintf("kind %q field %q references unknown kind %q", kind.Name, field, target), nil)
			}
		}
	}

	model := &Model{kinds: append([]Kind(nil), kinds...), byName: byName}
	if _, err := model.tiers(); err != nil {
		return nil, err
	}
	return model, nil
}

func (m *Model) Kinds() []Kind {
	return append([]Kind(nil), m.kinds...)
}

func (m *Model) Kind(name string) (Kind, bool) {
	kind, ok := m.byName[name]
	return kind, ok
}

func (m *Model) KindNames() []string {
	names := make([]string, 0, len(m.kinds))
	for _, kind := range m.kinds {
		names = append(names, kind.Name)
	}
	return names
}

// Tiers groups kinds into dependency tiers: tier 0 has no dependencies,
// tier N depends only on kinds in tiers < N. Kinds within a tier are
// sorted by name. Creates and updates run tiers forward; deletes run
// them in reverse.
func (m *Model) Tiers() [][]Kind {
	tiers, err := m.tiers()
	if err != nil {
		// NewModel already proved the graph acyclic.
		panic(err)
	}
	return tiers
}

func (m *Model) tiers() ([][]Kind, error) {
	indegree := make(map[string]int, len(m.kinds))
	dependents := make(map[string][]string, len(m.kinds))
	for _, kind := range m.kinds {
		indegree[kind.Name] = len(kind.DependsOn)
		for _, dep := range kind.DependsOn {
			dependents[dep] = append(dependents[dep], kind.Name)
		}
	}

	current := make([]string, 0, len(m.kinds))
	for _, kind := range m.kinds {
		if indegree[kind.Name] == 0 {
			current = append(current, kind.Name)
		}
	}

	placed := 0
	tiers := make([][]Kind, 0, len(m.kinds))
	for len(current) > 0 {
		sort.Strings(current)
		tier := make([]Kind, 0, len(current))
		next := make([]string, 0)
		for _, name := range current {
			tier = append(tier, m.byName[name])
			placed++
			for _, dependent := range dependents[name] {
				indegree[dependent]--
				if indegree[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		tiers = append(tiers, tier)
		current = next
	}

	if placed != len(m.kinds) {
		remaining := make([]string, 0)
		for name, degree := range indegree {
			if degree > 0 {
				remaining = append(remaining, name)
			}
		}
		sort.Strings(remaining)
		return nil, validationError(fmt.Sprintf("kind dependency cycle involving %v", remaining), nil)
	}
	return tiers, nil
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}
