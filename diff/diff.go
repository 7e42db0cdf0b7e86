package diff

import (
	"fmt"
	"strings"

	"github.com/crmarques/confsync/resource"
)

// KindDelta is the classified difference for one kind. Create holds
// instances present only in the target, Delete instances present only
// in the source, Update the full target content for keys present in
// both with differing payloads. A key appears in at most one set.
type KindDelta struct {
	Kind      resource.Kind
	Create    []resource.Instance
	Update    []resource.Instance
	Delete    []resource.Instance
	Unchanged int
}

func (d KindDelta) Empty() bool {
	return len(d.Create) == 0 && len(d.Update) == 0 && len(d.Delete) == 0
}

// Summary renders the original per-kind one-liner:
// "dashboards :: 3 new. 2 modified. 1 deleted. 4 unchanged."
func (d KindDelta) Summary() string {
	return fmt.Sprintf("%s :: %d new. %d modified. %d deleted. %d unchanged.",
		d.Kind.Name, len(d.Create), len(d.Update), len(d.Delete), d.Unchanged)
}

// Delta is the full difference between two snapshots, kind by kind in
// model order.
type Delta struct {
	Kinds []KindDelta
}

func (d *Delta) Empty() bool {
	for _, kindDelta := range d.Kinds {
		if !kindDelta.Empty() {
			return false
		}
	}
	return true
}

func (d *Delta) Kind(name string) (KindDelta, bool) {
	for _, kindDelta := range d.Kinds {
		if kindDelta.Kind.Name == name {
			return kindDelta, true
		}
	}
	return KindDelta{}, false
}

func (d *Delta) Operations() int {
	total := 0
	for _, kindDelta := range d.Kinds {
		total += len(kindDelta.Create) + len(kindDelta.Update) + len(kindDelta.Delete)
	}
	return total
}

func (d *Delta) Summary() string {
	lines := make([]string, 0, len(d.Kinds))
	for _, kindDelta := range d.Kinds {
		lines = append(lines, kindDelta.Summary())
	}
	return strings.Join(lines, "\n")
}

// Compute classifies the difference between two snapshots, one kind at a
// time. The Resource Model is consulted before classifying so kinds with
// restricted operation sets never produce operations the applier cannot
// execute: a singleton settings kind yields updates only, regardless of
// what a set comparison alone would say.
func Compute(model *resource.Model, source *resource.Snapshot, target *resource.Snapshot) (*Delta, error) {
	delta := &Delta{Kinds: make([]KindDelta, 0, len(model.Kinds()))}

	for _, kind := range model.Kinds() {
		kindDelta := KindDelta{Kind: kind}

		for _, targetInstance := range target.Instances(kind.Name) {
			sourceInstance, exists := source.Get(kind.Name, targetInstance.Key)
			if !exists {
				if kind.Ops.Create {
					kindDelta.Create = append(kindDelta.Create, targetInstance)
				}
				continue
			}

			equal, err := model.Equal(kind, sourceInstance, targetInstance)
			if err != nil {
				return nil, fmt.Errorf("comparing %s %q: %w", kind.Name, targetInstance.Key, err)
			}
			if equal {
				kindDelta.Unchanged++
				continue
			}
			if kind.Ops.Update {
				kindDelta.Update = append(kindDelta.Update, targetInstance)
			}
		}

		for _, sourceInstance := range source.Instances(kind.Name) {
			if _, exists := target.Get(kind.Name, sourceInstance.Key); !exists && kind.Ops.Delete {
				kindDelta.Delete = append(kindDelta.Delete, sourceInstance)
			}
		}

		delta.Kinds = append(delta.Kinds, kindDelta)
	}

	return delta, nil
}
