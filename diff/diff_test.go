package diff

import (
	"testing"

	"github.com/crmarques/confsync/resource"
)

func testModel(t *testing.T) *resource.Model {
	t.Helper()
	model, err := resource.NewModel(
		resource.Kind{Name: "folders", IdentityField: "uid", Ops: resource.AllOps()},
		resource.Kind{Name: "dashboards", IdentityField: "uid", DependsOn: []string{"folders"}, Ops: resource.AllOps(),
			IgnoreFields: []string{"version"}},
		resource.Kind{Name: "settings", IdentityField: "id", Singleton: true, Ops: resource.UpdateOnly()},
	)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return model
}

func mustAdd(t *testing.T, snap *resource.Snapshot, kind string, instance resource.Instance) {
	t.Helper()
	if err := snap.Add(kind, instance); err != nil {
		t.Fatalf("Add %s/%s: %v", kind, instance.Key, err)
	}
}

func TestComputeSelfDiffIsEmpty(t *testing.T) {
	t.Parallel()

	model := testModel(t)
	snap := resource.NewSnapshot()
	mustAdd(t, snap, "folders", resource.Instance{Key: "f1", Payload: map[string]any{"uid": "f1", "title": "Ops"}})
	mustAdd(t, snap, "dashboards", resource.Instance{Key: "d1", Payload: map[string]any{"uid": "d1", "folderUid": "f1"}})

	delta, err := Compute(model, snap, snap)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !delta.Empty() {
		t.Fatalf("expected empty self-diff, got:\n%s", delta.Summary())
	}
}

func TestComputeClassification(t *testing.T) {
	t.Parallel()

	model := testModel(t)

	source := resource.NewSnapshot()
	mustAdd(t, source, "folders", resource.Instance{Key: "f1", Payload: map[string]any{"uid": "f1", "title": "Ops"}})
	mustAdd(t, source, "dashboards", resource.Instance{Key: "gone", Payload: map[string]any{"uid": "gone"}})
	mustAdd(t, source, "dashboards", resource.Instance{Key: "same", Payload: map[string]any{"uid": "same", "title": "CPU", "version": 1}})
	mustAdd(t, source, "dashboards", resource.Instance{Key: "edit", Payload: map[string]any{"uid": "edit", "title": "old"}})

	target := resource.NewSnapshot()
	mustAdd(t, target, "folders", resource.Instance{Key: "f1", Payload: map[string]any{"uid": "f1", "title": "Ops"}})
	mustAdd(t, target, "dashboards", resource.Instance{Key: "new", Payload: map[string]any{"uid": "new"}})
	mustAdd(t, target, "dashboards", resource.Instance{Key: "same", Payload: map[string]any{"uid": "same", "title": "CPU", "version": 7}})
	mustAdd(t, target, "dashboards", resource.Instance{Key: "edit", Payload: map[string]any{"uid": "edit", "title": "new"}})

	delta, err := Compute(model, source, target)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	dashboards, ok := delta.Kind("dashboards")
	if !ok {
		t.Fatalf("missing dashboards delta")
	}
	if len(dashboards.Create) != 1 || dashboards.Create[0].Key != "new" {
		t.Fatalf("unexpected creates: %#v", dashboards.Create)
	}
	if len(dashboards.Update) != 1 || dashboards.Update[0].Key != "edit" {
		t.Fatalf("unexpected updates: %#v", dashboards.Update)
	}
	if dashboards.Update[0].Payload["title"] != "new" {
		t.Fatalf("update must carry the full target payload, got %#v", dashboards.Update[0].Payload)
	}
	if len(dashboards.Delete) != 1 || dashboards.Delete[0].Key != "gone" {
		t.Fatalf("unexpected deletes: %#v", dashboards.Delete)
	}
	if dashboards.Unchanged != 1 {
		t.Fatalf("expected one unchanged dashboard (ignored version bump), got %d", dashboards.Unchanged)
	}

	folders, _ := delta.Kind("folders")
	if !folders.Empty() {
		t.Fatalf("expected folders unchanged, got %s", folders.Summary())
	}
}

func TestComputePartitionInvariant(t *testing.T) {
	t.Parallel()

	model := testModel(t)
	source := resource.NewSnapshot()
	target := resource.NewSnapshot()
	mustAdd(t, source, "dashboards", resource.Instance{Key: "a", Payload: map[string]any{"uid": "a", "title": "x"}})
	mustAdd(t, target, "dashboards", resource.Instance{Key: "a", Payload: map[string]any{"uid": "a", "title": "y"}})
	mustAdd(t, target, "dashboards", resource.Instance{Key: "b", Payload: map[string]any{"uid": "b"}})

	delta, err := Compute(model, source, target)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	for _, kindDelta := range delta.Kinds {
		seen := map[string]string{}
		record := func(set string, instances []resource.Instance) {
			for _, instance := range instances {
				if prior, dup := seen[instance.Key]; dup {
					t.Fatalf("%s key %q in both %s and %s", kindDelta.Kind.Name, instance.Key, prior, set)
				}
				seen[instance.Key] = set
			}
		}
		record("create", kindDelta.Create)
		record("update", kindDelta.Update)
		record("delete", kindDelta.Delete)
	}
}

func TestComputeSingletonNeverCreatesOrDeletes(t *testing.T) {
	t.Parallel()

	model := testModel(t)

	source := resource.NewSnapshot()
	target := resource.NewSnapshot()
	// Singleton exists remotely but is absent from the tree, and vice
	// versa in the other direction: neither may produce create/delete.
	mustAdd(t, source, "settings", resource.Instance{Key: "settings", Payload: map[string]any{"id": "settings", "theme": "dark"}})

	delta, err := Compute(model, source, target)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	settings, _ := delta.Kind("settings")
	if len(settings.Create) != 0 || len(settings.Delete) != 0 {
		t.Fatalf("singleton produced create/delete operations: %s", settings.Summary())
	}

	mustAdd(t, target, "settings", resource.Instance{Key: "settings", Payload: map[string]any{"id": "settings", "theme": "light"}})
	delta, err = Compute(model, source, target)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	settings, _ = delta.Kind("settings")
	if len(settings.Update) != 1 {
		t.Fatalf("expected singleton update, got %s", settings.Summary())
	}
}
