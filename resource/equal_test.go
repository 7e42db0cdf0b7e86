package resource

import (
	"encoding/json"
	"math"
	"testing"
)

func TestEqualIgnoresServerManagedFields(t *testing.T) {
	t.Parallel()

	model, err := NewModel(Kind{
		Name:          "dashboards",
		IdentityField: "uid",
		Ops:           AllOps(),
		IgnoreFields:  []string{"version", "meta.updated"},
	})
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	kind, _ := model.Kind("dashboards")

	a := Instance{Key: "d1", Payload: map[string]any{
		"uid":     "d1",
		"title":   "Service Health",
		"version": 4,
		"meta":    map[string]any{"updated": "2024-01-01T00:00:00Z", "slug": "service-health"},
	}}
	b := Instance{Key: "d1", Payload: map[string]any{
		"uid":     "d1",
		"title":   "Service Health",
		"version": 9,
		"meta":    map[string]any{"updated": "2025-06-01T00:00:00Z", "slug": "service-health"},
	}}

	equal, err := model.Equal(kind, a, b)
	if err != nil {
		t.Fatalf("Equal: %v", err)
	}
	if !equal {
		t.Fatalf("expected instances equal once ignored fields are stripped")
	}

	b.Payload["title"] = "Service Health (new)"
	equal, err = model.Equal(kind, a, b)
	if err != nil {
		t.Fatalf("Equal: %v", err)
	}
	if equal {
		t.Fatalf("expected user-authored change to break equality")
	}
}

func TestEqualAcrossDecoders(t *testing.T) {
	t.Parallel()

	model, err := NewModel(Kind{Name: "datasources", IdentityField: "uid", Ops: AllOps()})
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	kind, _ := model.Kind("datasources")

	// JSON decoding yields float64 for numbers, YAML yields ints. Both
	// must compare equal after normalization.
	var fromJSON map[string]any
	if err := json.Unmarshal([]byte(`{"uid":"ds1","port":9090,"jsonData":{"timeout":30}}`), &fromJSON); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	fromYAML := map[string]any{
		"uid":      "ds1",
		"port":     9090,
		"jsonData": map[string]any{"timeout": 30},
	}

	equal, err := model.Equal(kind, Instance{Key: "ds1", Payload: fromJSON}, Instance{Key: "ds1", Payload: fromYAML})
	if err != nil {
		t.Fatalf("Equal: %v", err)
	}
	if !equal {
		t.Fatalf("expected decoder-dependent number types to normalize equal")
	}
}

func TestNormalizeRebuildsNestedContainers(t *testing.T) {
	t.Parallel()

	normalized, err := Normalize(map[string]any{
		"uid":  "ds1",
		"port": json.Number("9090"),
		"jsonData": map[string]any{
			"timeout": 30,
			"tags":    []any{map[string]any{"weight": float64(2)}},
		},
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	payload, ok := normalized.(map[string]any)
	if !ok {
		t.Fatalf("expected object, got %T", normalized)
	}
	if payload["port"] != int64(9090) {
		t.Fatalf("json.Number not collapsed: %T %v", payload["port"], payload["port"])
	}
	nested, ok := payload["jsonData"].(map[string]any)
	if !ok {
		t.Fatalf("nested object lost: %#v", payload["jsonData"])
	}
	if nested["timeout"] != int64(30) {
		t.Fatalf("nested int not widened: %T", nested["timeout"])
	}
	tags, ok := nested["tags"].([]any)
	if !ok || len(tags) != 1 {
		t.Fatalf("nested slice lost: %#v", nested["tags"])
	}
	if tag, ok := tags[0].(map[string]any); !ok || tag["weight"] != int64(2) {
		t.Fatalf("whole float inside slice not widened: %#v", tags[0])
	}
}

func TestNormalizeRejectsNonFiniteFloat(t *testing.T) {
	t.Parallel()

	if _, err := Normalize(map[string]any{"value": math.Inf(1)}); err == nil {
		t.Fatalf("expected error for non-finite float")
	}
}

func TestFilename(t *testing.T) {
	t.Parallel()

	kind := Kind{Name: "dashboards", IdentityField: "uid", FilenameFields: []string{"title"}, Ops: AllOps()}
	instance := Instance{Key: "abc123", Payload: map[string]any{"uid": "abc123", "title": "Ops / On-call: overview"}}

	got := Filename(kind, instance)
	if got != "Ops On-call overview-abc123" {
		t.Fatalf("unexpected filename %q", got)
	}

	if got := SanitizeFilename("///"); got != "unnamed" {
		t.Fatalf("expected fallback name, got %q", got)
	}
}
