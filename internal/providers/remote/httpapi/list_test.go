package httpapi

import (
	"testing"

	"github.com/crmarques/confsync/faults"
)

func TestExtractListFromEnvelope(t *testing.T) {
	t.Parallel()

	payload := map[string]any{
		"data": []any{
			map[string]any{"id": int64(1), "name": "editor"},
			map[string]any{"id": int64(2), "name": "viewer"},
		},
	}

	items, err := ExtractList(payload, ".data")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0]["name"] != "editor" {
		t.Fatalf("unexpected first item: %#v", items[0])
	}
}

func TestExtractListBareArray(t *testing.T) {
	t.Parallel()

	payload := []any{map[string]any{"uid": "a"}}
	items, err := ExtractList(payload, ".")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(items) != 1 || items[0]["uid"] != "a" {
		t.Fatalf("unexpected items: %#v", items)
	}
}

func TestExtractListMissingFieldIsEmpty(t *testing.T) {
	t.Parallel()

	items, err := ExtractList(map[string]any{"other": true}, ".data")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty listing, got %#v", items)
	}
}

func TestExtractListRejectsScalars(t *testing.T) {
	t.Parallel()

	if _, err := ExtractList(map[string]any{"data": "oops"}, ".data"); !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExtractListNestedExpression(t *testing.T) {
	t.Parallel()

	payload := map[string]any{
		"result": map[string]any{
			"elements": []any{map[string]any{"uid": "lib-1"}},
		},
	}
	items, err := ExtractList(payload, ".result.elements")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(items) != 1 || items[0]["uid"] != "lib-1" {
		t.Fatalf("unexpected items: %#v", items)
	}
}
