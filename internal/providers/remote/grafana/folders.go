package grafana

import (
	"context"
	"net/http"

	"github.com/crmarques/confsync/resource"
)

// listFolders walks the search index and hydrates each hit, because the
// search response carries only summary fields.
func (a *Adapter) listFolders(ctx context.Context) ([]resource.Instance, error) {
	kind, _ := a.model.Kind(kindFolders)
	hits, err := a.searchHits(ctx, "dash-folder")
	if err != nil {
		return nil, err
	}

	instances := make([]resource.Instance, 0, len(hits))
	for _, hit := range hits {
		uid, ok := hit["uid"].(string)
		if !ok || uid == "" {
			continue
		}
		instance, err := a.getObject(ctx, kind, "/api/folders/"+uid)
		if err != nil {
			return nil, err
		}
		instances = append(instances, instance)
	}
	return instances, nil
}

// updateFolder forces overwrite so snapshot state wins over a
// concurrently bumped folder version.
func (a *Adapter) updateFolder(ctx context.Context, key string, payload map[string]any) error {
	body := clonePayload(payload)
	body["overwrite"] = true
	_, err := a.client.Do(ctx, http.MethodPut, "/api/folders/"+key, nil, body)
	return err
}

func (a *Adapter) searchHits(ctx context.Context, searchType string) ([]map[string]any, error) {
	payload, err := a.client.Get(ctx, "/api/search", map[string]string{
		"type":  searchType,
		"limit": "5000",
	})
	if err != nil {
		return nil, err
	}
	hits, ok := payload.([]any)
	if !ok {
		return nil, validationError("search response is not an array", nil)
	}

	results := make([]map[string]any, 0, len(hits))
	for _, hit := range hits {
		object, ok := hit.(map[string]any)
		if !ok {
			continue
		}
		results = append(results, object)
	}
	return results, nil
}

func clonePayload(payload map[string]any) map[string]any {
	clone := make(map[string]any, len(payload))
	for key, value := range payload {
		clone[key] = value
	}
	return clone
}
