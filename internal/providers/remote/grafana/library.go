package grafana

import (
	"context"
	"net/http"

	"github.com/crmarques/confsync/internal/providers/remote/httpapi"
	"github.com/crmarques/confsync/remote"
	"github.com/crmarques/confsync/resource"
)

func (a *Adapter) listLibraryElements(ctx context.Context, kind resource.Kind) ([]resource.Instance, error) {
	payload, err := a.client.Get(ctx, "/api/library-elements", map[string]string{"perPage": "5000"})
	if err != nil {
		return nil, err
	}
	items, err := httpapi.ExtractList(payload, kind.ListQuery)
	if err != nil {
		return nil, err
	}

	instances := make([]resource.Instance, 0, len(items))
	for _, item := range items {
		instance, err := remote.InstanceFromPayload(kind, libraryElementPayload(item))
		if err != nil {
			return nil, err
		}
		instances = append(instances, instance)
	}
	return instances, nil
}

func (a *Adapter) getLibraryElement(ctx context.Context, kind resource.Kind, key string) (resource.Instance, error) {
	payload, err := a.client.Get(ctx, "/api/library-elements/"+key, nil)
	if err != nil {
		return resource.Instance{}, err
	}
	envelope, err := asObject(payload)
	if err != nil {
		return resource.Instance{}, err
	}
	element, err := asObject(envelope["result"])
	if err != nil {
		return resource.Instance{}, validationError("library element response has no result object", err)
	}
	return remote.InstanceFromPayload(kind, libraryElementPayload(element))
}

func (a *Adapter) createLibraryElement(ctx context.Context, kind resource.Kind, payload map[string]any) (string, error) {
	response, err := a.client.Do(ctx, http.MethodPost, "/api/library-elements", nil, payload)
	if err != nil {
		return "", err
	}
	if envelope, ok := response.(map[string]any); ok {
		if element, ok := envelope["result"].(map[string]any); ok {
			response = element
		}
	}
	return serverKeyFromResponse(kind, response, payload)
}

// libraryElementPayload surfaces the element's folder uid, which the API
// reports only inside the meta block.
func libraryElementPayload(element map[string]any) map[string]any {
	body := clonePayload(element)
	if meta, ok := element["meta"].(map[string]any); ok {
		if folderUID, ok := meta["folderUid"].(string); ok && folderUID != "" {
			body["folderUid"] = folderUID
		}
	}
	delete(body, "meta")
	return body
}
