package grafana

import (
	"context"
	"net/http"

	"github.com/crmarques/confsync/resource"
)

// installPlugin triggers an install from the catalog, then pushes the
// snapshot's settings; the plugin id is the identity, so there is
// nothing to remap.
func (a *Adapter) installPlugin(ctx context.Context, kind resource.Kind, payload map[string]any) (string, error) {
	id, ok := payload["id"].(string)
	if !ok || id == "" {
		return "", validationError("plugin payload has no id", nil)
	}

	if _, err := a.client.Do(ctx, http.MethodPost, "/api/plugins/"+id+"/install", nil, nil); err != nil {
		return "", err
	}
	if _, err := a.client.Do(ctx, http.MethodPost, "/api/plugins/"+id+"/settings", nil, payload); err != nil {
		return "", err
	}
	return id, nil
}
