package grafana

import (
	"context"
	"net/http"

	"github.com/crmarques/confsync/resource"
)

// Dashboard payloads travel as the dashboard JSON model plus a
// synthetic top-level folderUid, so folder membership survives the
// round trip through the snapshot tree and stays remappable.

func (a *Adapter) listDashboards(ctx context.Context, kind resource.Kind) ([]resource.Instance, error) {
	hits, err := a.searchHits(ctx, "dash-db")
	if err != nil {
		return nil, err
	}

	instances := make([]resource.Instance, 0, len(hits))
	for _, hit := range hits {
		uid, ok := hit["uid"].(string)
		if !ok || uid == "" {
			continue
		}
		instance, err := a.getDashboard(ctx, kind, uid)
		if err != nil {
			return nil, err
		}
		instances = append(instances, instance)
	}
	return instances, nil
}

func (a *Adapter) getDashboard(ctx context.Context, kind resource.Kind, key string) (resource.Instance, error) {
	payload, err := a.client.Get(ctx, "/api/dashboards/uid/"+key, nil)
	if err != nil {
		return resource.Instance{}, err
	}
	envelope, err := asObject(payload)
	if err != nil {
		return resource.Instance{}, err
	}
	dashboard, err := asObject(envelope["dashboard"])
	if err != nil {
		return resource.Instance{}, validationError("dashboard response has no dashboard object", err)
	}

	body := clonePayload(dashboard)
	delete(body, "id")
	if meta, ok := envelope["meta"].(map[string]any); ok {
		if folderUID, ok := meta["folderUid"].(string); ok && folderUID != "" {
			body["folderUid"] = folderUID
		}
	}
	return resource.FromPayload(kind, body)
}

// saveDashboard serves both create and update; the endpoint upserts by
// dashboard uid.
func (a *Adapter) saveDashboard(ctx context.Context, kind resource.Kind, payload map[string]any) (string, error) {
	dashboard := clonePayload(payload)
	delete(dashboard, "id")
	delete(dashboard, "version")

	body := map[string]any{
		"dashboard": dashboard,
		"overwrite": true,
	}
	if folderUID, ok := dashboard["folderUid"].(string); ok && folderUID != "" {
		body["folderUid"] = folderUID
		delete(dashboard, "folderUid")
	}

	response, err := a.client.Do(ctx, http.MethodPost, "/api/dashboards/db", nil, body)
	if err != nil {
		return "", err
	}
	return serverKeyFromResponse(kind, response, payload)
}
