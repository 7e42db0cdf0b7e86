package grafana

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/crmarques/confsync/resource"
)

func (a *Adapter) createDatasource(ctx context.Context, kind resource.Kind, payload map[string]any) (string, error) {
	response, err := a.client.Do(ctx, http.MethodPost, "/api/datasources", nil, payload)
	if err != nil {
		return "", err
	}
	if envelope, ok := response.(map[string]any); ok {
		if datasource, ok := envelope["datasource"].(map[string]any); ok {
			response = datasource
		}
	}
	return serverKeyFromResponse(kind, response, payload)
}

// createTeam reads the assigned team id from the creation response;
// teams are keyed by database id, so the snapshot key never survives a
// restore onto a fresh instance.
func (a *Adapter) createTeam(ctx context.Context, payload map[string]any) (string, error) {
	body := clonePayload(payload)
	delete(body, "id")

	response, err := a.client.Do(ctx, http.MethodPost, "/api/teams", nil, body)
	if err != nil {
		return "", err
	}
	envelope, err := asObject(response)
	if err != nil {
		return "", err
	}
	switch id := envelope["teamId"].(type) {
	case json.Number:
		return id.String(), nil
	case int64:
		return fmt.Sprintf("%d", id), nil
	case float64:
		return fmt.Sprintf("%.0f", id), nil
	case string:
		return id, nil
	}
	return "", validationError("team creation response has no teamId", nil)
}
