package grafana

import (
	"context"
	"fmt"
	"net/http"

	"github.com/crmarques/confsync/remote"
	"github.com/crmarques/confsync/resource"
)

// getContactPoint has no direct endpoint; provisioning exposes contact
// points only as a collection.
func (a *Adapter) getContactPoint(ctx context.Context, kind resource.Kind, key string) (resource.Instance, error) {
	instances, err := a.listPlain(ctx, kind, "/api/v1/provisioning/contact-points", nil)
	if err != nil {
		return resource.Instance{}, err
	}
	for _, instance := range instances {
		if instance.Key == key {
			return instance, nil
		}
	}
	return resource.Instance{}, notFoundError(fmt.Sprintf("contact point %q not found", key))
}

// putNotificationTemplate upserts by name, so creates and updates share
// one path and the snapshot key is always the server key.
func (a *Adapter) putNotificationTemplate(ctx context.Context, kind resource.Kind, payload map[string]any) (string, error) {
	name, ok := payload["name"].(string)
	if !ok || name == "" {
		return "", validationError("notification template payload has no name", nil)
	}
	if _, err := a.client.Do(ctx, http.MethodPut, "/api/v1/provisioning/templates/"+name, nil, payload); err != nil {
		return "", err
	}
	return name, nil
}

// listNotificationPolicy wraps the single policy tree as a one-element
// listing so the generic pipeline can treat it like any other kind.
func (a *Adapter) listNotificationPolicy(ctx context.Context, kind resource.Kind) ([]resource.Instance, error) {
	payload, err := a.client.Get(ctx, "/api/v1/provisioning/policies", nil)
	if err != nil {
		return nil, err
	}
	object, err := asObject(payload)
	if err != nil {
		return nil, err
	}
	instance, err := remote.InstanceFromPayload(kind, object)
	if err != nil {
		return nil, err
	}
	return []resource.Instance{instance}, nil
}
