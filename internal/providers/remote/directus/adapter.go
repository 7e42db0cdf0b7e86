// Package directus adapts the generic resource operations onto the
// Directus system collections: roles, permissions, webhooks, flows,
// flow operations, and project settings.
package directus

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-logr/logr"

	"github.com/crmarques/confsync/config"
	"github.com/crmarques/confsync/faults"
	"github.com/crmarques/confsync/internal/providers/remote/httpapi"
	"github.com/crmarques/confsync/remote"
	"github.com/crmarques/confsync/resource"
)

// The system API is uniform: list at the collection path, item at
// path/{id}, everything wrapped in a data envelope. Kinds that deviate
// mark it here instead of growing bespoke methods.
type route struct {
	path            string
	singleton       bool
	deleteSupported bool
}

var routes = map[string]route{
	kindRoles:       {path: "/roles"},
	kindPermissions: {path: "/permissions", deleteSupported: true},
	kindWebhooks:    {path: "/webhooks"},
	kindFlows:       {path: "/flows", deleteSupported: true},
	kindOperations:  {path: "/operations", deleteSupported: true},
	kindSettings:    {path: "/settings", singleton: true},
}

type Adapter struct {
	client *httpapi.Client
	model  *resource.Model
	log    logr.Logger
}

var _ remote.Adapter = (*Adapter)(nil)

func New(cfg config.Server, log logr.Logger) (*Adapter, error) {
	client, err := httpapi.NewClient(cfg, log)
	if err != nil {
		return nil, err
	}
	model, err := newModel()
	if err != nil {
		return nil, err
	}
	return &Adapter{
		client: client,
		model:  model,
		log:    log.WithName("directus"),
	}, nil
}

func (a *Adapter) Model() *resource.Model {
	return a.model
}

// Check hits an authenticated endpoint; Directus has no unauthenticated
// health probe that also proves credentials.
func (a *Adapter) Check(ctx context.Context) error {
	_, err := a.client.Get(ctx, "/users/me", nil)
	return err
}

func (a *Adapter) List(ctx context.Context, kind resource.Kind) ([]resource.Instance, error) {
	kindRoute, err := routeFor(kind)
	if err != nil {
		return nil, err
	}

	query := map[string]string{"limit": "-1"}
	if kindRoute.singleton {
		query = nil
	}
	payload, err := a.client.Get(ctx, kindRoute.path, query)
	if err != nil {
		return nil, err
	}
	items, err := httpapi.ExtractList(payload, kind.ListQuery)
	if err != nil {
		return nil, err
	}

	instances := make([]resource.Instance, 0, len(items))
	for _, item := range items {
		instance, err := remote.InstanceFromPayload(kind, item)
		if err != nil {
			return nil, err
		}
		instances = append(instances, instance)
	}
	return instances, nil
}

func (a *Adapter) Get(ctx context.Context, kind resource.Kind, key string) (resource.Instance, error) {
	kindRoute, err := routeFor(kind)
	if err != nil {
		return resource.Instance{}, err
	}

	payload, err := a.client.Get(ctx, itemPath(kindRoute, key), nil)
	if err != nil {
		return resource.Instance{}, err
	}
	item, err := unwrapData(payload)
	if err != nil {
		return resource.Instance{}, err
	}
	return remote.InstanceFromPayload(kind, item)
}

func (a *Adapter) Create(ctx context.Context, kind resource.Kind, payload map[string]any) (string, error) {
	kindRoute, err := routeFor(kind)
	if err != nil {
		return "", err
	}
	if kindRoute.singleton {
		return "", remote.NotImplemented("create", kind)
	}

	response, err := a.client.Do(ctx, http.MethodPost, kindRoute.path, nil, payload)
	if err != nil {
		return "", err
	}
	created, err := unwrapData(response)
	if err != nil {
		return "", err
	}
	normalized, err := resource.NormalizeObject(created)
	if err != nil {
		return "", err
	}
	return remote.IdentityKey(kind, normalized)
}

func (a *Adapter) Update(ctx context.Context, kind resource.Kind, key string, payload map[string]any) error {
	kindRoute, err := routeFor(kind)
	if err != nil {
		return err
	}
	_, err = a.client.Do(ctx, http.MethodPatch, itemPath(kindRoute, key), nil, payload)
	return err
}

// Delete is withheld for kinds whose removal cascades into user data;
// roles own users and webhooks drop delivery history.
func (a *Adapter) Delete(ctx context.Context, kind resource.Kind, key string) error {
	kindRoute, err := routeFor(kind)
	if err != nil {
		return err
	}
	if kindRoute.singleton || !kindRoute.deleteSupported {
		return remote.NotImplemented("delete", kind)
	}
	_, err = a.client.Do(ctx, http.MethodDelete, itemPath(kindRoute, key), nil, nil)
	return err
}

func routeFor(kind resource.Kind) (route, error) {
	kindRoute, ok := routes[kind.Name]
	if !ok {
		return route{}, faults.NewTypedError(
			faults.InternalError,
			fmt.Sprintf("kind %q is not part of the directus model", kind.Name),
			nil,
		)
	}
	return kindRoute, nil
}

func itemPath(kindRoute route, key string) string {
	if kindRoute.singleton {
		return kindRoute.path
	}
	return kindRoute.path + "/" + key
}

func unwrapData(payload any) (map[string]any, error) {
	envelope, ok := payload.(map[string]any)
	if !ok {
		return nil, faults.NewTypedError(
			faults.ValidationError,
			fmt.Sprintf("remote response is %T, expected a data envelope", payload),
			nil,
		)
	}
	item, ok := envelope["data"].(map[string]any)
	if !ok {
		return nil, faults.NewTypedError(faults.ValidationError, "remote response has no data object", nil)
	}
	return item, nil
}
