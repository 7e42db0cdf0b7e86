package directus

import "github.com/crmarques/confsync/resource"

const (
	kindRoles       = "roles"
	kindPermissions = "permissions"
	kindWebhooks    = "webhooks"
	kindFlows       = "flows"
	kindOperations  = "operations"
	kindSettings    = "settings"
)

// Every Directus listing wraps its results in a data envelope.
const dataEnvelope = ".data"

// Model returns the Directus kind table without a server connection.
func Model() (*resource.Model, error) {
	return newModel()
}

func newModel() (*resource.Model, error) {
	return resource.NewModel(
		resource.Kind{
			Name:           kindRoles,
			IdentityField:  "id",
			FilenameFields: []string{"name"},
			Ops:            resource.AllOps(),
			ListQuery:      dataEnvelope,
			IgnoreFields:   []string{"users"},
		},
		resource.Kind{
			Name:          kindPermissions,
			IdentityField: "id",
			DependsOn:     []string{kindRoles},
			RefFields:     map[string]string{"role": kindRoles},
			Ops:           resource.AllOps(),
			ListQuery:     dataEnvelope,
		},
		resource.Kind{
			Name:           kindWebhooks,
			IdentityField:  "id",
			FilenameFields: []string{"name"},
			Ops:            resource.AllOps(),
			ListQuery:      dataEnvelope,
		},
		resource.Kind{
			Name:           kindFlows,
			IdentityField:  "id",
			FilenameFields: []string{"name"},
			Ops:            resource.AllOps(),
			ListQuery:      dataEnvelope,
			IgnoreFields:   []string{"operations", "user_created", "date_created"},
		},
		resource.Kind{
			Name:           kindOperations,
			IdentityField:  "id",
			FilenameFields: []string{"name"},
			DependsOn:      []string{kindFlows},
			RefFields:      map[string]string{"flow": kindFlows},
			Ops:            resource.AllOps(),
			ListQuery:      dataEnvelope,
			IgnoreFields:   []string{"user_created", "date_created"},
		},
		resource.Kind{
			Name:          kindSettings,
			IdentityField: "uid",
			Ops:           resource.UpdateOnly(),
			Singleton:     true,
			ListQuery:     dataEnvelope,
			IgnoreFields:  []string{"id", "mv_hash", "mv_ts", "mv_locked"},
		},
	)
}
