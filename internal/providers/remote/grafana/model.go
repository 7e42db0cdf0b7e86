package grafana

import "github.com/crmarques/confsync/resource"

const (
	kindPlugins               = "plugins"
	kindFolders               = "folders"
	kindDatasources           = "datasources"
	kindLibraryElements       = "library-elements"
	kindDashboards            = "dashboards"
	kindAlertRules            = "alert-rules"
	kindContactPoints         = "contact-points"
	kindNotificationPolicy    = "notification-policy"
	kindNotificationTemplates = "notification-templates"
	kindTeams                 = "teams"
)

// Provisioning endpoints for alerting landed with unified alerting.
const alertingMinVersion = "9.0.0"

// Model returns the Grafana kind table without a server connection.
func Model() (*resource.Model, error) {
	return newModel()
}

func newModel() (*resource.Model, error) {
	return resource.NewModel(
		resource.Kind{
			Name:           kindFolders,
			IdentityField:  "uid",
			FilenameFields: []string{"title"},
			Ops:            resource.AllOps(),
			IgnoreFields: []string{
				"id", "version", "url", "created", "updated",
				"createdBy", "updatedBy", "hasAcl",
				"canAdmin", "canDelete", "canEdit", "canSave",
			},
		},
		resource.Kind{
			Name:           kindPlugins,
			IdentityField:  "id",
			FilenameFields: []string{"name"},
			Ops:            resource.AllOps(),
			IgnoreFields: []string{
				"info", "latestVersion", "hasUpdate", "state",
				"signature", "signatureType", "signatureOrg",
			},
		},
		resource.Kind{
			Name:           kindDatasources,
			IdentityField:  "uid",
			FilenameFields: []string{"name"},
			DependsOn:      []string{kindPlugins},
			Ops:            resource.AllOps(),
			IgnoreFields:   []string{"id", "version", "readOnly"},
		},
		resource.Kind{
			Name:           kindTeams,
			IdentityField:  "id",
			FilenameFields: []string{"name"},
			Ops:            resource.AllOps(),
			ListQuery:      ".teams",
			IgnoreFields:   []string{"memberCount", "permission", "avatarUrl", "orgId"},
		},
		resource.Kind{
			Name:           kindLibraryElements,
			IdentityField:  "uid",
			FilenameFields: []string{"name"},
			DependsOn:      []string{kindFolders},
			RefFields:      map[string]string{"folderUid": kindFolders},
			Ops:            resource.AllOps(),
			ListQuery:      ".result.elements",
			IgnoreFields:   []string{"id", "folderId", "meta", "version"},
		},
		resource.Kind{
			Name:           kindDashboards,
			IdentityField:  "uid",
			FilenameFields: []string{"title"},
			DependsOn:      []string{kindFolders, kindDatasources, kindLibraryElements},
			RefFields:      map[string]string{"folderUid": kindFolders},
			Ops:            resource.AllOps(),
			IgnoreFields:   []string{"id", "version"},
		},
		resource.Kind{
			Name:             kindContactPoints,
			IdentityField:    "uid",
			FilenameFields:   []string{"name"},
			Ops:              resource.AllOps(),
			MinServerVersion: alertingMinVersion,
			IgnoreFields:     []string{"provenance"},
		},
		resource.Kind{
			Name:             kindAlertRules,
			IdentityField:    "uid",
			FilenameFields:   []string{"title"},
			DependsOn:        []string{kindFolders, kindDatasources, kindContactPoints},
			RefFields:        map[string]string{"folderUID": kindFolders},
			Ops:              resource.AllOps(),
			MinServerVersion: alertingMinVersion,
			IgnoreFields:     []string{"id", "updated", "provenance"},
		},
		resource.Kind{
			Name:             kindNotificationTemplates,
			IdentityField:    "name",
			Ops:              resource.AllOps(),
			MinServerVersion: alertingMinVersion,
			IgnoreFields:     []string{"provenance", "version"},
		},
		resource.Kind{
			Name:             kindNotificationPolicy,
			IdentityField:    "uid",
			Ops:              resource.UpdateOnly(),
			Singleton:        true,
			DependsOn:        []string{kindContactPoints},
			MinServerVersion: alertingMinVersion,
			IgnoreFields:     []string{"provenance"},
		},
	)
}
