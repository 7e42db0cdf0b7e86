package grafana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-logr/logr"

	"github.com/crmarques/confsync/config"
	"github.com/crmarques/confsync/faults"
)

func newTestAdapter(t *testing.T, handler http.Handler) (*Adapter, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter, err := New(config.Server{BaseURL: server.URL}, logr.Discard())
	if err != nil {
		t.Fatalf("failed to create adapter: %v", err)
	}
	return adapter, server
}

func writeJSON(t *testing.T, w http.ResponseWriter, value any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(value); err != nil {
		t.Fatalf("failed to encode response: %v", err)
	}
}

func TestListDashboardsHydratesAndInjectsFolder(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("type") != "dash-db" {
			t.Errorf("unexpected search type %q", r.URL.Query().Get("type"))
		}
		writeJSON(t, w, []any{map[string]any{"uid": "dash-1", "title": "Overview"}})
	})
	mux.HandleFunc("/api/dashboards/uid/dash-1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"dashboard": map[string]any{"uid": "dash-1", "id": 42, "title": "Overview"},
			"meta":      map[string]any{"folderUid": "ops-folder"},
		})
	})

	adapter, _ := newTestAdapter(t, mux)
	kind, _ := adapter.Model().Kind(kindDashboards)

	instances, err := adapter.List(context.Background(), kind)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(instances) != 1 {
		t.Fatalf("expected 1 dashboard, got %d", len(instances))
	}
	dashboard := instances[0]
	if dashboard.Key != "dash-1" {
		t.Fatalf("unexpected key %q", dashboard.Key)
	}
	if dashboard.Payload["folderUid"] != "ops-folder" {
		t.Fatalf("folderUid not injected: %#v", dashboard.Payload)
	}
	if _, hasID := dashboard.Payload["id"]; hasID {
		t.Fatalf("database id should be stripped: %#v", dashboard.Payload)
	}
}

func TestSaveDashboardWrapsPayload(t *testing.T) {
	t.Parallel()

	var received map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/api/dashboards/db", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		writeJSON(t, w, map[string]any{"uid": "dash-1", "status": "success"})
	})

	adapter, _ := newTestAdapter(t, mux)
	kind, _ := adapter.Model().Kind(kindDashboards)

	serverKey, err := adapter.Create(context.Background(), kind, map[string]any{
		"uid":       "dash-1",
		"title":     "Overview",
		"folderUid": "ops-folder",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if serverKey != "dash-1" {
		t.Fatalf("unexpected server key %q", serverKey)
	}
	if received["overwrite"] != true {
		t.Fatalf("overwrite not set: %#v", received)
	}
	if received["folderUid"] != "ops-folder" {
		t.Fatalf("folderUid not lifted to envelope: %#v", received)
	}
	dashboard, ok := received["dashboard"].(map[string]any)
	if !ok || dashboard["title"] != "Overview" {
		t.Fatalf("dashboard body missing: %#v", received)
	}
	if _, stillThere := dashboard["folderUid"]; stillThere {
		t.Fatalf("folderUid should move out of the dashboard body: %#v", dashboard)
	}
}

func TestCreateTeamReturnsAssignedID(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/teams", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"message": "Team created", "teamId": 17})
	})

	adapter, _ := newTestAdapter(t, mux)
	kind, _ := adapter.Model().Kind(kindTeams)

	serverKey, err := adapter.Create(context.Background(), kind, map[string]any{"name": "SRE"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if serverKey != "17" {
		t.Fatalf("unexpected team id %q", serverKey)
	}
}

func TestVersionGateDisablesAlertingOnOldServers(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"version": "8.5.27", "database": "ok"})
	})

	adapter, _ := newTestAdapter(t, mux)

	alertRules, _ := adapter.Model().Kind(kindAlertRules)
	supported, err := adapter.Supported(context.Background(), alertRules)
	if err != nil {
		t.Fatalf("version probe failed: %v", err)
	}
	if supported {
		t.Fatal("alert rules should be gated below 9.0.0")
	}

	dashboards, _ := adapter.Model().Kind(kindDashboards)
	supported, err = adapter.Supported(context.Background(), dashboards)
	if err != nil || !supported {
		t.Fatalf("ungated kind should stay supported, got %v %v", supported, err)
	}
}

func TestVersionGateAllowsAlertingOnCurrentServers(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"version": "10.4.2"})
	})

	adapter, _ := newTestAdapter(t, mux)
	contactPoints, _ := adapter.Model().Kind(kindContactPoints)

	supported, err := adapter.Supported(context.Background(), contactPoints)
	if err != nil || !supported {
		t.Fatalf("contact points should be supported on 10.4.2, got %v %v", supported, err)
	}
}

func TestCheckSurfacesAuthFailures(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"version": "10.0.0"})
	})
	mux.HandleFunc("/api/org", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	adapter, _ := newTestAdapter(t, mux)
	if err := adapter.Check(context.Background()); !faults.IsCategory(err, faults.AuthError) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestNotificationPolicyIsSingleInstance(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/provisioning/policies", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"receiver": "default", "group_by": []any{"alertname"}})
	})

	adapter, _ := newTestAdapter(t, mux)
	kind, _ := adapter.Model().Kind(kindNotificationPolicy)

	instances, err := adapter.List(context.Background(), kind)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(instances) != 1 {
		t.Fatalf("expected single policy instance, got %d", len(instances))
	}
	if instances[0].Key != kindNotificationPolicy {
		t.Fatalf("singleton key should fall back to the kind name, got %q", instances[0].Key)
	}
}

func TestNotificationTemplateCreateUpsertsByName(t *testing.T) {
	t.Parallel()

	var method, path string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/provisioning/templates/oncall", func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		writeJSON(t, w, map[string]any{"name": "oncall", "template": "{{ define \"oncall\" }}fire{{ end }}"})
	})

	adapter, _ := newTestAdapter(t, mux)
	kind, _ := adapter.Model().Kind(kindNotificationTemplates)

	serverKey, err := adapter.Create(context.Background(), kind, map[string]any{
		"name":     "oncall",
		"template": "{{ define \"oncall\" }}fire{{ end }}",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if serverKey != "oncall" {
		t.Fatalf("unexpected server key %q", serverKey)
	}
	if method != http.MethodPut || path != "/api/v1/provisioning/templates/oncall" {
		t.Fatalf("unexpected request %s %s", method, path)
	}

	if err := adapter.Update(context.Background(), kind, "oncall", map[string]any{
		"name":     "oncall",
		"template": "{{ define \"oncall\" }}resolved{{ end }}",
	}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if method != http.MethodPut {
		t.Fatalf("update should reuse the upsert endpoint, got %s", method)
	}
}

func TestNotificationTemplatesAreVersionGated(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"version": "8.5.27"})
	})

	adapter, _ := newTestAdapter(t, mux)
	kind, _ := adapter.Model().Kind(kindNotificationTemplates)

	supported, err := adapter.Supported(context.Background(), kind)
	if err != nil {
		t.Fatalf("version probe failed: %v", err)
	}
	if supported {
		t.Fatal("notification templates should be gated below 9.0.0")
	}
}

func TestInstallPluginPushesSettings(t *testing.T) {
	t.Parallel()

	var calls []string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/plugins/grafana-clock-panel/install", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "install")
		writeJSON(t, w, map[string]any{"message": "Plugin installed"})
	})
	mux.HandleFunc("/api/plugins/grafana-clock-panel/settings", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "settings")
		writeJSON(t, w, map[string]any{"message": "Plugin settings updated"})
	})

	adapter, _ := newTestAdapter(t, mux)
	kind, _ := adapter.Model().Kind(kindPlugins)

	serverKey, err := adapter.Create(context.Background(), kind, map[string]any{
		"id":      "grafana-clock-panel",
		"name":    "Clock",
		"enabled": true,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if serverKey != "grafana-clock-panel" {
		t.Fatalf("unexpected server key %q", serverKey)
	}
	if len(calls) != 2 || calls[0] != "install" || calls[1] != "settings" {
		t.Fatalf("expected install then settings, got %v", calls)
	}

	err = adapter.Delete(context.Background(), kind, "grafana-clock-panel")
	if !faults.IsCategory(err, faults.NotImplementedError) {
		t.Fatalf("plugin delete should be withheld, got %v", err)
	}
}

func TestLibraryElementUpdateIsNotImplemented(t *testing.T) {
	t.Parallel()

	adapter, _ := newTestAdapter(t, http.NewServeMux())
	kind, _ := adapter.Model().Kind(kindLibraryElements)

	err := adapter.Update(context.Background(), kind, "lib-1", map[string]any{"uid": "lib-1"})
	if !faults.IsCategory(err, faults.NotImplementedError) {
		t.Fatalf("expected not-implemented fault, got %v", err)
	}
}
