package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/spf13/cobra"

	"github.com/crmarques/confsync/config"
	"github.com/crmarques/confsync/internal/providers/remote/directus"
	"github.com/crmarques/confsync/internal/providers/remote/grafana"
	"github.com/crmarques/confsync/internal/providers/snapshot/fsstore"
	"github.com/crmarques/confsync/internal/providers/snapshot/gitstore"
	"github.com/crmarques/confsync/reconciler"
	"github.com/crmarques/confsync/remote"
	"github.com/crmarques/confsync/resource"
	"github.com/crmarques/confsync/snapshot"
)

type handledError struct {
	msg string
}

func (handledError) handledMarker() {}

func (e handledError) Error() string {
	return e.msg
}

type handled interface {
	handledMarker()
}

func IsHandledError(err error) bool {
	if err == nil {
		return false
	}
	var h handled
	return errors.As(err, &h)
}

func usageError(cmd *cobra.Command, message string) error {
	msg := strings.TrimSpace(message)
	if msg == "" {
		msg = "invalid command usage"
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())

	return handledError{msg: msg}
}

func successf(cmd *cobra.Command, format string, args ...any) {
	if noStatusOutput {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "[OK] "+format+"\n", args...)
}

func infof(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}

func newLogger() logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, args)
		} else {
			fmt.Fprintln(os.Stderr, args)
		}
	}, funcr.Options{Verbosity: verbosity})
}

// loadSettings is mergedConfig plus the checks every server-facing
// command needs.
func loadSettings(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := mergedConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Server.BaseURL == "" {
		return nil, usageError(cmd, "server URL is required (--url or the config file)")
	}
	if cfg.Snapshot.Path == "" {
		return nil, usageError(cmd, "snapshot path is required (--path or the config file)")
	}
	return cfg, nil
}

// mergedConfig merges the configuration file with command-line
// overrides; flags win.
func mergedConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	configPath, _ := flags.GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if value, _ := flags.GetString("product"); value != "" {
		cfg.Server.Product = value
	}
	if value, _ := flags.GetString("url"); value != "" {
		cfg.Server.BaseURL = value
	}
	if value, _ := flags.GetInt("timeout"); value > 0 {
		cfg.Server.TimeoutSeconds = value
	}
	if value, _ := flags.GetString("path"); value != "" {
		cfg.Snapshot.Path = value
	}

	username, _ := flags.GetString("username")
	password, _ := flags.GetString("password")
	token, _ := flags.GetString("token")
	if username != "" || password != "" {
		cfg.Server.Auth = &config.Auth{
			BasicAuth: &config.BasicAuth{Username: username, Password: password},
		}
	}
	if token != "" {
		cfg.Server.Auth = &config.Auth{
			BearerToken: &config.BearerTokenAuth{Token: token},
		}
	}
	return cfg, nil
}

func newAdapter(cmd *cobra.Command, cfg *config.Config, log logr.Logger) (remote.Adapter, error) {
	switch cfg.Server.Product {
	case config.ProductGrafana, "":
		return grafana.New(cfg.Server, log)
	case config.ProductDirectus:
		return directus.New(cfg.Server, log)
	}
	return nil, usageError(cmd, fmt.Sprintf("unknown product %q (expected grafana or directus)", cfg.Server.Product))
}

// modelForProduct picks the product's kind table without building an
// adapter, for flows that never contact a server.
func modelForProduct(cmd *cobra.Command, product string) (*resource.Model, error) {
	switch product {
	case config.ProductGrafana, "":
		return grafana.Model()
	case config.ProductDirectus:
		return directus.Model()
	}
	return nil, usageError(cmd, fmt.Sprintf("unknown product %q (expected grafana or directus)", product))
}

func newStore(cfg *config.Config, withCommit bool) snapshot.Store {
	if withCommit || cfg.Snapshot.Commit {
		return gitstore.New(cfg.Snapshot.Path, cfg.Snapshot.AutoInitEnabled())
	}
	return fsstore.New(cfg.Snapshot.Path)
}

func loadReconciler(cmd *cobra.Command, withCommit bool) (*reconciler.Reconciler, *config.Config, error) {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return nil, nil, err
	}

	log := newLogger()
	adapter, err := newAdapter(cmd, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return reconciler.New(adapter, newStore(cfg, withCommit), log), cfg, nil
}

func splitKindList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	kinds := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			kinds = append(kinds, trimmed)
		}
	}
	return kinds
}
