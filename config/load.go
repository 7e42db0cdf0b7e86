package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/crmarques/confsync/faults"
)

// Load reads a config file. Environment references (${VAR}) inside
// credential fields are expanded at load time, so tokens never need to
// live in the file itself. A missing file at the default location is not
// an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}

	resolved, err := expandHome(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return &Config{}, nil
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, faults.NewTypedError(faults.NotFoundError, fmt.Sprintf("config file %q does not exist", path), nil)
		}
		return nil, faults.NewTypedError(faults.InternalError, "failed to read config file", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, faults.NewTypedError(faults.ValidationError, fmt.Sprintf("config file %q is not valid YAML", path), err)
	}

	expandCredentials(&cfg)
	return &cfg, nil
}

func expandCredentials(cfg *Config) {
	if cfg.Server.Auth == nil {
		return
	}
	if basic := cfg.Server.Auth.BasicAuth; basic != nil {
		basic.Username = os.ExpandEnv(basic.Username)
		basic.Password = os.ExpandEnv(basic.Password)
	}
	if bearer := cfg.Server.Auth.BearerToken; bearer != nil {
		bearer.Token = os.ExpandEnv(bearer.Token)
	}
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", faults.NewTypedError(faults.InternalError, "failed to resolve home directory", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
