package config

const (
	ProductGrafana  = "grafana"
	ProductDirectus = "directus"

	DefaultConfigPath = "~/.confsync/config.yaml"
)

// Config is the file-backed configuration. Every field can be overridden
// by a CLI flag; credentials and base URL always end up as explicit
// adapter construction parameters, so a diff between two live instances
// can hold two servers at once.
type Config struct {
	Server    Server   `yaml:"server"`
	Snapshot  Snapshot `yaml:"snapshot"`
	PostApply string   `yaml:"post-apply,omitempty"`
}

type Server struct {
	// Product selects the adapter: grafana or directus.
	Product string `yaml:"product,omitempty"`
	BaseURL string `yaml:"base-url"`
	Auth    *Auth  `yaml:"auth,omitempty"`

	// TimeoutSeconds bounds each remote call. Zero means the default.
	TimeoutSeconds int `yaml:"timeout-seconds,omitempty"`
}

type Auth struct {
	BasicAuth   *BasicAuth       `yaml:"basic-auth,omitempty"`
	BearerToken *BearerTokenAuth `yaml:"bearer-token,omitempty"`
}

type BasicAuth struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type BearerTokenAuth struct {
	Token string `yaml:"token"`
}

type Snapshot struct {
	Path string `yaml:"path"`

	// Commit records each export as a git commit in the snapshot tree.
	Commit bool `yaml:"commit,omitempty"`

	// AutoInit initializes a git repository under the snapshot path when
	// committing into a directory that has none. Defaults to true.
	AutoInit *bool `yaml:"auto-init,omitempty"`
}

func (s Snapshot) AutoInitEnabled() bool {
	if s.AutoInit == nil {
		return true
	}
	return *s.AutoInit
}
