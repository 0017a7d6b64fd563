package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const FileName = "twin.yml"

// Config models twin.yml.
type Config struct {
	Organisation struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"organisation"`
	Engine struct {
		DefaultHorizonMonths int `yaml:"default_horizon_months"`
	} `yaml:"engine"`
	Server struct {
		Addr      string `yaml:"addr"`
		BasePath  string `yaml:"base_path"`
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"server"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

type WebhookConfig struct {
	URL            string   `yaml:"url"`
	Events         []string `yaml:"events"`
	Secret         string   `yaml:"secret"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	Enabled        *bool    `yaml:"enabled"`
}

// IsEnabled reports whether the hook is active; hooks are enabled unless disabled explicitly.
func (w WebhookConfig) IsEnabled() bool {
	return w.Enabled == nil || *w.Enabled
}

var logLevels = map[string]bool{"": true, "info": true, "debug": true, "trace": true}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with twin config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Organisation.ID) == "" {
		return fmt.Errorf("config.organisation.id is required")
	}
	if h := c.Engine.DefaultHorizonMonths; h != 0 && (h < 1 || h > 60) {
		return fmt.Errorf("config.engine.default_horizon_months must be within [1,60], got %d", h)
	}
	if bp := c.Server.BasePath; bp != "" && !strings.HasPrefix(bp, "/") {
		return fmt.Errorf("config.server.base_path must start with '/'")
	}
	if !logLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("config.logging.level must be one of info, debug, trace")
	}
	for i, hook := range c.Webhooks {
		u, err := url.Parse(hook.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("webhooks[%d].url must be an absolute URL", i)
		}
		if hook.TimeoutSeconds < 0 {
			return fmt.Errorf("webhooks[%d].timeout_seconds must not be negative", i)
		}
		for _, evt := range hook.Events {
			if evt == "" {
				return fmt.Errorf("webhooks[%d] has empty event type", i)
			}
		}
	}
	return nil
}

// HorizonMonths returns the configured default simulation horizon, or 12.
func (c *Config) HorizonMonths() int {
	if c == nil || c.Engine.DefaultHorizonMonths == 0 {
		return 12
	}
	return c.Engine.DefaultHorizonMonths
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, FileName)
}

// GenerateDefault returns default config YAML.
func GenerateDefault(orgID string) string {
	return fmt.Sprintf(defaultTemplate, orgID)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the default Config struct for an organisation.
func Default(orgID string) *Config {
	var cfg Config
	_ = yaml.Unmarshal([]byte(GenerateDefault(orgID)), &cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `organisation:
  id: %s
  name: ""

engine:
  default_horizon_months: 12

server:
  addr: "127.0.0.1:8080"
  base_path: /v0
  # jwt_secret enables bearer auth on every route except /health.
  jwt_secret: ""

logging:
  level: info

# webhooks:
#   - url: https://example.com/hooks/twin
#     events: [simulation.run, plan.created]
#     secret: change-me
#     timeout_seconds: 5
webhooks: []
`
