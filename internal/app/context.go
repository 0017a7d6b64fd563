package app

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"twinline/internal/config"
	"twinline/internal/db"
	"twinline/internal/migrate"
	"twinline/internal/twin"
)

const DefaultOrgID = "default-org"

// LoadContextFile reads an organisation context from a YAML or JSON file. Unknown keys are
// rejected so typos do not silently fall back to defaults.
func LoadContextFile(path string) (twin.Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return twin.Context{}, err
	}
	return ParseContext(data)
}

// ParseContext decodes a YAML (or JSON) context document.
func ParseContext(data []byte) (twin.Context, error) {
	var c twin.Context
	if len(bytes.TrimSpace(data)) == 0 {
		return c, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return twin.Context{}, fmt.Errorf("invalid context document: %w", err)
	}
	return c, nil
}

// ResolveConfig loads twin.yml from the workspace, falling back to defaults, and applies an
// organisation override.
func ResolveConfig(workspace, orgOverride string) (*config.Config, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default(DefaultOrgID)
	}
	if o := strings.TrimSpace(orgOverride); o != "" {
		cfg.Organisation.ID = o
	}
	return cfg, nil
}

// OpenWorkspace opens and migrates the workspace database and resolves its config.
func OpenWorkspace(ctx context.Context, workspace, orgOverride string) (*sql.DB, *config.Config, error) {
	cfg, err := ResolveConfig(workspace, orgOverride)
	if err != nil {
		return nil, nil, err
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, nil, err
	}
	if _, err := migrate.Apply(ctx, conn); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return conn, cfg, nil
}
