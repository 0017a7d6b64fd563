package config_test

import (
	"os"
	"strings"
	"testing"

	"twinline/internal/config"
)

func TestDefaultTemplateIsValid(t *testing.T) {
	cfg, err := config.FromYAML([]byte(config.GenerateDefault("acme")))
	if err != nil {
		t.Fatalf("default template: %v", err)
	}
	if cfg.Organisation.ID != "acme" || cfg.HorizonMonths() != 12 || cfg.Server.BasePath != "/v0" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if d := config.Default("acme"); d.Organisation.ID != "acme" || d.Logging.Level != "info" {
		t.Fatalf("Default: %+v", d)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"organisation.id":        "organisation:\n  id: \"\"\n",
		"default_horizon_months": "organisation:\n  id: x\nengine:\n  default_horizon_months: 61\n",
		"base_path":              "organisation:\n  id: x\nserver:\n  base_path: v0\n",
		"logging.level":          "organisation:\n  id: x\nlogging:\n  level: loud\n",
		"absolute URL":           "organisation:\n  id: x\nwebhooks:\n  - url: /relative\n",
	}
	for want, doc := range cases {
		_, err := config.FromYAML([]byte(doc))
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Errorf("%s: got %v", want, err)
		}
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.LoadOptional(dir)
	if err != nil || cfg != nil {
		t.Fatalf("missing file: cfg=%v err=%v", cfg, err)
	}
	if _, err := config.Load(dir); err == nil {
		t.Fatalf("Load should fail without twin.yml")
	}
	doc := "organisation:\n  id: acme\nwebhooks:\n  - url: http://localhost:9000/h\n    enabled: false\n  - url: http://localhost:9000/g\n"
	if err := os.WriteFile(config.Path(dir), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = config.LoadOptional(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Webhooks[0].IsEnabled() || !cfg.Webhooks[1].IsEnabled() {
		t.Fatalf("enabled flags: %+v", cfg.Webhooks)
	}
}
