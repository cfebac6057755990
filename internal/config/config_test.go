package config_test

import (
	"strings"
	"testing"

	"github.com/pourlane/ordercore/internal/config"
)

const validYAML = `
server:
  log_level: info
  metrics_listen_addr: ":9090"
catalog:
  source: yaml
  path: menu.yaml
matching:
  min_confidence: 0.3
  phonetic_threshold: 0.7
taxonomy:
  overlap_threshold: 0.75
confidence:
  confirm_threshold: 0.9
  review_threshold: 0.75
providers:
  extraction:
    name: openai
    model: gpt-4o
    api_key: sk-test
  embeddings:
    name: openai
    model: text-embedding-3-small
  similarity:
    name: embedding
`

func TestLoadFromReader_Valid(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("log_level = %q, want info", cfg.Server.LogLevel)
	}
	if cfg.Catalog.Source != config.CatalogSourceYAML || cfg.Catalog.Path != "menu.yaml" {
		t.Errorf("catalog = %+v", cfg.Catalog)
	}
	if cfg.Matching.MinConfidence != 0.3 {
		t.Errorf("min_confidence = %v, want 0.3", cfg.Matching.MinConfidence)
	}
	if cfg.Providers.Extraction.Name != "openai" || cfg.Providers.Extraction.Model != "gpt-4o" {
		t.Errorf("extraction provider = %+v", cfg.Providers.Extraction)
	}
}

func TestLoadFromReader_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "bad log level",
			yaml: "server:\n  log_level: bananas\n",
		},
		{
			name: "bad catalog source",
			yaml: "catalog:\n  source: dynamodb\n",
		},
		{
			name: "yaml source without path",
			yaml: "catalog:\n  source: yaml\n",
		},
		{
			name: "postgres source without dsn",
			yaml: "catalog:\n  source: postgres\n",
		},
		{
			name: "threshold out of range",
			yaml: "matching:\n  min_confidence: 1.5\n",
		},
		{
			name: "review above confirm",
			yaml: "confidence:\n  confirm_threshold: 0.8\n  review_threshold: 0.95\n",
		},
		{
			name: "pgvector without dsn",
			yaml: "providers:\n  similarity:\n    name: pgvector\n",
		},
		{
			name: "unknown top-level field",
			yaml: "serverr:\n  log_level: info\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := config.LoadFromReader(strings.NewReader(tt.yaml)); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("log_level = %q, want info", cfg.Server.LogLevel)
	}
	if cfg.Catalog.Source != config.CatalogSourceYAML {
		t.Errorf("catalog source = %q, want yaml", cfg.Catalog.Source)
	}
	if cfg.Matching.MinConfidence != 0.3 || cfg.Matching.PhoneticThreshold != 0.70 {
		t.Errorf("matching defaults = %+v", cfg.Matching)
	}
	if cfg.Taxonomy.OverlapThreshold != 0.75 {
		t.Errorf("overlap threshold = %v, want 0.75", cfg.Taxonomy.OverlapThreshold)
	}
	if cfg.Confidence.ConfirmThreshold != 0.90 || cfg.Confidence.ReviewThreshold != 0.75 {
		t.Errorf("confidence defaults = %+v", cfg.Confidence)
	}
	if cfg.Confidence.SizeBonus != 0.05 || cfg.Confidence.TemperatureBonus != 0.05 {
		t.Errorf("confidence bonuses = %+v", cfg.Confidence)
	}
}

func TestDiff(t *testing.T) {
	base := func() *config.Config {
		cfg := &config.Config{}
		config.ApplyDefaults(cfg)
		return cfg
	}

	t.Run("no changes", func(t *testing.T) {
		d := config.Diff(base(), base())
		if d.LogLevelChanged || d.ThresholdsChanged || d.CatalogChanged {
			t.Errorf("diff = %+v, want all false", d)
		}
	})

	t.Run("log level", func(t *testing.T) {
		after := base()
		after.Server.LogLevel = config.LogDebug
		d := config.Diff(base(), after)
		if !d.LogLevelChanged || d.NewLogLevel != config.LogDebug {
			t.Errorf("diff = %+v, want log level change to debug", d)
		}
	})

	t.Run("thresholds", func(t *testing.T) {
		after := base()
		after.Matching.MinConfidence = 0.5
		if d := config.Diff(base(), after); !d.ThresholdsChanged {
			t.Error("threshold change not detected")
		}
	})

	t.Run("catalog", func(t *testing.T) {
		after := base()
		after.Catalog.Path = "other.yaml"
		if d := config.Diff(base(), after); !d.CatalogChanged {
			t.Error("catalog change not detected")
		}
	})
}
