package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"extraction": {"openai", "anthropic", "gemini", "ollama", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"embeddings": {"openai"},
	"similarity": {"embedding", "pgvector"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Catalog
	if cfg.Catalog.Source != "" && !cfg.Catalog.Source.IsValid() {
		errs = append(errs, fmt.Errorf("catalog.source %q is invalid; valid values: yaml, postgres", cfg.Catalog.Source))
	}
	if cfg.Catalog.Source == CatalogSourceYAML && cfg.Catalog.Path == "" {
		errs = append(errs, errors.New("catalog.path is required when catalog.source is yaml"))
	}
	if cfg.Catalog.Source == CatalogSourcePostgres && cfg.Catalog.PostgresDSN == "" {
		errs = append(errs, errors.New("catalog.postgres_dsn is required when catalog.source is postgres"))
	}

	// Thresholds must stay inside [0,1].
	for _, th := range []struct {
		name  string
		value float64
	}{
		{"matching.min_confidence", cfg.Matching.MinConfidence},
		{"matching.phonetic_threshold", cfg.Matching.PhoneticThreshold},
		{"taxonomy.overlap_threshold", cfg.Taxonomy.OverlapThreshold},
		{"confidence.confirm_threshold", cfg.Confidence.ConfirmThreshold},
		{"confidence.review_threshold", cfg.Confidence.ReviewThreshold},
		{"confidence.size_bonus", cfg.Confidence.SizeBonus},
		{"confidence.temperature_bonus", cfg.Confidence.TemperatureBonus},
	} {
		if th.value < 0 || th.value > 1 {
			errs = append(errs, fmt.Errorf("%s %.2f is out of range [0, 1]", th.name, th.value))
		}
	}
	if cfg.Confidence.ConfirmThreshold != 0 && cfg.Confidence.ReviewThreshold > cfg.Confidence.ConfirmThreshold {
		errs = append(errs, fmt.Errorf("confidence.review_threshold %.2f must not exceed confidence.confirm_threshold %.2f",
			cfg.Confidence.ReviewThreshold, cfg.Confidence.ConfirmThreshold))
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("extraction", cfg.Providers.Extraction.Name)
	for _, fb := range cfg.Providers.ExtractionFallbacks {
		validateProviderName("extraction", fb.Name)
	}
	validateProviderName("embeddings", cfg.Providers.Embeddings.Name)
	validateProviderName("similarity", cfg.Providers.Similarity.Name)

	// The semantic match tier needs embeddings under either ranker.
	if cfg.Providers.Similarity.Name != "" && cfg.Providers.Embeddings.Name == "" {
		slog.Warn("providers.similarity is configured without providers.embeddings; the semantic match tier will be unavailable")
	}
	if cfg.Providers.Similarity.Name == "pgvector" && cfg.Catalog.PostgresDSN == "" {
		errs = append(errs, errors.New("providers.similarity \"pgvector\" requires catalog.postgres_dsn"))
	}
	if len(cfg.Providers.ExtractionFallbacks) > 0 && cfg.Providers.Extraction.Name == "" {
		errs = append(errs, errors.New("providers.extraction_fallbacks requires providers.extraction"))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}

// ApplyDefaults fills zero-valued tuning fields with the engine defaults so
// callers can pass the config straight to the engine constructors.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Catalog.Source == "" {
		cfg.Catalog.Source = CatalogSourceYAML
	}
	if cfg.Matching.MinConfidence == 0 {
		cfg.Matching.MinConfidence = 0.3
	}
	if cfg.Matching.PhoneticThreshold == 0 {
		cfg.Matching.PhoneticThreshold = 0.70
	}
	if cfg.Taxonomy.OverlapThreshold == 0 {
		cfg.Taxonomy.OverlapThreshold = 0.75
	}
	if cfg.Confidence.ConfirmThreshold == 0 {
		cfg.Confidence.ConfirmThreshold = 0.90
	}
	if cfg.Confidence.ReviewThreshold == 0 {
		cfg.Confidence.ReviewThreshold = 0.75
	}
	if cfg.Confidence.SizeBonus == 0 {
		cfg.Confidence.SizeBonus = 0.05
	}
	if cfg.Confidence.TemperatureBonus == 0 {
		cfg.Confidence.TemperatureBonus = 0.05
	}
}
