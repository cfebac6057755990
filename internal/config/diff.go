package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked; catalog and
// provider changes require a restart.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// ThresholdsChanged is true when any matching, taxonomy, or confidence
	// tuning value changed. New conversations pick the values up; open
	// conversations keep the thresholds they started with.
	ThresholdsChanged bool

	// CatalogChanged is true when the catalog source or location changed.
	// This is reported but not hot-applied.
	CatalogChanged bool
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Matching != new.Matching ||
		old.Taxonomy != new.Taxonomy ||
		old.Confidence != new.Confidence {
		d.ThresholdsChanged = true
	}

	if old.Catalog != new.Catalog {
		d.CatalogChanged = true
	}

	return d
}
