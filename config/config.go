// Package config loads the library's policy knobs from YAML: redaction
// levels, cache validation limits, and registry mapping overrides. Callers
// that construct everything programmatically never need it; the CLI and
// service embeddings do.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/registrylabs/rdapnorm"
	"github.com/registrylabs/rdapnorm/cachesec"
	"github.com/registrylabs/rdapnorm/mapping"
	"github.com/registrylabs/rdapnorm/redact"
)

// Config is the YAML document root.
type Config struct {
	Redaction RedactionConfig          `yaml:"redaction"`
	Cache     CacheConfig              `yaml:"cache"`
	Mappings  map[string][]mapping.Rename `yaml:"mappings"`
}

// RedactionConfig sets per-class redaction levels ("full" or "partial").
type RedactionConfig struct {
	Levels map[string]string `yaml:"levels"`
}

// CacheConfig sets validator limits. Durations are plain integer seconds.
type CacheConfig struct {
	MaxTTLSeconds         int                           `yaml:"max_ttl_seconds"`
	DriftToleranceSeconds int                           `yaml:"drift_tolerance_seconds"`
	SizeRanges            map[string]cachesec.SizeRange `yaml:"size_ranges"`
	DefaultRange          cachesec.SizeRange            `yaml:"default_size_range"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			MaxTTLSeconds:         int((24 * time.Hour).Seconds()),
			DriftToleranceSeconds: int((5 * time.Minute).Seconds()),
		},
	}
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: caller controls path
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the rest of the module would have to guess about.
func (c *Config) Validate() error {
	for class, level := range c.Redaction.Levels {
		switch rdapnorm.PIIType(class) {
		case rdapnorm.PIIName, rdapnorm.PIIEmail, rdapnorm.PIIPhone, rdapnorm.PIIAddress:
		default:
			return fmt.Errorf("redaction.levels: unknown PII class %q", class)
		}
		switch redact.Level(level) {
		case redact.LevelFull, redact.LevelPartial:
		default:
			return fmt.Errorf("redaction.levels.%s: unknown level %q", class, level)
		}
	}
	if c.Cache.MaxTTLSeconds <= 0 {
		return fmt.Errorf("cache.max_ttl_seconds must be positive")
	}
	if c.Cache.DriftToleranceSeconds < 0 {
		return fmt.Errorf("cache.drift_tolerance_seconds must not be negative")
	}
	for registry, r := range c.Cache.SizeRanges {
		if r.Min < 0 || (r.Max != 0 && r.Max < r.Min) {
			return fmt.Errorf("cache.size_ranges.%s: invalid range [%d, %d]", registry, r.Min, r.Max)
		}
	}
	for registry, renames := range c.Mappings {
		for i, rn := range renames {
			if rn.From == "" || rn.To == "" {
				return fmt.Errorf("mappings.%s[%d]: from and to are required", registry, i)
			}
		}
	}
	return nil
}

// RedactionPolicy converts the config into the engine's policy.
func (c *Config) RedactionPolicy() redact.Policy {
	if len(c.Redaction.Levels) == 0 {
		return redact.DefaultPolicy()
	}
	levels := make(map[rdapnorm.PIIType]redact.Level, len(c.Redaction.Levels))
	for class, level := range c.Redaction.Levels {
		levels[rdapnorm.PIIType(class)] = redact.Level(level)
	}
	return redact.Policy{Levels: levels}
}

// CacheLimits converts the config into validator limits.
func (c *Config) CacheLimits() cachesec.Limits {
	limits := cachesec.DefaultLimits()
	limits.MaxTTL = time.Duration(c.Cache.MaxTTLSeconds) * time.Second
	limits.DriftTolerance = time.Duration(c.Cache.DriftToleranceSeconds) * time.Second
	if c.Cache.DefaultRange != (cachesec.SizeRange{}) {
		limits.DefaultSizeRange = c.Cache.DefaultRange
	}
	if len(c.Cache.SizeRanges) > 0 {
		limits.SizeRanges = c.Cache.SizeRanges
	}
	return limits
}

// ApplyMappings installs registry mapping overrides.
func (c *Config) ApplyMappings() {
	for registry, renames := range c.Mappings {
		mapping.Override(registry, renames)
	}
}
