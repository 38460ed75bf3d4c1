// Package config loads application settings for the docmerge CLI.
//
// Settings come from, in increasing precedence: built-in defaults, a YAML
// file, and DOCMERGE_* environment variables.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/docmerge/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Config is the application configuration.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Output    OutputConfig    `yaml:"output"`
	Data      DataConfig      `yaml:"data"`
	Redis     RedisConfig     `yaml:"redis"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Rendering RenderingConfig `yaml:"rendering"`
}

// LogConfig selects level and handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// OutputConfig controls where and how generated forms are written.
type OutputConfig struct {
	// Backend is "file", "memory" or "redis".
	Backend string   `yaml:"backend"`
	Dir     string   `yaml:"dir"`
	Formats []string `yaml:"formats"`
	// Workers bounds concurrent exports per form. Zero means one per format.
	Workers int           `yaml:"workers"`
	TTL     time.Duration `yaml:"ttl"`
	// EncryptionKey enables at-rest encryption of renditions: a base64
	// AES-256 key. FallbackKeys are older keys still accepted on load.
	EncryptionKey string   `yaml:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys"`
}

// Keys decodes the encryption keys. It returns a nil active key when
// encryption is off.
func (o OutputConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if o.EncryptionKey == "" {
		return nil, nil, nil
	}
	if active, err = decodeKey(o.EncryptionKey); err != nil {
		return nil, nil, fmt.Errorf("output.encryption_key: %w", err)
	}
	for i, k := range o.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("output.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("want 32 bytes, got %d", len(key))
	}
	return key, nil
}

// DataConfig points at field maps and reference data.
type DataConfig struct {
	FieldMaps string `yaml:"field_maps"`
	// ReferenceData is a YAML file path, or "redis" to read the published copy.
	ReferenceData string `yaml:"reference_data"`
}

// RedisConfig is the connection used by the redis backends.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
	RefKey   string `yaml:"reference_key"`
}

// MetricsConfig configures the serve command.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// RenderingConfig tunes directive output.
type RenderingConfig struct {
	MinimumPremiumSuffix string `yaml:"minimum_premium_suffix"`
	ShortDate            string `yaml:"short_date"`
	LongDate             string `yaml:"long_date"`
	RenewalText          string `yaml:"renewal_text"`
	NewBusinessText      string `yaml:"new_business_text"`
	// Specimen stamps "SPECIMEN" on bound forms.
	Specimen bool `yaml:"specimen"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log:    LogConfig{Level: "info", Format: "text"},
		Output: OutputConfig{Backend: "file", Dir: "out", Formats: []string{string(domain.FormatPDF)}},
		Data:   DataConfig{FieldMaps: "fieldmaps"},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "docmerge:output:",
			RefKey: "docmerge:refdata",
		},
		Metrics: MetricsConfig{Addr: ":2112"},
		Rendering: RenderingConfig{
			MinimumPremiumSuffix: " MP",
			ShortDate:            "01/02/2006",
			LongDate:             "January 2, 2006",
			RenewalText:          "This policy is a renewal of policy {{ prior }}.",
		},
	}
}

// Load reads path over the defaults and applies the environment. An empty
// path, or a path that does not exist when optional is set, yields the defaults.
func Load(path string, optional bool) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && optional:
		default:
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overlays DOCMERGE_* variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"DOCMERGE_LOG_LEVEL":        &c.Log.Level,
		"DOCMERGE_LOG_FORMAT":       &c.Log.Format,
		"DOCMERGE_OUTPUT_BACKEND":   &c.Output.Backend,
		"DOCMERGE_OUTPUT_DIR":       &c.Output.Dir,
		"DOCMERGE_OUTPUT_KEY":       &c.Output.EncryptionKey,
		"DOCMERGE_FIELD_MAPS":       &c.Data.FieldMaps,
		"DOCMERGE_REFERENCE_DATA":   &c.Data.ReferenceData,
		"DOCMERGE_REDIS_ADDR":       &c.Redis.Addr,
		"DOCMERGE_REDIS_PASSWORD":   &c.Redis.Password,
		"DOCMERGE_REDIS_PREFIX":     &c.Redis.Prefix,
		"DOCMERGE_METRICS_ADDR":     &c.Metrics.Addr,
		"DOCMERGE_MIN_PREMIUM_MARK": &c.Rendering.MinimumPremiumSuffix,
	}
	for key, dst := range str {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	if v, ok := lookup("DOCMERGE_OUTPUT_FORMATS"); ok {
		c.Output.Formats = splitList(v)
	}
	if v, ok := lookup("DOCMERGE_OUTPUT_WORKERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DOCMERGE_OUTPUT_WORKERS: %w", err)
		}
		c.Output.Workers = n
	}
	if v, ok := lookup("DOCMERGE_OUTPUT_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("DOCMERGE_OUTPUT_TTL: %w", err)
		}
		c.Output.TTL = d
	}
	if v, ok := lookup("DOCMERGE_REDIS_DB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DOCMERGE_REDIS_DB: %w", err)
		}
		c.Redis.DB = n
	}
	if v, ok := lookup("DOCMERGE_SPECIMEN"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DOCMERGE_SPECIMEN: %w", err)
		}
		c.Rendering.Specimen = b
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks enumerations and formats.
func (c Config) Validate() error {
	var errs []error
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: want text or json, got %q", c.Log.Format))
	}
	switch c.Output.Backend {
	case "file", "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("output.backend: want file, memory or redis, got %q", c.Output.Backend))
	}
	if len(c.Output.Formats) == 0 {
		errs = append(errs, errors.New("output.formats: at least one format is required"))
	}
	for _, f := range c.Output.Formats {
		if _, err := domain.ParseFormat(f); err != nil {
			errs = append(errs, fmt.Errorf("output.formats: %w", err))
		}
	}
	if _, _, err := c.Output.Keys(); err != nil {
		errs = append(errs, err)
	}
	if c.Output.Workers < 0 {
		errs = append(errs, errors.New("output.workers: must not be negative"))
	}
	return errors.Join(errs...)
}

// Formats returns the parsed output formats. Call after Validate.
func (c Config) Formats() []domain.Format {
	out := make([]domain.Format, 0, len(c.Output.Formats))
	for _, f := range c.Output.Formats {
		if parsed, err := domain.ParseFormat(f); err == nil {
			out = append(out, parsed)
		}
	}
	return out
}
