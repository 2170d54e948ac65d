// Package config loads engine settings from an optional YAML file with
// SCREENER_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/profile-screener/internal/rank"
	"github.com/profile-screener/internal/schema"
	"github.com/profile-screener/internal/score"
	"github.com/profile-screener/internal/source"
)

// Config carries every tunable of the screening engine.
type Config struct {
	DataDirs   []string           `mapstructure:"data-dirs"`
	Database   *DatabaseConfig    `mapstructure:"database"`
	Thresholds *score.Thresholds  `mapstructure:"thresholds"`
	Weights    map[string]float64 `mapstructure:"weights"`
	Limit      int                `mapstructure:"limit"`
	PoolSize   int                `mapstructure:"pool-size"`
	SampleSize int                `mapstructure:"sample-size"`
	Timeout    time.Duration      `mapstructure:"timeout"`
	Listen     string             `mapstructure:"listen"`
	APIKey     string             `mapstructure:"api-key"`
	AI         *AIConfig          `mapstructure:"ai"`
	Postal     *PostalConfig      `mapstructure:"postal"`
}

// DatabaseConfig points the engine at the relational sources.
type DatabaseConfig struct {
	DSN  string `mapstructure:"dsn"`
	Name string `mapstructure:"name"`
}

// AIConfig controls free-text profile extraction.
type AIConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
	APIKey  string `mapstructure:"api-key"`
}

// PostalConfig controls libpostal address expansion.
type PostalConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load reads the config file at path (or screener.yaml in the working
// directory when path is empty), applies environment overrides and fills
// in defaults. A missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("screener")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	// Secrets usually arrive through their conventional variables.
	if err := v.BindEnv("database.dsn", "SCREENER_DATABASE_DSN", "DATABASE_URL"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("ai.api-key", "SCREENER_AI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("api-key", "SCREENER_API_KEY"); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		v.SetConfigName("screener")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg *Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	t := score.DefaultThresholds()
	v.SetDefault("thresholds.floor", t.Floor)
	v.SetDefault("thresholds.exact", t.Exact)
	v.SetDefault("thresholds.group", t.Group)
	v.SetDefault("limit", rank.DefaultLimit)
	v.SetDefault("sample-size", source.DefaultSampleSize)
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("listen", ":8080")
	v.SetDefault("data-dirs", []string{"./data"})
	v.SetDefault("database.name", "screening")
	v.SetDefault("ai.model", "gemini-2.0-flash")
}

func (c *Config) validate() error {
	t := c.ScoreThresholds()
	for _, v := range []float64{t.Floor, t.Exact, t.Group} {
		if v < 0 || v > 1 {
			return fmt.Errorf("threshold %v out of range [0, 1]", v)
		}
	}
	for name, w := range c.Weights {
		if w < 0 {
			return fmt.Errorf("weight for %q must not be negative", name)
		}
	}
	return nil
}

// ScoreThresholds returns the configured thresholds, falling back to the
// defaults when the section is absent.
func (c *Config) ScoreThresholds() score.Thresholds {
	if c.Thresholds == nil {
		return score.DefaultThresholds()
	}
	return *c.Thresholds
}

// ScoreWeights merges the configured per-field overrides into the default
// weight table. Field names are canonicalised the same way source headers
// are, so "date_of_birth: 2.5" and "dob: 2.5" mean the same thing.
func (c *Config) ScoreWeights() (score.Weights, error) {
	w := score.DefaultWeights()
	for name, weight := range c.Weights {
		f, ok := schema.Canonicalize(name)
		if !ok {
			return nil, fmt.Errorf("unknown field %q in weights", name)
		}
		w[f] = weight
	}
	return w, nil
}
