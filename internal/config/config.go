// Package config loads build settings from defaults, an optional YAML file
// and environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/pable/go-h2h/internal/chunk"
)

// DefaultConfigPaths are tried in order when no config file is given.
var DefaultConfigPaths = []string{
	"h2h.yaml",
	"h2h.yml",
}

// ConfigPathEnvVar names a config file, overriding DefaultConfigPaths.
const ConfigPathEnvVar = "H2H_CONFIG"

// Config is the full set of settings.
type Config struct {
	Sources SourcesConfig `koanf:"sources"`
	Output  OutputConfig  `koanf:"output"`
	Archive ArchiveConfig `koanf:"archive"`
	Catalog CatalogConfig `koanf:"catalog"`
	Log     LogConfig     `koanf:"log"`
}

// SourcesConfig locates the three input tables.
type SourcesConfig struct {
	Matches     string `koanf:"matches" validate:"required"`
	Players     string `koanf:"players"`
	Tournaments string `koanf:"tournaments"`
}

// OutputConfig locates the archive root.
type OutputConfig struct {
	Dir string `koanf:"dir" validate:"required"`
}

// ArchiveConfig tunes the build.
type ArchiveConfig struct {
	MaxChunkBytes int  `koanf:"max_chunk_bytes" validate:"min=1024"`
	Workers       int  `koanf:"workers" validate:"min=1,max=256"`
	PlayerIndex   bool `koanf:"player_index"`
}

// CatalogConfig locates the SQLite build catalog.
type CatalogConfig struct {
	Path string `koanf:"path"`
}

// LogConfig selects log verbosity and encoding.
type LogConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn warning error disabled off"`
	Format string `koanf:"format" validate:"oneof=console json"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Sources: SourcesConfig{
			Matches:     filepath.Join(".cache", "scraped_matches.parquet"),
			Players:     filepath.Join(".cache", "players_data.csv"),
			Tournaments: filepath.Join(".cache", "tournament_data.csv"),
		},
		Output: OutputConfig{
			Dir: filepath.Join("public", "data"),
		},
		Archive: ArchiveConfig{
			MaxChunkBytes: chunk.DefaultMaxBytes,
			Workers:       1,
			PlayerIndex:   true,
		},
		Catalog: CatalogConfig{
			Path: filepath.Join(userHome(), ".h2h", "catalog.db"),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load layers defaults, the config file and the environment. An explicit
// path must exist; otherwise H2H_CONFIG and DefaultConfigPaths are searched
// and a missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var envMappings = map[string]string{
	"matches_path":        "sources.matches",
	"players_path":        "sources.players",
	"tournaments_path":    "sources.tournaments",
	"h2h_output_dir":      "output.dir",
	"h2h_max_chunk_bytes": "archive.max_chunk_bytes",
	"h2h_workers":         "archive.workers",
	"h2h_player_index":    "archive.player_index",
	"h2h_catalog":         "catalog.path",
	"log_level":           "log.level",
	"log_format":          "log.format",
}

// envTransformFunc maps known environment variables to config keys and drops the rest.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

var validate = newValidator()

// newValidator reports fields by their config key rather than Go name.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		return name
	})
	return v
}

// Validate rejects settings the build cannot run with.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return err
	}
	errs := make([]error, len(fields))
	for i, fe := range fields {
		key := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			errs[i] = fmt.Errorf("%s must satisfy %s=%s, got %v", key, fe.Tag(), fe.Param(), fe.Value())
		} else {
			errs[i] = fmt.Errorf("%s is %s", key, fe.Tag())
		}
	}
	return errors.Join(errs...)
}

func userHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
