// Package config loads runtime settings from a YAML file and lets
// SPARKSAGA_* environment variables override them.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "SPARKSAGA_"

// Config holds every setting the game reads at boot.
type Config struct {
	// DataDir empty selects the embedded corpus.
	DataDir         string `yaml:"data_dir" env:"DATA_DIR"`
	DataFormat      string `yaml:"data_format" env:"DATA_FORMAT" validate:"oneof=json lua"`
	Map             string `yaml:"map" env:"MAP" validate:"required"`
	Locale          string `yaml:"locale" env:"LOCALE"`
	ReferenceLocale string `yaml:"reference_locale" env:"REFERENCE_LOCALE" validate:"required"`

	// Seed zero derives the seed from the wall clock.
	Seed       int64  `yaml:"seed" env:"SEED"`
	TickRate   int    `yaml:"tick_rate" env:"TICK_RATE" validate:"min=1,max=240"`
	StartScene string `yaml:"start_scene" env:"START_SCENE" validate:"oneof=title field"`

	Player Player `yaml:"player" envPrefix:"PLAYER_"`
	Log    Log    `yaml:"log" envPrefix:"LOG_"`
}

// Player tunes field movement.
type Player struct {
	// Speed is in pixels per second.
	Speed float64 `yaml:"speed" env:"SPEED" validate:"gt=0"`
}

// Log configures the zap logger.
type Log struct {
	Level      string `yaml:"level" env:"LEVEL" validate:"oneof=debug info warn error"`
	Encoding   string `yaml:"encoding" env:"ENCODING" validate:"oneof=json console"`
	OutputPath string `yaml:"output_path" env:"OUTPUT_PATH"`
}

// Default returns the settings used when no file or override says
// otherwise.
func Default() Config {
	return Config{
		DataFormat:      "json",
		Map:             "maps/tutorial.json",
		Locale:          "en",
		ReferenceLocale: "en",
		TickRate:        30,
		StartScene:      "title",
		Player:          Player{Speed: 100},
		Log: Log{
			Level:      "info",
			Encoding:   "console",
			OutputPath: "stderr",
		},
	}
}

// Load reads a YAML config file over the defaults. A missing file yields
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with any SPARKSAGA_* variables that are set.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
