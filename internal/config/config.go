// Package config loads prr's startup defaults from an optional YAML file.
// Nothing is ever written back: settings changed in the UI last only for
// the session.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/metcalfc/prr/internal/extract"
	"github.com/metcalfc/prr/internal/reader"
	"github.com/metcalfc/prr/internal/voice"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Slog maps l to a slog level, defaulting to info.
func (l LogLevel) Slog() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Config is the top-level configuration.
type Config struct {
	// Engine is the speech engine: auto, espeak or say.
	Engine  string        `yaml:"engine"`
	Extract ExtractConfig `yaml:"extract"`
	Voice   VoiceConfig   `yaml:"voice"`
	Log     LogConfig     `yaml:"log"`
}

// ExtractConfig selects how PDFs are read.
type ExtractConfig struct {
	// Backend is a registered extraction backend: native or pdftotext.
	Backend string `yaml:"backend"`
	// Workers bounds concurrent page fetches.
	Workers int `yaml:"workers"`
}

// VoiceConfig holds the initial playback settings.
type VoiceConfig struct {
	// Prefer picks the default voice: the first whose name contains it.
	Prefer string `yaml:"prefer"`
	// Name selects a voice outright; Lang narrows it when names repeat.
	Name         string        `yaml:"name"`
	Lang         string        `yaml:"lang"`
	Rate         float64       `yaml:"rate"`
	Pitch        float64       `yaml:"pitch"`
	Volume       float64       `yaml:"volume"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// LogConfig controls logging.
type LogConfig struct {
	// File receives logs. Empty discards them in the terminal UI and
	// uses stderr in the desktop UI.
	File  string   `yaml:"file"`
	Level LogLevel `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Engine: voice.EngineAuto,
		Extract: ExtractConfig{
			Backend: "native",
			Workers: extract.DefaultWorkers,
		},
		Voice: VoiceConfig{
			Prefer:       "Google",
			Rate:         1,
			Pitch:        1,
			Volume:       1,
			PollInterval: 5 * time.Second,
		},
		Log: LogConfig{Level: LogInfo},
	}
}

// Settings converts the voice section into initial playback settings.
func (c *Config) Settings() reader.Settings {
	return reader.Settings{
		Voice:  voice.Key{Name: c.Voice.Name, Lang: c.Voice.Lang},
		Rate:   c.Voice.Rate,
		Pitch:  c.Voice.Pitch,
		Volume: c.Voice.Volume,
	}
}

// DefaultPath returns XDG_CONFIG_HOME/prr/config.yaml or
// ~/.config/prr/config.yaml.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "prr", "config.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "prr", "config.yaml")
}

// Load reads the YAML file at path over the defaults. A missing file is
// not an error when optional is true.
func Load(path string, optional bool) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r over the defaults and validates the
// result.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
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

	switch cfg.Engine {
	case "", voice.EngineAuto, voice.EngineEspeak, voice.EngineSay:
	default:
		errs = append(errs, fmt.Errorf("engine %q is invalid; valid values: auto, espeak, say", cfg.Engine))
	}

	if _, err := extract.Lookup(cfg.Extract.Backend); err != nil {
		errs = append(errs, fmt.Errorf("extract.backend: %w", err))
	}
	if cfg.Extract.Workers < 1 {
		errs = append(errs, fmt.Errorf("extract.workers %d must be at least 1", cfg.Extract.Workers))
	}

	errs = append(errs,
		checkRange("voice.rate", cfg.Voice.Rate, reader.MinRate, reader.MaxRate),
		checkRange("voice.pitch", cfg.Voice.Pitch, reader.MinPitch, reader.MaxPitch),
		checkRange("voice.volume", cfg.Voice.Volume, reader.MinVolume, reader.MaxVolume),
	)
	if cfg.Voice.PollInterval < 0 {
		errs = append(errs, fmt.Errorf("voice.poll_interval %s must not be negative", cfg.Voice.PollInterval))
	}
	if cfg.Voice.Lang != "" && cfg.Voice.Name == "" {
		errs = append(errs, errors.New("voice.lang requires voice.name"))
	}

	if cfg.Log.Level != "" && !cfg.Log.Level.IsValid() {
		errs = append(errs, fmt.Errorf("log.level %q is invalid; valid values: debug, info, warn, error", cfg.Log.Level))
	}

	return errors.Join(errs...)
}

func checkRange(field string, v, lo, hi float64) error {
	if v < lo || v > hi {
		return fmt.Errorf("%s %.2f is out of range [%.1f, %.1f]", field, v, lo, hi)
	}
	return nil
}
