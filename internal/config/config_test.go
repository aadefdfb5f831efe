package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("Validate(Default()) = %v", err)
	}
}

func TestLoadFromReader(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(`
engine: espeak
extract:
  backend: pdftotext
  workers: 2
voice:
  prefer: English
  name: Samantha
  lang: en_GB
  rate: 1.5
  poll_interval: 2s
log:
  file: /tmp/prr.log
  level: debug
`))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Engine != "espeak" || cfg.Extract.Backend != "pdftotext" || cfg.Extract.Workers != 2 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Voice.Rate != 1.5 || cfg.Voice.Pitch != 1 || cfg.Voice.Volume != 1 {
		t.Errorf("voice = %+v, want rate 1.5 and default pitch/volume", cfg.Voice)
	}
	if cfg.Voice.PollInterval != 2*time.Second {
		t.Errorf("PollInterval = %v", cfg.Voice.PollInterval)
	}
	s := cfg.Settings()
	if s.Voice.Name != "Samantha" || s.Voice.Lang != "en_GB" || s.Rate != 1.5 {
		t.Errorf("Settings() = %+v", s)
	}
	if cfg.Log.Level.Slog() != slog.LevelDebug {
		t.Errorf("Slog() = %v", cfg.Log.Level.Slog())
	}
}

func TestLoadFromReaderEmpty(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Extract.Backend != "native" {
		t.Errorf("Backend = %q, want native", cfg.Extract.Backend)
	}
}

func TestLoadFromReaderUnknownField(t *testing.T) {
	if _, err := LoadFromReader(strings.NewReader("speed: 3\n")); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   []string
	}{
		{"bad engine", func(c *Config) { c.Engine = "festival" }, []string{"engine"}},
		{"bad backend", func(c *Config) { c.Extract.Backend = "ocr" }, []string{"extract.backend"}},
		{"no workers", func(c *Config) { c.Extract.Workers = 0 }, []string{"extract.workers"}},
		{"rate high", func(c *Config) { c.Voice.Rate = 3 }, []string{"voice.rate"}},
		{"pitch low", func(c *Config) { c.Voice.Pitch = -0.1 }, []string{"voice.pitch"}},
		{"volume high", func(c *Config) { c.Voice.Volume = 1.1 }, []string{"voice.volume"}},
		{"lang without name", func(c *Config) { c.Voice.Lang = "en" }, []string{"voice.lang"}},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, []string{"log.level"}},
		{"several", func(c *Config) {
			c.Voice.Rate = 0
			c.Log.Level = "loud"
		}, []string{"voice.rate", "log.level"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			for _, w := range tt.want {
				if !strings.Contains(err.Error(), w) {
					t.Errorf("error %q does not mention %q", err, w)
				}
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing optional", func(t *testing.T) {
		cfg, err := Load(filepath.Join(dir, "nope.yaml"), true)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.Engine != "auto" {
			t.Errorf("Engine = %q", cfg.Engine)
		}
	})

	t.Run("missing required", func(t *testing.T) {
		if _, err := Load(filepath.Join(dir, "nope.yaml"), false); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("invalid file", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		os.WriteFile(path, []byte("voice:\n  volume: 4\n"), 0644)
		if _, err := Load(path, true); err == nil {
			t.Error("expected validation error")
		}
	})
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	if got := DefaultPath(); got != filepath.Join("/cfg", "prr", "config.yaml") {
		t.Errorf("DefaultPath() = %q", got)
	}
}
