package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/metcalfc/prr/internal/config"
	"github.com/metcalfc/prr/internal/extract"
	"github.com/metcalfc/prr/internal/reader"
	"github.com/metcalfc/prr/internal/voice"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type options struct {
	cfg         *config.Config
	file        string
	showVersion bool
}

// parseFlags loads the config file and lays command line flags over it.
// Flags win only when given explicitly.
func parseFlags(name string, args []string, usage func(fs *flag.FlagSet)) (*options, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	configPath := fs.String("config", "", "Config file (default: "+config.DefaultPath()+")")
	engine := fs.String("engine", "", "Speech engine: auto, espeak, say")
	backend := fs.String("backend", "", "PDF backend: "+fmt.Sprint(extract.Backends()))
	voiceName := fs.String("voice", "", "Voice name")
	rate := fs.Float64("rate", 1, "Speech rate (0.5-2.0)")
	pitch := fs.Float64("pitch", 1, "Pitch (0.0-2.0)")
	volume := fs.Float64("volume", 1, "Volume (0.0-1.0)")
	logFile := fs.String("log", "", "Write logs to this file")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")
	showVersion := fs.Bool("v", false, "Show version information")
	showVersionLong := fs.Bool("version", false, "Show version information")
	fs.Usage = func() { usage(fs) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	path, optional := *configPath, false
	if path == "" {
		path, optional = config.DefaultPath(), true
	}
	cfg, err := config.Load(path, optional)
	if err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "engine":
			cfg.Engine = *engine
		case "backend":
			cfg.Extract.Backend = *backend
		case "voice":
			cfg.Voice.Name, cfg.Voice.Lang = *voiceName, ""
		case "rate":
			cfg.Voice.Rate = *rate
		case "pitch":
			cfg.Voice.Pitch = *pitch
		case "volume":
			cfg.Voice.Volume = *volume
		case "log":
			cfg.Log.File = *logFile
		case "log-level":
			cfg.Log.Level = config.LogLevel(*logLevel)
		}
	})
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	opts := &options{
		cfg:         cfg,
		showVersion: *showVersion || *showVersionLong,
	}
	if fs.NArg() > 0 {
		opts.file = fs.Arg(0)
	}
	return opts, nil
}

// setupLogger installs the default slog logger. Logs go to cfg.File when
// set, otherwise to fallback. The returned closer is never nil.
func setupLogger(cfg config.LogConfig, fallback io.Writer) (io.Closer, error) {
	var closer io.Closer = nopCloser{}
	w := fallback
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return closer, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.Level.Slog()}))
	slog.SetDefault(logger)
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// session is the wiring shared by both front ends.
type session struct {
	ctrl     *reader.Controller
	synth    voice.Synthesizer
	interval time.Duration
	watcher  *voice.Watcher
}

func newSession(cfg *config.Config, synth voice.Synthesizer, listener func(reader.State)) (*session, error) {
	backend, err := extract.Lookup(cfg.Extract.Backend)
	if err != nil {
		return nil, err
	}
	pipeline := extract.NewPipeline(backend, cfg.Extract.Workers)

	ropts := []reader.Option{
		reader.WithPreferredVoice(cfg.Voice.Prefer),
		reader.WithSettings(cfg.Settings()),
	}
	if listener != nil {
		ropts = append(ropts, reader.WithListener(listener))
	}

	slog.Info("session ready", "engine", synth.Name(), "backend", backend.Name(), "version", version)
	return &session{
		ctrl:     reader.New(synth, pipeline, ropts...),
		synth:    synth,
		interval: cfg.Voice.PollInterval,
	}, nil
}

// startCatalog loads the voice catalog once and keeps it current.
func (s *session) startCatalog(ctx context.Context) {
	_ = s.ctrl.RefreshCatalog(ctx)
	if s.interval <= 0 {
		return
	}
	s.watcher = voice.NewWatcher(ctx, s.synth, s.ctrl.ReplaceCatalog,
		voice.WithInterval(s.interval),
		voice.WithBaseline(s.ctrl.Snapshot().Voices),
	)
}

func (s *session) close() {
	if s.watcher != nil {
		s.watcher.Stop()
	}
	s.ctrl.Stop()
}

// loadPath reads a PDF from disk into the controller.
func (s *session) loadPath(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	name := filepath.Base(path)
	if !extract.IsPDF(name, data) {
		return &extract.DecodeError{Name: name, Err: extract.ErrNotPDF}
	}
	return s.ctrl.LoadFile(ctx, name, data)
}
