package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
)

// command describes how an external speech binary is driven.
type command struct {
	name   string
	bin    string
	args   func(Params) []string
	input  func(text string, p Params) string
	voices func(ctx context.Context, bin string) ([]Profile, error)
}

type running struct {
	cancel   context.CancelFunc
	canceled bool
}

// processSynth speaks by running one engine process per utterance with the
// text on stdin. Canceling kills the process.
type processSynth struct {
	cmd command

	mu     sync.Mutex
	active map[*Utterance]*running
}

func newProcessSynth(c command) *processSynth {
	return &processSynth{cmd: c, active: make(map[*Utterance]*running)}
}

func (s *processSynth) Name() string { return s.cmd.name }

func (s *processSynth) Speak(ctx context.Context, text string, p Params) (*Utterance, error) {
	pctx, cancel := context.WithCancel(ctx)

	input := text
	if s.cmd.input != nil {
		input = s.cmd.input(text, p)
	}
	cmd := exec.CommandContext(pctx, s.cmd.bin, s.cmd.args(p)...)
	cmd.Stdin = strings.NewReader(input)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("%s: start: %w", s.cmd.name, err)
	}

	u, resolve := NewUtterance(text, p)
	r := &running{cancel: cancel}
	s.mu.Lock()
	s.active[u] = r
	s.mu.Unlock()

	slog.Debug("utterance started", "engine", s.cmd.name, "id", u.ID, "voice", p.Voice.Name, "chars", len(text))

	go func() {
		err := cmd.Wait()

		s.mu.Lock()
		delete(s.active, u)
		canceled := r.canceled
		s.mu.Unlock()
		cancel()

		switch {
		case canceled:
			resolve(ErrCanceled)
		case ctx.Err() != nil:
			resolve(ctx.Err())
		case err != nil:
			msg := strings.TrimSpace(stderr.String())
			resolve(fmt.Errorf("%s: %w: %s", s.cmd.name, err, msg))
		default:
			resolve(nil)
		}
		slog.Debug("utterance ended", "engine", s.cmd.name, "id", u.ID, "err", u.Err())
	}()
	return u, nil
}

func (s *processSynth) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.active {
		r.canceled = true
		r.cancel()
	}
}

func (s *processSynth) ListVoices(ctx context.Context) ([]Profile, error) {
	return s.cmd.voices(ctx, s.cmd.bin)
}

// runOutput runs bin and returns stdout, folding stderr into the error.
func runOutput(ctx context.Context, bin string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	out, err := cmd.Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) && len(ee.Stderr) > 0 {
			return nil, fmt.Errorf("%s: %w: %s", bin, err, strings.TrimSpace(string(ee.Stderr)))
		}
		return nil, fmt.Errorf("%s: %w", bin, err)
	}
	return out, nil
}
