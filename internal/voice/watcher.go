package voice

import (
	"context"
	"crypto/sha256"
	"log/slog"
	"sync"
	"time"
)

// Watcher polls an engine's voice list and calls onChange whenever it
// differs from the previous listing. Engines install voices lazily, so
// the first listing is not always the final one.
type Watcher struct {
	synth    Synthesizer
	interval time.Duration
	onChange func([]Profile)

	done     chan struct{}
	stopOnce sync.Once
	last     [sha256.Size]byte
	primed   bool
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval. The default is 5 seconds.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithBaseline records voices as already seen, so an unchanged first poll
// does not fire.
func WithBaseline(voices []Profile) WatcherOption {
	return func(w *Watcher) {
		w.last = Fingerprint(voices)
		w.primed = true
	}
}

// NewWatcher starts polling synth in a background goroutine until ctx is
// done or Stop is called.
func NewWatcher(ctx context.Context, synth Synthesizer, onChange func([]Profile), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		synth:    synth,
		interval: 5 * time.Second,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	go w.poll(ctx)
	return w
}

// Stop stops polling.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
}

func (w *Watcher) poll(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

func (w *Watcher) check(ctx context.Context) {
	voices, err := w.synth.ListVoices(ctx)
	if err != nil {
		slog.Warn("voice: list voices failed", "engine", w.synth.Name(), "err", err)
		return
	}
	sum := Fingerprint(voices)
	if w.primed && sum == w.last {
		return
	}
	w.last = sum
	w.primed = true
	slog.Debug("voice catalog changed", "engine", w.synth.Name(), "voices", len(voices))
	w.onChange(voices)
}
