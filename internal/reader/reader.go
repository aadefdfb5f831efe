// Package reader holds the read-aloud session: the loaded document, the
// playback settings, and the transitions between idle, loaded and
// speaking.
package reader

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/metcalfc/prr/internal/voice"
)

// ErrEmptyCatalog means no voices are installed, so nothing can be spoken.
var ErrEmptyCatalog = errors.New("no voices available")

// Phase is the controller's position in its state machine.
type Phase int

const (
	Idle     Phase = iota // no document
	Loaded                // document present, silent
	Speaking              // document present, utterance in flight
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loaded:
		return "loaded"
	case Speaking:
		return "speaking"
	}
	return "unknown"
}

// Extractor turns uploaded bytes into document text.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// State is a snapshot of the controller for rendering.
type State struct {
	Phase    Phase
	FileName string
	// Loading is the name of a file whose extraction is in progress.
	Loading  string
	Text     string
	Settings Settings
	Voices   []voice.Profile
	// Err is the last surfaced failure, cleared by the next success.
	Err error
}

// Option configures a Controller.
type Option func(*Controller)

// WithListener registers fn to be called after every state change. It is
// called without the controller lock held, possibly from a background
// goroutine.
func WithListener(fn func(State)) Option {
	return func(c *Controller) { c.listeners = append(c.listeners, fn) }
}

// WithPreferredVoice sets the marker used to pick a default voice.
func WithPreferredVoice(marker string) Option {
	return func(c *Controller) { c.prefer = marker }
}

// WithSettings sets the initial playback settings.
func WithSettings(s Settings) Option {
	return func(c *Controller) { c.settings = s.Clamp() }
}

// Controller owns the session. All fields are private; use the
// transitions.
type Controller struct {
	synth     voice.Synthesizer
	extractor Extractor
	catalog   voice.Catalog
	prefer    string
	listeners []func(State)

	mu       sync.Mutex
	phase    Phase
	fileName string
	loading  string
	text     string
	settings Settings
	current  *voice.Utterance
	loadGen  uint64
	err      error
}

// New returns an idle controller.
func New(synth voice.Synthesizer, extractor Extractor, opts ...Option) *Controller {
	c := &Controller{
		synth:     synth,
		extractor: extractor,
		prefer:    "Google",
		settings:  DefaultSettings(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	return State{
		Phase:    c.phase,
		FileName: c.fileName,
		Loading:  c.loading,
		Text:     c.text,
		Settings: c.settings,
		Voices:   c.catalog.Voices(),
		Err:      c.err,
	}
}

func (c *Controller) notify() {
	if len(c.listeners) == 0 {
		return
	}
	st := c.Snapshot()
	for _, fn := range c.listeners {
		fn(st)
	}
}

// RefreshCatalog re-reads the installed voices and replaces the catalog.
// If no voice is selected yet, the default is selected.
func (c *Controller) RefreshCatalog(ctx context.Context) error {
	voices, err := c.synth.ListVoices(ctx)
	if err != nil {
		slog.Warn("list voices failed", "engine", c.synth.Name(), "err", err)
		return err
	}
	c.ReplaceCatalog(voices)
	return nil
}

// ReplaceCatalog installs voices as the catalog. It is the handler for
// catalog change notifications.
func (c *Controller) ReplaceCatalog(voices []voice.Profile) {
	c.mu.Lock()
	c.catalog.Replace(voices)
	if len(voices) == 0 {
		slog.Warn("voice catalog is empty; playback disabled", "engine", c.synth.Name())
	} else if c.settings.Voice.IsZero() {
		if p, ok := voice.DefaultProfile(voices, c.prefer); ok {
			c.settings.Voice = p.Key()
			slog.Debug("default voice selected", "voice", p.String())
		}
	} else if c.settings.Voice.Lang == "" {
		// A voice chosen by name alone takes the language of its match.
		if p, ok := c.catalog.Lookup(c.settings.Voice); ok {
			c.settings.Voice = p.Key()
		}
	}
	c.mu.Unlock()
	c.notify()
}

// LoadFile extracts data and makes it the current document. A document
// that is being spoken is stopped first. On failure the previous document
// and phase stay as they were and the error is returned and kept in
// State.Err. If another load starts before this one finishes, this
// load's result is dropped.
func (c *Controller) LoadFile(ctx context.Context, name string, data []byte) error {
	c.mu.Lock()
	c.loadGen++
	gen := c.loadGen
	c.loading = name
	c.mu.Unlock()
	c.notify()

	text, err := c.extractor.Extract(ctx, data)

	c.mu.Lock()
	if gen != c.loadGen {
		c.mu.Unlock()
		slog.Debug("dropping superseded load", "file", name)
		return nil
	}
	c.loading = ""
	if err != nil {
		c.err = err
		c.mu.Unlock()
		slog.Error("load failed", "file", name, "err", err)
		c.notify()
		return err
	}
	if c.phase == Speaking {
		c.synth.Cancel()
		c.current = nil
	}
	c.text = text
	c.fileName = name
	c.phase = Loaded
	c.err = nil
	c.mu.Unlock()

	slog.Info("document loaded", "file", name, "chars", len(text))
	c.notify()
	return nil
}

// Play speaks the document with the current settings. It does nothing
// unless a non-blank document is loaded and silent.
func (c *Controller) Play(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != Loaded || strings.TrimSpace(c.text) == "" {
		c.mu.Unlock()
		return nil
	}
	if c.catalog.Len() == 0 {
		c.mu.Unlock()
		return ErrEmptyCatalog
	}

	p := voice.Params{
		Rate:   c.settings.Rate,
		Pitch:  c.settings.Pitch,
		Volume: c.settings.Volume,
	}
	if v, ok := c.catalog.Lookup(c.settings.Voice); ok {
		p.Voice = v
	}

	u, err := c.synth.Speak(ctx, c.text, p)
	if err != nil {
		c.err = err
		c.mu.Unlock()
		slog.Error("speak failed", "err", err)
		c.notify()
		return err
	}
	c.current = u
	c.phase = Speaking
	c.err = nil
	c.mu.Unlock()

	slog.Info("speaking", "id", u.ID, "voice", p.Voice.String(), "rate", p.Rate, "pitch", p.Pitch, "volume", p.Volume)
	go c.await(u)
	c.notify()
	return nil
}

// await returns to Loaded when u ends on its own. A stop or a new
// document has already moved on from u, in which case nothing changes.
func (c *Controller) await(u *voice.Utterance) {
	<-u.Done()

	c.mu.Lock()
	if c.current != u {
		c.mu.Unlock()
		return
	}
	c.current = nil
	c.phase = Loaded
	if err := u.Err(); err != nil && !errors.Is(err, voice.ErrCanceled) {
		c.err = err
		slog.Warn("utterance failed", "id", u.ID, "err", err)
	}
	c.mu.Unlock()
	c.notify()
}

// Stop cancels playback. The phase is Loaded when Stop returns, even if
// the engine takes a moment to fall silent. Once an utterance has ended
// on its own there is nothing to cancel and Stop does nothing.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.phase != Speaking {
		c.mu.Unlock()
		return
	}
	c.synth.Cancel()
	c.current = nil
	c.phase = Loaded
	c.mu.Unlock()

	slog.Info("stopped")
	c.notify()
}

// Toggle stops when speaking and plays otherwise.
func (c *Controller) Toggle(ctx context.Context) error {
	c.mu.Lock()
	speaking := c.phase == Speaking
	c.mu.Unlock()
	if speaking {
		c.Stop()
		return nil
	}
	return c.Play(ctx)
}

// SetRate sets the speech rate for the next utterance.
func (c *Controller) SetRate(v float64) {
	c.update(func(s *Settings) { s.Rate = v })
}

// SetPitch sets the pitch for the next utterance.
func (c *Controller) SetPitch(v float64) {
	c.update(func(s *Settings) { s.Pitch = v })
}

// SetVolume sets the volume for the next utterance.
func (c *Controller) SetVolume(v float64) {
	c.update(func(s *Settings) { s.Volume = v })
}

// SetVoice selects a voice for the next utterance. A key missing from the
// catalog falls back to the engine default when played.
func (c *Controller) SetVoice(k voice.Key) {
	c.update(func(s *Settings) { s.Voice = k })
}

func (c *Controller) update(fn func(*Settings)) {
	c.mu.Lock()
	fn(&c.settings)
	c.settings = c.settings.Clamp()
	c.mu.Unlock()
	c.notify()
}
