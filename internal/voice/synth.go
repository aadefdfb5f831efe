package voice

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrCanceled is the result of an utterance stopped before it finished.
var ErrCanceled = errors.New("voice: utterance canceled")

// Params are fixed when an utterance is created. Changing settings later
// does not retune audio that is already playing.
type Params struct {
	// Voice is the resolved voice. A zero Profile means the engine default.
	Voice Profile

	// Rate is a speed multiplier in [0.5, 2.0], 1.0 = normal.
	Rate float64

	// Pitch is in [0.0, 2.0], 1.0 = the voice's own pitch.
	Pitch float64

	// Volume is in [0.0, 1.0].
	Volume float64
}

// Synthesizer is a speech engine.
//
// Implementations must be safe for concurrent use.
type Synthesizer interface {
	// Name returns the engine name used in config and logs.
	Name() string

	// Speak starts speaking text and returns without waiting for audio to
	// finish. The returned utterance resolves when playback ends, fails,
	// is canceled, or ctx is done.
	Speak(ctx context.Context, text string, p Params) (*Utterance, error)

	// Cancel stops every utterance still playing. Canceling when nothing
	// is playing does nothing.
	Cancel()

	// ListVoices returns the voices currently installed.
	ListVoices(ctx context.Context) ([]Profile, error)
}

// Utterance is one speak request. It is a future: Done is closed once the
// outcome is known and Err reports it.
type Utterance struct {
	ID     string
	Text   string
	Params Params

	done chan struct{}
	once sync.Once
	err  error
}

// NewUtterance returns a pending utterance and the function that resolves
// it. Only the first call to resolve has any effect.
func NewUtterance(text string, p Params) (*Utterance, func(error)) {
	u := &Utterance{
		ID:     uuid.NewString(),
		Text:   text,
		Params: p,
		done:   make(chan struct{}),
	}
	return u, u.resolve
}

func (u *Utterance) resolve(err error) {
	u.once.Do(func() {
		u.err = err
		close(u.done)
	})
}

// Done is closed when the utterance has ended.
func (u *Utterance) Done() <-chan struct{} {
	return u.done
}

// Err returns nil for natural completion, ErrCanceled after Cancel, or
// the engine failure. It returns nil while the utterance is pending.
func (u *Utterance) Err() error {
	select {
	case <-u.done:
		return u.err
	default:
		return nil
	}
}

// Wait blocks until the utterance ends or ctx is done.
func (u *Utterance) Wait(ctx context.Context) error {
	select {
	case <-u.done:
		return u.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
