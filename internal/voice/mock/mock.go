// Package mock provides a test double for the voice.Synthesizer interface.
//
// Speak returns pending utterances; tests end them with Finish (natural
// end of speech) or through Cancel, and inspect the recorded calls.
//
//	s := &mock.Synthesizer{Voices: []voice.Profile{{Name: "Alice", Lang: "en-US"}}}
//	u, _ := s.Speak(ctx, "hello", voice.Params{Rate: 1})
//	s.Finish(0)
package mock

import (
	"context"
	"sync"

	"github.com/metcalfc/prr/internal/voice"
)

// SpeakCall records a single invocation of Speak.
type SpeakCall struct {
	Text   string
	Params voice.Params
}

// Synthesizer is a mock implementation of voice.Synthesizer.
type Synthesizer struct {
	mu sync.Mutex

	// Voices is returned by ListVoices.
	Voices []voice.Profile

	// ListErr, if non-nil, is returned by ListVoices.
	ListErr error

	// SpeakErr, if non-nil, is returned by Speak instead of an utterance.
	SpeakErr error

	// SpeakCalls records every call to Speak in order.
	SpeakCalls []SpeakCall

	// CancelCalls counts calls to Cancel.
	CancelCalls int

	// ListCalls counts calls to ListVoices.
	ListCalls int

	utterances []*voice.Utterance
	resolvers  []func(error)
}

func (s *Synthesizer) Name() string { return "mock" }

// Speak records the call and returns a pending utterance.
func (s *Synthesizer) Speak(ctx context.Context, text string, p voice.Params) (*voice.Utterance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SpeakCalls = append(s.SpeakCalls, SpeakCall{Text: text, Params: p})
	if s.SpeakErr != nil {
		return nil, s.SpeakErr
	}
	u, resolve := voice.NewUtterance(text, p)
	s.utterances = append(s.utterances, u)
	s.resolvers = append(s.resolvers, resolve)
	return u, nil
}

// Cancel records the call and resolves every pending utterance with
// voice.ErrCanceled.
func (s *Synthesizer) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CancelCalls++
	for _, resolve := range s.resolvers {
		resolve(voice.ErrCanceled)
	}
}

// ListVoices records the call and returns Voices, ListErr.
func (s *Synthesizer) ListVoices(ctx context.Context) ([]voice.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ListCalls++
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	out := make([]voice.Profile, len(s.Voices))
	copy(out, s.Voices)
	return out, nil
}

// SetVoices replaces the voice list. Thread-safe.
func (s *Synthesizer) SetVoices(voices []voice.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Voices = voices
}

// Finish ends the i-th utterance as if speech reached its natural end.
func (s *Synthesizer) Finish(i int) {
	s.mu.Lock()
	resolve := s.resolvers[i]
	s.mu.Unlock()
	resolve(nil)
}

// Utterance returns the i-th utterance returned by Speak.
func (s *Synthesizer) Utterance(i int) *voice.Utterance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.utterances[i]
}

// Calls returns a snapshot of the Speak and Cancel counts. Thread-safe.
func (s *Synthesizer) Calls() (speak, cancel int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.SpeakCalls), s.CancelCalls
}

// Ensure Synthesizer implements voice.Synthesizer at compile time.
var _ voice.Synthesizer = (*Synthesizer)(nil)
