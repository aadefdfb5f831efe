//go:build !gui

package main

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/metcalfc/prr/internal/reader"
	"github.com/metcalfc/prr/internal/voice"
	"github.com/metcalfc/prr/internal/voice/mock"
)

type staticExtractor map[string]string

func (s staticExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	text, ok := s[string(data)]
	if !ok {
		return "", errors.New("bad header")
	}
	return text, nil
}

var tuiVoices = []voice.Profile{
	{ID: "a", Name: "Alpha", Lang: "en-US"},
	{ID: "g", Name: "GoogleX", Lang: "en-US"},
	{ID: "b", Name: "Beta", Lang: "de-DE"},
}

func newTestModel(t *testing.T, voices []voice.Profile) (model, *mock.Synthesizer) {
	t.Helper()
	s := &mock.Synthesizer{Voices: voices}
	ctrl := reader.New(s, staticExtractor{"doc": "Hello world\n\nFoo\n\n"})
	ctrl.RefreshCatalog(context.Background())
	m := newModel(context.Background(), ctrl, nil)
	m.sync()
	return m, s
}

func press(t *testing.T, m model, keys ...tea.KeyMsg) model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(model)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}

func TestFilterVoices(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		want    []string
	}{
		{"empty pattern keeps all", "", []string{"Alpha", "GoogleX", "Beta"}},
		{"fuzzy match", "bet", []string{"Beta"}},
		{"matches language", "de-DE", []string{"Beta"}},
		{"no match", "zzz", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterVoices(tuiVoices, tt.pattern)
			var names []string
			for _, v := range got {
				names = append(names, v.Name)
			}
			if strings.Join(names, ",") != strings.Join(tt.want, ",") {
				t.Errorf("filterVoices(%q) = %v, want %v", tt.pattern, names, tt.want)
			}
		})
	}
}

func TestModelIdleView(t *testing.T) {
	m, _ := newTestModel(t, tuiVoices)
	view := m.View()
	if !strings.Contains(view, "Press o to open a PDF") {
		t.Errorf("idle view missing prompt:\n%s", view)
	}
	if !strings.Contains(view, "GoogleX (en-US)") {
		t.Errorf("status line missing default voice:\n%s", view)
	}
}

func TestModelSpaceWithoutDocumentIsNoOp(t *testing.T) {
	m, s := newTestModel(t, tuiVoices)
	m = press(t, m, space)
	if speaks, _ := s.Calls(); speaks != 0 {
		t.Errorf("Speak called %d times", speaks)
	}
	if m.err != nil {
		t.Errorf("err = %v", m.err)
	}
}

func TestModelTogglePlayback(t *testing.T) {
	m, s := newTestModel(t, tuiVoices)
	if err := m.ctrl.LoadFile(context.Background(), "a.pdf", []byte("doc")); err != nil {
		t.Fatal(err)
	}
	m.sync()

	m = press(t, m, space)
	if m.state.Phase != reader.Speaking {
		t.Fatalf("Phase = %v, want speaking", m.state.Phase)
	}
	if !strings.Contains(m.View(), "SPEAKING") {
		t.Error("view does not show speaking")
	}

	m = press(t, m, space)
	if m.state.Phase != reader.Loaded {
		t.Fatalf("Phase = %v, want loaded", m.state.Phase)
	}
	if speaks, cancels := s.Calls(); speaks != 1 || cancels != 1 {
		t.Errorf("speaks = %d, cancels = %d", speaks, cancels)
	}
}

func TestModelSettingsKeys(t *testing.T) {
	tests := []struct {
		key   string
		field func(reader.Settings) float64
		want  float64
	}{
		{"]", func(s reader.Settings) float64 { return s.Rate }, 1.1},
		{"[", func(s reader.Settings) float64 { return s.Rate }, 0.9},
		{"}", func(s reader.Settings) float64 { return s.Pitch }, 1.1},
		{"{", func(s reader.Settings) float64 { return s.Pitch }, 0.9},
		{"9", func(s reader.Settings) float64 { return s.Volume }, 0.9},
		{"0", func(s reader.Settings) float64 { return s.Volume }, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m, _ := newTestModel(t, tuiVoices)
			m = press(t, m, runes(tt.key))
			if got := tt.field(m.state.Settings); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("after %q got %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestModelVoicePicker(t *testing.T) {
	m, _ := newTestModel(t, tuiVoices)
	m = press(t, m, runes("v"))
	if m.mode != modeVoices {
		t.Fatal("v did not open the voice picker")
	}

	m = press(t, m, runes("b"), runes("e"), runes("t"))
	if !strings.Contains(m.View(), "Beta (de-DE)") {
		t.Errorf("filtered list missing Beta:\n%s", m.View())
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.mode != modeReader {
		t.Error("enter did not close the picker")
	}
	if got := m.state.Settings.Voice; got != (voice.Key{Name: "Beta", Lang: "de-DE"}) {
		t.Errorf("Voice = %+v, want Beta", got)
	}
}

func TestModelVoicePickerEscape(t *testing.T) {
	m, _ := newTestModel(t, tuiVoices)
	m = press(t, m, runes("v"), tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEsc})
	if m.mode != modeReader {
		t.Error("esc did not close the picker")
	}
	if m.state.Settings.Voice.Name != "GoogleX" {
		t.Errorf("esc changed the voice to %q", m.state.Settings.Voice.Name)
	}
}

func TestModelEmptyCatalog(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m.ctrl.LoadFile(context.Background(), "a.pdf", []byte("doc"))
	m.sync()

	m = press(t, m, space)
	if !errors.Is(m.err, reader.ErrEmptyCatalog) {
		t.Fatalf("err = %v, want ErrEmptyCatalog", m.err)
	}
	view := m.View()
	if !strings.Contains(view, "No voices installed") || !strings.Contains(view, "no voices") {
		t.Errorf("view does not explain the empty catalog:\n%s", view)
	}
}

func TestModelLoadError(t *testing.T) {
	m, _ := newTestModel(t, tuiVoices)
	next, _ := m.Update(loadedMsg{err: errors.New("boom")})
	m = next.(model)
	if !strings.Contains(m.View(), "boom") {
		t.Errorf("view does not show the load error:\n%s", m.View())
	}
}

func TestModelDecodeErrorClearsOnNextAction(t *testing.T) {
	m, _ := newTestModel(t, tuiVoices)
	if err := m.ctrl.LoadFile(context.Background(), "bad.pdf", []byte("garbage")); err == nil {
		t.Fatal("expected load error")
	}
	next, _ := m.Update(changedMsg{})
	m = next.(model)
	if !strings.Contains(m.View(), "bad header") {
		t.Fatalf("view does not show the decode error:\n%s", m.View())
	}

	m = press(t, m, runes("]"))
	if strings.Contains(m.View(), "bad header") {
		t.Errorf("decode error still shown after a settings change:\n%s", m.View())
	}

	next, _ = m.Update(changedMsg{})
	m = next.(model)
	if m.err != nil {
		t.Errorf("err = %v, want nil after a repeat notification", m.err)
	}
}

func TestModelQuit(t *testing.T) {
	m, _ := newTestModel(t, tuiVoices)
	next, cmd := m.Update(runes("q"))
	if !next.(model).quitting {
		t.Error("q did not set quitting")
	}
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not return tea.Quit")
	}
}

func TestNotifierCoalesces(t *testing.T) {
	listener, ch := notifier()
	listener(reader.State{})
	listener(reader.State{})
	listener(reader.State{})

	if _, ok := waitForChange(ch)().(changedMsg); !ok {
		t.Fatal("expected changedMsg")
	}
	select {
	case <-ch:
		t.Error("notifications were not coalesced")
	default:
	}
}
