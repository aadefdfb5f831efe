package voice_test

import (
	"context"
	"testing"
	"time"

	"github.com/metcalfc/prr/internal/voice"
	"github.com/metcalfc/prr/internal/voice/mock"
)

func TestWatcherFiresOnChangeOnly(t *testing.T) {
	initial := []voice.Profile{{Name: "Alpha", Lang: "en"}}
	s := &mock.Synthesizer{Voices: initial}

	changes := make(chan []voice.Profile, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := voice.NewWatcher(ctx, s, func(v []voice.Profile) { changes <- v },
		voice.WithInterval(5*time.Millisecond),
		voice.WithBaseline(initial),
	)
	defer w.Stop()

	select {
	case v := <-changes:
		t.Fatalf("unchanged catalog fired: %v", v)
	case <-time.After(50 * time.Millisecond):
	}

	s.SetVoices([]voice.Profile{{Name: "Alpha", Lang: "en"}, {Name: "GoogleX", Lang: "en"}})

	select {
	case v := <-changes:
		if len(v) != 2 {
			t.Errorf("got %d voices, want 2", len(v))
		}
	case <-time.After(time.Second):
		t.Fatal("watcher did not report the new voice")
	}
}

func TestWatcherWithoutBaselineFiresFirstPoll(t *testing.T) {
	s := &mock.Synthesizer{Voices: []voice.Profile{{Name: "Alpha"}}}
	changes := make(chan []voice.Profile, 1)

	w := voice.NewWatcher(context.Background(), s, func(v []voice.Profile) {
		select {
		case changes <- v:
		default:
		}
	}, voice.WithInterval(5*time.Millisecond))
	defer w.Stop()

	select {
	case <-changes:
	case <-time.After(time.Second):
		t.Fatal("first poll did not fire")
	}
}
