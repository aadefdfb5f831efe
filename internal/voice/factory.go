package voice

import (
	"errors"
	"fmt"
	"os/exec"
)

// Engine names accepted by New.
const (
	EngineAuto   = "auto"
	EngineEspeak = "espeak"
	EngineSay    = "say"
)

// ErrNoEngine is returned when no supported speech binary is installed.
var ErrNoEngine = errors.New("voice: no speech engine found (install espeak-ng, or use macOS say)")

var binaries = map[string][]string{
	EngineEspeak: {"espeak-ng", "espeak"},
	EngineSay:    {"say"},
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// New returns the named engine. "auto" (or "") picks the first engine
// whose binary is on PATH.
func New(engine string) (Synthesizer, error) {
	switch engine {
	case "", EngineAuto:
		for _, name := range []string{EngineSay, EngineEspeak} {
			if s, err := New(name); err == nil {
				return s, nil
			}
		}
		return nil, ErrNoEngine
	case EngineEspeak:
		bin, err := findBinary(engine)
		if err != nil {
			return nil, err
		}
		return NewEspeak(bin), nil
	case EngineSay:
		bin, err := findBinary(engine)
		if err != nil {
			return nil, err
		}
		return NewSay(bin), nil
	default:
		return nil, fmt.Errorf("voice: unsupported engine %q", engine)
	}
}

func findBinary(engine string) (string, error) {
	for _, b := range binaries[engine] {
		if p, err := lookPath(b); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("voice: %s: %w", engine, ErrNoEngine)
}
