package voice

import (
	"bufio"
	"bytes"
	"context"
	"strconv"
	"strings"
)

// espeak-ng defaults: 175 words per minute, pitch 50 of 0-99, amplitude
// 100 of 0-200.
const (
	espeakBaseWPM   = 175
	espeakBasePitch = 50
	espeakBaseAmp   = 100
)

// NewEspeak returns an engine driving the espeak-ng (or espeak) binary at bin.
func NewEspeak(bin string) Synthesizer {
	return newProcessSynth(command{
		name:   EngineEspeak,
		bin:    bin,
		args:   espeakArgs,
		voices: espeakVoices,
	})
}

func espeakArgs(p Params) []string {
	var args []string
	if id := p.Voice.ID; id != "" {
		args = append(args, "-v", id)
	}
	pitch := clampInt(int(espeakBasePitch*p.Pitch+0.5), 0, 99)
	amp := clampInt(int(espeakBaseAmp*p.Volume+0.5), 0, 200)
	args = append(args,
		"-s", strconv.Itoa(int(espeakBaseWPM*p.Rate+0.5)),
		"-p", strconv.Itoa(pitch),
		"-a", strconv.Itoa(amp),
		"--stdin",
	)
	return args
}

func espeakVoices(ctx context.Context, bin string) ([]Profile, error) {
	out, err := runOutput(ctx, bin, "--voices")
	if err != nil {
		return nil, err
	}
	return parseEspeakVoices(out), nil
}

// parseEspeakVoices reads the table printed by `espeak-ng --voices`:
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  af              --/M      Afrikaans          gmw/af
func parseEspeakVoices(out []byte) []Profile {
	var voices []Profile
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		f := strings.Fields(sc.Text())
		if len(f) < 5 || f[0] == "Pty" {
			continue
		}
		voices = append(voices, Profile{
			ID:   f[4],
			Name: f[3],
			Lang: f[1],
		})
	}
	return voices
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
