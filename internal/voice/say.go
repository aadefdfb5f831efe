package voice

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const sayBaseWPM = 175

// NewSay returns an engine driving the macOS say binary at bin.
func NewSay(bin string) Synthesizer {
	return newProcessSynth(command{
		name:   EngineSay,
		bin:    bin,
		args:   sayArgs,
		input:  sayInput,
		voices: sayVoices,
	})
}

func sayArgs(p Params) []string {
	var args []string
	if id := p.Voice.ID; id != "" {
		args = append(args, "-v", id)
	}
	return append(args, "-r", strconv.Itoa(int(sayBaseWPM*p.Rate+0.5)))
}

// sayInput prefixes the text with embedded speech commands, since say has
// no flags for pitch or volume.
func sayInput(text string, p Params) string {
	var b strings.Builder
	if p.Volume != 1 {
		fmt.Fprintf(&b, "[[volm %.2f]] ", p.Volume)
	}
	if p.Pitch != 1 {
		fmt.Fprintf(&b, "[[pbas %+d]] ", int((p.Pitch-1)*20))
	}
	b.WriteString(text)
	return b.String()
}

func sayVoices(ctx context.Context, bin string) ([]Profile, error) {
	out, err := runOutput(ctx, bin, "-v", "?")
	if err != nil {
		return nil, err
	}
	return parseSayVoices(out), nil
}

// Voice names may contain spaces and parentheses, e.g.
//
//	Eddy (English (US)) en_US    # Hello! My name is Eddy.
var sayVoiceLine = regexp.MustCompile(`^(.+?)\s+([a-z]{2,3}[_-][A-Za-z0-9]+)\s+#`)

func parseSayVoices(out []byte) []Profile {
	var voices []Profile
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		m := sayVoiceLine.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		voices = append(voices, Profile{ID: name, Name: name, Lang: m[2]})
	}
	return voices
}
