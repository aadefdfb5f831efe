//go:build !gui

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/metcalfc/prr/internal/extract"
	"github.com/metcalfc/prr/internal/reader"
	"github.com/metcalfc/prr/internal/voice"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF0000"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(0, 1)

	speakingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#444444"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)
)

const step = 0.1

type keyMap struct {
	Toggle    key.Binding
	Open      key.Binding
	Voice     key.Binding
	RateDown  key.Binding
	RateUp    key.Binding
	PitchDown key.Binding
	PitchUp   key.Binding
	VolDown   key.Binding
	VolUp     key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Open, k.Voice, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Open, k.Voice},
		{k.RateDown, k.RateUp, k.PitchDown, k.PitchUp},
		{k.VolDown, k.VolUp, k.Help, k.Quit},
	}
}

var keys = keyMap{
	Toggle:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "read/stop")),
	Open:      key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open pdf")),
	Voice:     key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "voice")),
	RateDown:  key.NewBinding(key.WithKeys("["), key.WithHelp("[", "slower")),
	RateUp:    key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "faster")),
	PitchDown: key.NewBinding(key.WithKeys("{"), key.WithHelp("{", "lower pitch")),
	PitchUp:   key.NewBinding(key.WithKeys("}"), key.WithHelp("}", "higher pitch")),
	VolDown:   key.NewBinding(key.WithKeys("9"), key.WithHelp("9", "quieter")),
	VolUp:     key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "louder")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:      key.NewBinding(key.WithKeys("q", "Q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type mode int

const (
	modeReader mode = iota
	modePicker
	modeVoices
)

// changedMsg tells the model to re-read the controller.
type changedMsg struct{}

type loadedMsg struct{ err error }

type actionMsg struct{ err error }

type model struct {
	ctx     context.Context
	ctrl    *reader.Controller
	changes <-chan struct{}

	state  reader.State
	mode   mode
	err    error
	shown  string
	picker filepicker.Model
	view   viewport.Model
	spin   spinner.Model
	help   help.Model

	filter  string
	matches []voice.Profile
	cursor  int

	// seenErr is the controller error last copied into err.
	seenErr error

	quitting bool
	width    int
	height   int
}

func newModel(ctx context.Context, ctrl *reader.Controller, changes <-chan struct{}) model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".pdf"}
	if dir, err := os.Getwd(); err == nil {
		fp.CurrentDirectory = dir
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return model{
		ctx:     ctx,
		ctrl:    ctrl,
		changes: changes,
		state:   ctrl.Snapshot(),
		picker:  fp,
		view:    viewport.New(80, 20),
		spin:    sp,
		help:    help.New(),
		width:   80,
		height:  24,
	}
}

// notifier coalesces controller notifications into a channel the model
// can wait on. Sending to the program from the listener would deadlock
// when the change originates inside Update.
func notifier() (func(reader.State), <-chan struct{}) {
	ch := make(chan struct{}, 1)
	return func(reader.State) {
		select {
		case ch <- struct{}{}:
		default:
		}
	}, ch
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		<-ch
		return changedMsg{}
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.picker.Init(), m.spin.Tick, waitForChange(m.changes))
}

func (m model) loadFile(path string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return loadedMsg{err: err}
		}
		name := filepath.Base(path)
		if !extract.IsPDF(name, data) {
			return loadedMsg{err: &extract.DecodeError{Name: name, Err: extract.ErrNotPDF}}
		}
		return loadedMsg{err: m.ctrl.LoadFile(m.ctx, name, data)}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.view.Width = msg.Width
		m.view.Height = max(msg.Height-4, 1)
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd

	case changedMsg:
		m.sync()
		return m, waitForChange(m.changes)

	case loadedMsg:
		m.err = msg.err
		m.sync()
		return m, nil

	case actionMsg:
		m.err = msg.err
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.mode {
		case modePicker:
			return m.updatePicker(msg)
		case modeVoices:
			return m.updateVoices(msg)
		}
		return m.updateReader(msg)
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

func (m model) updateReader(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.state.Settings
	shown := m.err
	m.err = nil
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, keys.Toggle):
		m.err = m.ctrl.Toggle(m.ctx)

	case key.Matches(msg, keys.Open):
		m.mode = modePicker
		return m, m.picker.Init()

	case key.Matches(msg, keys.Voice):
		m.mode = modeVoices
		m.filter = ""
		m.refilter()

	case key.Matches(msg, keys.RateDown):
		m.ctrl.SetRate(s.Rate - step)
	case key.Matches(msg, keys.RateUp):
		m.ctrl.SetRate(s.Rate + step)
	case key.Matches(msg, keys.PitchDown):
		m.ctrl.SetPitch(s.Pitch - step)
	case key.Matches(msg, keys.PitchUp):
		m.ctrl.SetPitch(s.Pitch + step)
	case key.Matches(msg, keys.VolDown):
		m.ctrl.SetVolume(s.Volume - step)
	case key.Matches(msg, keys.VolUp):
		m.ctrl.SetVolume(s.Volume + step)

	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	default:
		m.err = shown
		var cmd tea.Cmd
		m.view, cmd = m.view.Update(msg)
		return m, cmd
	}
	m.sync()
	return m, nil
}

func (m model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "tab" {
		m.mode = modeReader
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.mode = modeReader
		m.err = nil
		return m, tea.Batch(cmd, m.loadFile(path))
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		m.err = &extract.DecodeError{Name: filepath.Base(path), Err: extract.ErrNotPDF}
	}
	return m, cmd
}

func (m model) updateVoices(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeReader
	case tea.KeyEnter:
		if m.cursor < len(m.matches) {
			m.ctrl.SetVoice(m.matches[m.cursor].Key())
			m.sync()
		}
		m.mode = modeReader
	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case tea.KeyDown:
		if m.cursor < len(m.matches)-1 {
			m.cursor++
		}
	case tea.KeyBackspace:
		if m.filter != "" {
			r := []rune(m.filter)
			m.filter = string(r[:len(r)-1])
			m.refilter()
		}
	case tea.KeyRunes, tea.KeySpace:
		m.filter += string(msg.Runes)
		m.refilter()
	}
	return m, nil
}

// refilter narrows the voice list to fuzzy matches of the typed filter.
func (m *model) refilter() {
	m.matches = filterVoices(m.state.Voices, m.filter)
	m.cursor = 0
}

func filterVoices(voices []voice.Profile, pattern string) []voice.Profile {
	if pattern == "" {
		return voices
	}
	labels := make([]string, len(voices))
	for i, v := range voices {
		labels[i] = v.String()
	}
	var out []voice.Profile
	for _, match := range fuzzy.Find(pattern, labels) {
		out = append(out, voices[match.Index])
	}
	return out
}

// sync pulls a fresh snapshot from the controller.
func (m *model) sync() {
	m.state = m.ctrl.Snapshot()
	if m.state.Text != m.shown {
		m.shown = m.state.Text
		m.view.SetContent(m.shown)
		m.view.GotoTop()
	}
	if m.state.Err != nil && m.state.Err != m.seenErr {
		m.err = m.state.Err
	}
	m.seenErr = m.state.Err
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(m.statusLine())
	sb.WriteString("\n")

	switch m.mode {
	case modePicker:
		sb.WriteString(dimStyle.Render("Pick a PDF (tab to cancel)"))
		sb.WriteString("\n")
		sb.WriteString(m.picker.View())
	case modeVoices:
		sb.WriteString(m.voicesView())
	default:
		if m.state.Phase == reader.Idle && m.state.Loading == "" {
			sb.WriteString("\n  Press o to open a PDF.\n")
		} else {
			sb.WriteString(m.view.View())
		}
	}

	sb.WriteString("\n")
	if m.err != nil {
		sb.WriteString(errorStyle.Render(describe(m.err)))
		sb.WriteString("\n")
	}
	sb.WriteString(m.help.View(keys))
	return sb.String()
}

func (m model) statusLine() string {
	st := m.state
	file := st.FileName
	if file == "" {
		file = "no document"
	}

	phase := strings.ToUpper(st.Phase.String())
	if st.Phase == reader.Speaking {
		phase = speakingStyle.Render(phase)
	}
	if st.Loading != "" {
		phase = loadingStyle.Render(m.spin.View() + " loading " + st.Loading)
	}

	voiceName := "default voice"
	if len(st.Voices) == 0 {
		voiceName = "no voices"
	} else if !st.Settings.Voice.IsZero() {
		voiceName = voice.Profile{Name: st.Settings.Voice.Name, Lang: st.Settings.Voice.Lang}.String()
	}

	return titleStyle.Render("prr") + statusStyle.Render(fmt.Sprintf(
		"%s | %s | %s | rate %.1f pitch %.1f vol %.1f",
		file, phase, voiceName, st.Settings.Rate, st.Settings.Pitch, st.Settings.Volume,
	))
}

func (m model) voicesView() string {
	var sb strings.Builder
	sb.WriteString(dimStyle.Render("Voice: " + m.filter + "_  (enter select, esc cancel)"))
	sb.WriteString("\n")
	if len(m.matches) == 0 {
		sb.WriteString("  no matching voices\n")
		return sb.String()
	}

	rows := max(m.height-5, 1)
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	for i := start; i < len(m.matches) && i < start+rows; i++ {
		line := "  " + m.matches[i].String()
		if m.matches[i].Key() == m.state.Settings.Voice {
			line += " *"
		}
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

func describe(err error) string {
	if errors.Is(err, reader.ErrEmptyCatalog) {
		return "No voices installed; playback is disabled."
	}
	return extract.Describe(err)
}

func usage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, "Prr - PDF Read-Aloud\n\n")
	fmt.Fprintf(os.Stderr, "Usage:\n")
	fmt.Fprintf(os.Stderr, "  prr [options] [file.pdf]\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  prr paper.pdf               Open a PDF\n")
	fmt.Fprintf(os.Stderr, "  prr -rate 1.5 paper.pdf     Read faster\n")
	fmt.Fprintf(os.Stderr, "  prr -engine espeak          Use espeak-ng\n")
	fmt.Fprintf(os.Stderr, "\nControls:\n")
	fmt.Fprintf(os.Stderr, "  SPACE    Read aloud/stop\n")
	fmt.Fprintf(os.Stderr, "  o        Open a PDF\n")
	fmt.Fprintf(os.Stderr, "  v        Choose a voice\n")
	fmt.Fprintf(os.Stderr, "  [ / ]    Slower/faster\n")
	fmt.Fprintf(os.Stderr, "  { / }    Lower/higher pitch\n")
	fmt.Fprintf(os.Stderr, "  9 / 0    Quieter/louder\n")
	fmt.Fprintf(os.Stderr, "  Q        Quit\n")
}

func main() {
	opts, err := parseFlags("prr", os.Args[1:], usage)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if opts.showVersion {
		fmt.Printf("prr %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	// The terminal belongs to the UI; logs go to a file or nowhere.
	closer, err := setupLogger(opts.cfg.Log, io.Discard)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	synth, err := voice.New(opts.cfg.Engine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	listener, changes := notifier()
	sess, err := newSession(opts.cfg, synth, listener)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess.startCatalog(ctx)
	defer sess.close()

	if opts.file != "" {
		if err := sess.loadPath(ctx, opts.file); err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to read file '%s': %v\n", opts.file, err)
			os.Exit(1)
		}
	}

	m := newModel(ctx, sess.ctrl, changes)
	m.sync()
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
