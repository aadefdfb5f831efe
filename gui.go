//go:build gui

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"github.com/metcalfc/prr/internal/extract"
	"github.com/metcalfc/prr/internal/reader"
	"github.com/metcalfc/prr/internal/voice"
)

// slider is a labelled range control bound to one setting.
type slider struct {
	label *widget.Label
	input *widget.Slider
	name  string
}

func newSlider(name string, min, max, value float64, set func(float64)) *slider {
	s := &slider{
		label: widget.NewLabel(""),
		input: widget.NewSlider(min, max),
		name:  name,
	}
	s.input.Step = 0.1
	s.input.SetValue(value)
	s.show(value)
	s.input.OnChanged = func(v float64) {
		s.show(v)
		set(v)
	}
	return s
}

func (s *slider) show(v float64) {
	s.label.SetText(fmt.Sprintf("%s: %.1f", s.name, v))
}

func (s *slider) object() fyne.CanvasObject {
	return container.NewBorder(nil, nil, s.label, nil, s.input)
}

func usage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, "Gprr - GUI PDF Read-Aloud\n\n")
	fmt.Fprintf(os.Stderr, "Usage:\n")
	fmt.Fprintf(os.Stderr, "  gprr [options] [file.pdf]\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  gprr paper.pdf              Open a PDF\n")
	fmt.Fprintf(os.Stderr, "  gprr -voice Samantha        Start with a voice\n")
}

func main() {
	opts, err := parseFlags("gprr", os.Args[1:], usage)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if opts.showVersion {
		fmt.Printf("gprr %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	closer, err := setupLogger(opts.cfg.Log, os.Stderr)
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// render is assigned once the widgets exist; notifications before
	// that are dropped and caught up by the first explicit render.
	var (
		render func(reader.State)
		sess   *session
	)
	sess, err = newSession(opts.cfg, synth, func(reader.State) {
		fyne.Do(func() {
			if render != nil {
				render(sess.ctrl.Snapshot())
			}
		})
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	a := app.New()
	w := a.NewWindow("gprr - PDF Read-Aloud")

	showErr := func(err error) {
		if err == nil {
			return
		}
		if errors.Is(err, reader.ErrEmptyCatalog) {
			dialog.ShowInformation("No voices", "No speech voices are installed; playback is disabled.", w)
			return
		}
		dialog.ShowError(errors.New(extract.Describe(err)), w)
	}

	st := sess.ctrl.Snapshot()

	statusLabel := widget.NewLabel("No document. Open a PDF to begin.")
	statusLabel.Alignment = fyne.TextAlignCenter

	textLabel := widget.NewLabel("")
	textLabel.Wrapping = fyne.TextWrapWord
	textScroll := container.NewVScroll(textLabel)

	playButton := widget.NewButton("Read Aloud", func() {
		showErr(sess.ctrl.Toggle(ctx))
	})
	playButton.Importance = widget.HighImportance

	openButton := widget.NewButton("Open PDF…", func() {
		d := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil {
				showErr(err)
				return
			}
			if rc == nil {
				return
			}
			defer rc.Close()
			data, err := io.ReadAll(rc)
			if err != nil {
				showErr(err)
				return
			}
			name := rc.URI().Name()
			go func() {
				if err := sess.ctrl.LoadFile(ctx, name, data); err != nil {
					fyne.Do(func() { showErr(err) })
				}
			}()
		}, w)
		d.SetFilter(storage.NewExtensionFileFilter([]string{".pdf", ".PDF"}))
		d.Show()
	})

	// Voice labels map back to catalog keys; labels are "Name (lang)".
	voiceKeys := map[string]voice.Key{}
	voiceSelect := widget.NewSelect(nil, func(label string) {
		k, ok := voiceKeys[label]
		if !ok || k == sess.ctrl.Snapshot().Settings.Voice {
			return
		}
		sess.ctrl.SetVoice(k)
	})
	voiceSelect.PlaceHolder = "No voices"

	rate := newSlider("Rate", reader.MinRate, reader.MaxRate, st.Settings.Rate, sess.ctrl.SetRate)
	pitch := newSlider("Pitch", reader.MinPitch, reader.MaxPitch, st.Settings.Pitch, sess.ctrl.SetPitch)
	volume := newSlider("Volume", reader.MinVolume, reader.MaxVolume, st.Settings.Volume, sess.ctrl.SetVolume)

	var shownText string
	render = func(st reader.State) {
		switch {
		case st.Loading != "":
			statusLabel.SetText("Loading " + st.Loading + "…")
		case st.Phase == reader.Idle:
			statusLabel.SetText("No document. Open a PDF to begin.")
		default:
			statusLabel.SetText(fmt.Sprintf("%s | %s", st.FileName, st.Phase))
		}

		if st.Phase == reader.Speaking {
			playButton.SetText("Stop Reading")
		} else {
			playButton.SetText("Read Aloud")
		}
		if st.Phase == reader.Idle || len(st.Voices) == 0 {
			playButton.Disable()
		} else {
			playButton.Enable()
		}

		labels := make([]string, len(st.Voices))
		clear(voiceKeys)
		selected := ""
		for i, v := range st.Voices {
			labels[i] = v.String()
			voiceKeys[labels[i]] = v.Key()
			if v.Key() == st.Settings.Voice {
				selected = labels[i]
			}
		}
		voiceSelect.Options = labels
		if selected != "" && voiceSelect.Selected != selected {
			voiceSelect.SetSelected(selected)
		}
		voiceSelect.Refresh()

		if st.Text != shownText {
			shownText = st.Text
			textLabel.SetText(shownText)
			textScroll.ScrollToTop()
		}
	}

	controls := container.NewVBox(
		container.NewHBox(openButton, playButton),
		container.NewBorder(nil, nil, widget.NewLabel("Voice:"), nil, voiceSelect),
		rate.object(),
		pitch.object(),
		volume.object(),
		statusLabel,
	)
	w.SetContent(container.NewBorder(controls, nil, nil, nil, textScroll))
	w.Resize(fyne.NewSize(800, 600))

	w.Canvas().SetOnTypedKey(func(key *fyne.KeyEvent) {
		switch key.Name {
		case fyne.KeySpace:
			showErr(sess.ctrl.Toggle(ctx))
		case fyne.KeyEscape:
			sess.ctrl.Stop()
		}
	})

	w.SetOnClosed(func() {
		sess.close()
		cancel()
	})

	go func() {
		sess.startCatalog(ctx)
		if opts.file != "" {
			if err := sess.loadPath(ctx, opts.file); err != nil {
				fyne.Do(func() { showErr(err) })
			}
		}
	}()

	render(sess.ctrl.Snapshot())
	w.ShowAndRun()
}
