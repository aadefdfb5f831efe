package extract

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"

	"code.sajari.com/docconv"
)

// PdftotextBackend shells out to poppler's pdftotext through docconv. The
// tool does not report page boundaries, so the document is a single page
// with one fragment per non-blank line.
type PdftotextBackend struct{}

func init() {
	Register(PdftotextBackend{})
}

func (PdftotextBackend) Name() string { return "pdftotext" }

func (PdftotextBackend) Open(ctx context.Context, data []byte) (Document, error) {
	if !bytes.HasPrefix(data, pdfMagic) {
		return nil, ErrNotPDF
	}
	text, _, err := docconv.ConvertPDF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return textDocument{lines: splitLines(text)}, nil
}

// textDocument is a one-page document over already extracted text.
type textDocument struct {
	lines []string
}

func (d textDocument) NumPages() int { return 1 }

func (d textDocument) Page(ctx context.Context, n int) (Page, error) {
	if n != 1 {
		return nil, fmt.Errorf("page %d out of range [1, 1]", n)
	}
	return d, nil
}

func (d textDocument) TextFragments(ctx context.Context) ([]Fragment, error) {
	frags := make([]Fragment, len(d.lines))
	for i, l := range d.lines {
		frags[i] = Fragment{Text: l, Y: float64(i)}
	}
	return frags, nil
}

func splitLines(text string) []string {
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if l := strings.TrimSpace(sc.Text()); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
