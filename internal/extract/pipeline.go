package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	// PageSeparator follows every page's text.
	PageSeparator = "\n\n"

	// DefaultWorkers bounds concurrent page fetches.
	DefaultWorkers = 4
)

// Pipeline extracts the text of a whole document.
type Pipeline struct {
	opener  Opener
	workers int
}

// NewPipeline returns a pipeline over opener. workers < 1 means
// DefaultWorkers.
func NewPipeline(opener Opener, workers int) *Pipeline {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Pipeline{opener: opener, workers: workers}
}

// Extract decodes data and returns the text of every page in ascending
// page order. Fragments within a page are joined with a single space and
// each page is followed by PageSeparator. Pages may be fetched
// concurrently; the result does not depend on fetch order.
//
// Any decode failure is returned as a *DecodeError.
func (p *Pipeline) Extract(ctx context.Context, data []byte) (string, error) {
	doc, err := p.opener.Open(ctx, data)
	if err != nil {
		return "", asDecodeError(0, err)
	}
	if c, ok := doc.(interface{ Close() error }); ok {
		defer c.Close()
	}
	return p.extractDoc(ctx, doc)
}

func (p *Pipeline) extractDoc(ctx context.Context, doc Document) (string, error) {
	n := doc.NumPages()
	if n < 0 {
		return "", &DecodeError{Err: fmt.Errorf("invalid page count %d", n)}
	}
	pages := make([]string, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := 1; i <= n; i++ {
		i := i
		g.Go(func() error {
			text, err := pageText(gctx, doc, i)
			if err != nil {
				return asDecodeError(i, err)
			}
			pages[i-1] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	var out strings.Builder
	for _, text := range pages {
		out.WriteString(text)
		out.WriteString(PageSeparator)
	}
	slog.Debug("extracted document", "pages", n, "chars", out.Len())
	return out.String(), nil
}

func pageText(ctx context.Context, doc Document, n int) (string, error) {
	page, err := doc.Page(ctx, n)
	if err != nil {
		return "", err
	}
	frags, err := page.TextFragments(ctx)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(frags))
	for i, f := range frags {
		parts[i] = f.Text
	}
	return strings.Join(parts, " "), nil
}

func asDecodeError(page int, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	return &DecodeError{Page: page, Err: err}
}

// ExtractFile reads a PDF from disk and extracts it.
func (p *Pipeline) ExtractFile(ctx context.Context, filename string) (string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}
	if !IsPDF(filename, data) {
		return "", &DecodeError{Name: filepath.Base(filename), Err: ErrNotPDF}
	}
	text, err := p.Extract(ctx, data)
	var de *DecodeError
	if errors.As(err, &de) {
		de.Name = filepath.Base(filename)
	}
	return text, err
}

// ErrNotPDF is the cause of a DecodeError for files that are not PDFs.
var ErrNotPDF = errors.New("not a PDF file")

var pdfMagic = []byte("%PDF-")

// IsPDF reports whether a file looks like a PDF, by extension or by its
// leading magic bytes. data may be nil.
func IsPDF(name string, data []byte) bool {
	if strings.EqualFold(filepath.Ext(name), ".pdf") {
		return true
	}
	return bytes.HasPrefix(data, pdfMagic)
}

// Describe formats an extraction failure for a status line.
func Describe(err error) string {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Error()
	}
	return fmt.Sprintf("extraction failed: %v", err)
}
