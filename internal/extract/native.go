package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
)

// NativeBackend decodes PDFs in-process with github.com/ledongthuc/pdf.
// Each text row on a page becomes one fragment.
type NativeBackend struct{}

func init() {
	Register(NativeBackend{})
}

func (NativeBackend) Name() string { return "native" }

func (NativeBackend) Open(ctx context.Context, data []byte) (doc Document, err error) {
	defer recoverDecode(&err)
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	declared := r.NumPage()
	if declared < 0 {
		return nil, fmt.Errorf("invalid page count %d", declared)
	}
	// /Count is only a claim; the page tree decides how many pages exist.
	n := min(declared, countPages(r.Trailer().Key("Root").Key("Pages")))
	return &nativeDocument{r: r, n: n}, nil
}

// maxPageNodes bounds the page tree walk, which a cyclic /Kids would
// otherwise never finish.
const maxPageNodes = 1 << 20

// countPages counts the leaf pages under a /Pages node.
func countPages(root pdf.Value) int {
	pages, visited := 0, 0
	var walk func(v pdf.Value, depth int)
	walk = func(v pdf.Value, depth int) {
		visited++
		if visited > maxPageNodes || depth > 64 {
			return
		}
		switch v.Key("Type").Name() {
		case "Page":
			pages++
		case "Pages":
			kids := v.Key("Kids")
			for i := 0; i < kids.Len(); i++ {
				walk(kids.Index(i), depth+1)
			}
		}
	}
	walk(root, 0)
	return pages
}

// nativeDocument serializes page access; the pdf reader is not safe for
// concurrent use.
type nativeDocument struct {
	mu sync.Mutex
	r  *pdf.Reader
	n  int
}

func (d *nativeDocument) NumPages() int {
	return d.n
}

func (d *nativeDocument) Page(ctx context.Context, n int) (Page, error) {
	if n < 1 || n > d.NumPages() {
		return nil, fmt.Errorf("page %d out of range [1, %d]", n, d.NumPages())
	}
	return &nativePage{doc: d, n: n}, nil
}

type nativePage struct {
	doc *nativeDocument
	n   int
}

func (p *nativePage) TextFragments(ctx context.Context) (frags []Fragment, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.doc.mu.Lock()
	defer p.doc.mu.Unlock()
	defer recoverDecode(&err)

	page := p.doc.r.Page(p.n)
	if page.V.IsNull() {
		return nil, nil
	}
	rows, err := page.GetTextByRow()
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		var b strings.Builder
		var x, y float64
		for i, t := range row.Content {
			if i == 0 {
				x, y = t.X, t.Y
			}
			b.WriteString(t.S)
		}
		text := strings.TrimSpace(b.String())
		if text == "" {
			continue
		}
		frags = append(frags, Fragment{Text: text, X: x, Y: y})
	}
	return frags, nil
}

// recoverDecode turns a panic inside the pdf package into an error; the
// package panics on some malformed streams.
func recoverDecode(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("malformed pdf: %v", r)
	}
}
