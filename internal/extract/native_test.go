package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"
)

// buildPDF writes a small uncompressed PDF with one text row per line.
// count replaces the page tree's /Count when non-empty.
func buildPDF(count string, pages ...[]string) []byte {
	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	if count == "" {
		count = strconv.Itoa(len(pages))
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %s >>", strings.Join(kids, " "), count))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	for i, lines := range pages {
		var content strings.Builder
		content.WriteString("BT /F1 12 Tf")
		for j, l := range lines {
			fmt.Fprintf(&content, " 1 0 0 1 72.0 %.1f Tm (%s) Tj", 700.0-20*float64(j), l)
		}
		content.WriteString(" ET")
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func nativePipeline(t *testing.T, workers int) *Pipeline {
	t.Helper()
	b, err := Lookup("native")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	return NewPipeline(b, workers)
}

func TestNativeBackendPageOrder(t *testing.T) {
	data := buildPDF("", []string{"Hello", "world"}, []string{"Foo"})
	p := nativePipeline(t, 2)

	got, err := p.Extract(context.Background(), data)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if want := "Hello world\n\nFoo\n\n"; got != want {
		t.Errorf("Extract() = %q, want %q", got, want)
	}

	again, err := p.Extract(context.Background(), data)
	if err != nil || again != got {
		t.Errorf("second Extract() = %q, %v; want identical text", again, err)
	}
}

func TestNativeBackendPageCount(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    string
		wantErr bool
	}{
		{"negative count", buildPDF("-1"), "", true},
		{"count beyond page tree", buildPDF("2000000000", []string{"Hello"}), "Hello\n\n", false},
		{"count below page tree", buildPDF("1", []string{"One"}, []string{"Two"}), "One\n\n", false},
		{"empty tree", buildPDF(""), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := nativePipeline(t, 1).Extract(context.Background(), tt.data)
			if tt.wantErr {
				var de *DecodeError
				if !errors.As(err, &de) {
					t.Fatalf("err = %v, want *DecodeError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if got != tt.want {
				t.Errorf("Extract() = %q, want %q", got, tt.want)
			}
		})
	}
}
