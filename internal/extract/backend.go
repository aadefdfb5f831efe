// Package extract turns PDF bytes into plain text, one page after another.
package extract

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Fragment is a run of text on a page. Position is carried but unused.
type Fragment struct {
	Text string
	X, Y float64
}

// Page is one page of an opened document.
type Page interface {
	TextFragments(ctx context.Context) ([]Fragment, error)
}

// Document is an opened document with 1-indexed pages.
type Document interface {
	NumPages() int
	Page(ctx context.Context, n int) (Page, error)
}

// Opener decodes raw bytes into a Document.
type Opener interface {
	Open(ctx context.Context, data []byte) (Document, error)
}

// Backend is a named Opener that can be chosen from config.
type Backend interface {
	Opener
	Name() string
}

var registry = map[string]Backend{}

// Register adds a backend to the registry.
func Register(b Backend) {
	registry[b.Name()] = b
}

// Lookup returns the backend registered under name.
func Lookup(name string) (Backend, error) {
	b, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("extract: unknown backend %q (have %s)", name, strings.Join(Backends(), ", "))
	}
	return b, nil
}

// Backends returns the registered backend names, sorted.
func Backends() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
