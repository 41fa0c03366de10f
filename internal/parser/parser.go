// Package parser turns uploaded files into markdown sections.
package parser

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Parser extracts text sections from a file. An empty result with a nil
// error means the file had no extractable text.
type Parser interface {
	Parse(ctx context.Context, filename string, data []byte) ([]string, error)
}

// PlainText returns a UTF-8 text file as one section.
type PlainText struct{}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func (PlainText) Parse(_ context.Context, filename string, data []byte) ([]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%s is not valid UTF-8 text", filename)
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	return []string{text}, nil
}

// Router picks a parser by file extension.
type Router struct {
	byExt    map[string]Parser
	fallback Parser
}

// NewRouter uses fallback for every extension without a dedicated parser.
func NewRouter(fallback Parser) *Router {
	return &Router{byExt: make(map[string]Parser), fallback: fallback}
}

// Route registers p for ext, with or without the leading dot.
func (r *Router) Route(ext string, p Parser) *Router {
	r.byExt[normalizeExt(ext)] = p
	return r
}

func (r *Router) Parse(ctx context.Context, filename string, data []byte) ([]string, error) {
	if p, ok := r.byExt[normalizeExt(filepath.Ext(filename))]; ok {
		return p.Parse(ctx, filename, data)
	}
	if r.fallback == nil {
		return nil, fmt.Errorf("no parser configured for %q", filename)
	}
	return r.fallback.Parse(ctx, filename, data)
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
