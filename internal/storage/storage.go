// Package storage keeps uploaded files between upload and analysis.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound             = errors.New("file not found")
	ErrUnsupportedExtension = errors.New("unsupported file type")
	ErrFileTooLarge         = errors.New("file exceeds maximum allowed size")
	ErrEmptyFile            = errors.New("file is empty")
)

// DefaultExtensions are the upload formats the parsers understand.
var DefaultExtensions = []string{"pdf", "doc", "docx", "txt"}

// File is an uploaded document.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Store is a scratch store with an explicit lifecycle: Put, Get any number of
// times, Delete.
type Store interface {
	Put(ctx context.Context, file File) (string, error)
	Get(ctx context.Context, id string) (*File, error)
	// Delete is idempotent.
	Delete(ctx context.Context, id string) error
}

// Purger is implemented by stores that can drop everything at once.
type Purger interface {
	Purge(ctx context.Context) error
}

// NewID returns a random id that keeps the original extension, so that
// downstream parsers can still route by it.
func NewID(filename string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(filename))
}

// Policy validates uploads before they reach a Store.
type Policy struct {
	Extensions []string
	MaxSize    int64
}

// Check rejects files with a disallowed extension, no content, or too many bytes.
func (p Policy) Check(filename string, size int64) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	allowed := p.Extensions
	if len(allowed) == 0 {
		allowed = DefaultExtensions
	}

	ok := false
	for _, a := range allowed {
		if strings.EqualFold(strings.TrimPrefix(a, "."), ext) {
			ok = true
			break
		}
	}
	if !ok || ext == "" {
		return fmt.Errorf("%w: %q, allowed types: %s", ErrUnsupportedExtension, filepath.Ext(filename), strings.Join(allowed, ", "))
	}

	if size == 0 {
		return ErrEmptyFile
	}
	if p.MaxSize > 0 && size > p.MaxSize {
		return fmt.Errorf("%w (%d > %d bytes)", ErrFileTooLarge, size, p.MaxSize)
	}
	return nil
}
