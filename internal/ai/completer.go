// Package ai defines the completion port shared by every language-model provider.
package ai

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyResponse is returned when a provider answered without any text.
var ErrEmptyResponse = errors.New("model returned empty response")

// CompletionRequest is one system-instruction plus payload round-trip.
type CompletionRequest struct {
	System  string
	Payload string
	// Temperature is passed through as is. Zero is a valid temperature.
	Temperature float32
	// Seed is sent only when the provider supports it.
	Seed *int32
	// JSON asks the provider to answer with a single JSON object.
	JSON bool
}

// Completer sends a request to a language model and returns its text answer.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Provider() string
	Model() string
}

// ExtractJSON strips markdown code fences models like to wrap JSON in.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```JSON")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

// Seed is a helper for optional seeds in configuration. Zero means unset.
func Seed(v int) *int32 {
	if v == 0 {
		return nil
	}
	s := int32(v)
	return &s
}
