package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCompleter struct {
	calls int
}

func (c *countingCompleter) Complete(context.Context, CompletionRequest) (string, error) {
	c.calls++
	return "{}", nil
}

func (c *countingCompleter) Provider() string { return "fake" }
func (c *countingCompleter) Model() string    { return "fake-1" }

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: ` {"a":1} `, want: `{"a":1}`},
		{name: "json fence", input: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", input: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "inline backticks", input: "`{\"a\":1}`", want: `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExtractJSON(tt.input))
		})
	}
}

func TestSeed(t *testing.T) {
	assert.Nil(t, Seed(0))
	require.NotNil(t, Seed(42))
	assert.Equal(t, int32(42), *Seed(42))
}

func TestWithRateLimitDisabled(t *testing.T) {
	inner := &countingCompleter{}
	assert.Same(t, Completer(inner), WithRateLimit(inner, 0, 1))
}

func TestWithRateLimitPassesThrough(t *testing.T) {
	inner := &countingCompleter{}
	limited := WithRateLimit(inner, 1000, 2)

	for i := 0; i < 3; i++ {
		_, err := limited.Complete(context.Background(), CompletionRequest{Payload: "x"})
		require.NoError(t, err)
	}

	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, "fake", limited.Provider())
	assert.Equal(t, "fake-1", limited.Model())
}

func TestWithRateLimitHonoursContext(t *testing.T) {
	inner := &countingCompleter{}
	limited := WithRateLimit(inner, 0.001, 1)

	_, err := limited.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = limited.Complete(ctx, CompletionRequest{})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrEmptyResponse))
	assert.Equal(t, 1, inner.calls)
}
