package ai

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

type rateLimited struct {
	Completer
	limiter *rate.Limiter
}

// WithRateLimit wraps c so that calls wait for a token from a limiter
// allowing rps requests per second. A non-positive rps returns c unchanged.
func WithRateLimit(c Completer, rps float64, burst int) Completer {
	if rps <= 0 {
		return c
	}
	if burst < 1 {
		burst = 1
	}
	return &rateLimited{Completer: c, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (r *rateLimited) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("wait for %s rate limit: %w", r.Provider(), err)
	}
	return r.Completer.Complete(ctx, req)
}
