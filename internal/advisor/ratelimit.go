package advisor

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

type limitedAdvisor struct {
	next    Advisor
	limiter *rate.Limiter
}

// WithRateLimit guards next with a token bucket refilling at rps requests per
// second with a burst of one. Callers wait for a token or for ctx to end.
// A non-positive rps returns next unchanged.
func WithRateLimit(next Advisor, rps float64) Advisor {
	if rps <= 0 {
		return next
	}
	return &limitedAdvisor{next: next, limiter: rate.NewLimiter(rate.Limit(rps), 1)}
}

func (l *limitedAdvisor) Suggest(ctx context.Context, in Input) (Suggestion, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return Suggestion{}, fmt.Errorf("advisor rate limit: %w", err)
	}
	return l.next.Suggest(ctx, in)
}
