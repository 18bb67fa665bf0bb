package internal

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/frankli0324/go-requests/internal/http"
)

// RateLimit returns a middleware holding every hop until l allows it.
// Redirect hops count as requests of their own.
func RateLimit(l *rate.Limiter) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *PreparedRequest) (*http.Response, error) {
			if err := l.Wait(ctx); err != nil {
				return nil, http.Transport("rate limit", err)
			}
			return next(ctx, req)
		}
	}
}
