package internal

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/frankli0324/go-requests/internal/http"
)

type chainKey struct{}

// withChainID tags ctx with an id shared by every hop of one call.
func withChainID(ctx context.Context) context.Context {
	if _, ok := ctx.Value(chainKey{}).(string); ok {
		return ctx
	}
	return context.WithValue(ctx, chainKey{}, uuid.NewString())
}

// ChainID returns the id of the redirect chain ctx belongs to, "" outside
// of [Client.CtxDo].
func ChainID(ctx context.Context) string {
	id, _ := ctx.Value(chainKey{}).(string)
	return id
}

func slogURL(u *url.URL) slog.Attr {
	return slog.String("url", u.Redacted())
}

// Logging returns a middleware recording every hop at debug level.
func Logging(logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *PreparedRequest) (*http.Response, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			if err != nil {
				logger.DebugContext(ctx, "request failed", "chain", ChainID(ctx), "method", req.Method,
					slogURL(req.U), "elapsed", time.Since(start), "error", err)
				return nil, err
			}
			logger.DebugContext(ctx, "request done", "chain", ChainID(ctx), "method", req.Method,
				slogURL(req.U), "status", resp.StatusCode, "elapsed", time.Since(start))
			return resp, nil
		}
	}
}
