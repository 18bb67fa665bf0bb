package internal

import (
	"context"
	"io"
	"log/slog"

	"github.com/frankli0324/go-requests/internal/dialer"
	"github.com/frankli0324/go-requests/internal/http"
	"github.com/frankli0324/go-requests/internal/transport"
)

type PreparedRequest = http.PreparedRequest

// Handler executes exactly one hop: one request, one response.
type Handler = func(ctx context.Context, req *PreparedRequest) (*http.Response, error)
type Middleware func(next Handler) Handler

const DefaultMaxRedirects = 5

// Client executes requests synchronously on the calling goroutine. It is
// safe for concurrent use once configured, provided each call gets its own
// [http.Request]. Use and UseDialer must not race with requests.
type Client struct {
	Logger       *slog.Logger // nil discards
	MaxRedirects int          // hops followed before giving up, DefaultMaxRedirects if <= 0

	middlewares []Middleware
	dialer      dialer.Dialer
	transport   transport.Transport
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return discardLogger
}

// Use appends mw to the end of the chain. The last "Use"d mw executes first
func (c *Client) Use(mws ...Middleware) {
	c.middlewares = append(c.middlewares, mws...)
}

// UseDialer replaces the dialer with the result of f, which is given the
// current one.
func (c *Client) UseDialer(f func(dialer.Dialer) dialer.Dialer) {
	c.dialer = f(c.getDialer())
}

func (c *Client) getDialer() dialer.Dialer {
	if c.dialer != nil {
		return c.dialer
	}
	return dialer.Default
}

func (c *Client) getTransport() transport.Transport {
	if c.transport != nil {
		return c.transport
	}
	return transport.HTTP1{}
}

func (c *Client) maxRedirects() int {
	if c.MaxRedirects > 0 {
		return c.MaxRedirects
	}
	return DefaultMaxRedirects
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.CtxDo(context.Background(), req)
}

// CtxDo executes req, following redirects unless req disables it. ctx
// bounds connection establishment, reads are bounded by req.ReadTimeout.
func (c *Client) CtxDo(ctx context.Context, req *http.Request) (*http.Response, error) {
	ctx = withChainID(ctx)
	chain := &redirectChain{
		exec:   c.doHop,
		max:    c.maxRedirects(),
		logger: c.logger(),
	}
	return chain.run(ctx, req)
}

// doHop prepares req and sends it through the middleware chain.
func (c *Client) doHop(ctx context.Context, req *http.Request) (*http.Response, error) {
	pr, err := c.prepare(req)
	if err != nil {
		return nil, err
	}
	next := c.execute
	for _, mw := range c.middlewares {
		next = mw(next)
	}
	return next(ctx, pr)
}
