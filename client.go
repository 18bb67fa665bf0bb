package requests

import (
	"github.com/frankli0324/go-requests/internal"
	"github.com/frankli0324/go-requests/internal/har"
	"github.com/frankli0324/go-requests/internal/session"
)

type Client = internal.Client
type Middleware = internal.Middleware
type Handler = internal.Handler

// Session is the cookie jar shared by the requests that reference it.
type Session = session.Session

const DefaultMaxRedirects = internal.DefaultMaxRedirects

var (
	// Logging is a [Middleware] writing a debug record per request sent.
	Logging = internal.Logging
	// RateLimit is a [Middleware] spacing out requests, redirect hops
	// included.
	RateLimit = internal.RateLimit
	// ChainID returns the id shared by the log records of one call.
	ChainID = internal.ChainID
)

// HARRecorder archives the exchanges of a client, see [HARRecorder.Middleware].
type HARRecorder = har.Recorder

func NewHARRecorder(creator string) *HARRecorder {
	return har.NewRecorder(creator)
}

func NewSession() *Session {
	return session.New()
}
