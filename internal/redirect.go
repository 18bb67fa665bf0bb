package internal

import (
	"context"
	"errors"
	"log/slog"
	"net/url"

	"github.com/frankli0324/go-requests/internal/http"
)

type chainState int

const (
	stateInitial chainState = iota
	stateEvaluating
	stateFollowing
	stateDone
	stateFailed
)

func isRedirect(status int) bool {
	switch status {
	case 301, 302, 303, 307, 308:
		return true
	}
	return false
}

// redirectChain drives a request and its redirects. The loop is explicit
// rather than recursive: exec is always called with redirects disabled
// and at most max follow-up requests are issued.
type redirectChain struct {
	exec   func(ctx context.Context, req *http.Request) (*http.Response, error)
	max    int
	logger *slog.Logger

	state   chainState
	origin  *http.Request
	resp    *http.Response
	hops    int
	history []int
	err     error
}

func (rc *redirectChain) run(ctx context.Context, req *http.Request) (*http.Response, error) {
	rc.origin, rc.state = req, stateInitial
	for {
		switch rc.state {
		case stateInitial:
			rc.send(ctx, req)
		case stateEvaluating:
			rc.evaluate()
		case stateFollowing:
			rc.follow(ctx)
		case stateDone:
			rc.resp.History = rc.history
			return rc.resp, nil
		case stateFailed:
			return nil, rc.err
		}
	}
}

func (rc *redirectChain) send(ctx context.Context, req *http.Request) {
	if rc.resp, rc.err = rc.exec(ctx, req); rc.err != nil {
		rc.state = stateFailed
		return
	}
	rc.state = stateEvaluating
}

func (rc *redirectChain) evaluate() {
	switch {
	case rc.origin.DisableRedirect || !isRedirect(rc.resp.StatusCode):
		rc.state = stateDone
	case rc.hops >= rc.max:
		rc.fail(http.TooManyRedirects, nil)
	default:
		rc.state = stateFollowing
	}
}

func (rc *redirectChain) fail(reason http.RedirectReason, err error) {
	rc.resp.Discard()
	rc.err = &http.RedirectError{
		Reason: reason, StatusCode: rc.resp.StatusCode,
		URL: rc.resp.URL.Redacted(), Err: err,
	}
	rc.state = stateFailed
}

func (rc *redirectChain) follow(ctx context.Context) {
	rc.resp.Discard()
	loc := rc.resp.Header("Location")
	if loc == "" {
		rc.fail(http.MissingLocation, nil)
		return
	}
	target, err := rc.resp.URL.Parse(loc)
	if err == nil && target.Scheme != "http" && target.Scheme != "https" {
		err = errors.New("unsupported protocol scheme " + target.Scheme)
	}
	if err == nil && target.Host == "" {
		err = url.InvalidHostError("empty host")
	}
	if err != nil {
		rc.fail(http.MalformedLocation, err)
		return
	}

	rc.hops++
	rc.history = append(rc.history, rc.resp.StatusCode)
	rc.logger.DebugContext(ctx, "following redirect", "chain", ChainID(ctx), "status", rc.resp.StatusCode,
		"from", rc.resp.URL.Redacted(), "to", target.Redacted(), "hop", rc.hops)
	rc.send(ctx, followUp(rc.origin, target))
}

// followUp builds the request of a redirect hop: a GET without body,
// caller supplied header fields, explicit cookies or credentials. Only the
// connection settings of the original request carry over, cookies come
// from the session which accumulates them over the hops.
func followUp(origin *http.Request, target *url.URL) *http.Request {
	return &http.Request{
		Method:    "GET",
		URL:       target.String(),
		UserAgent: origin.UserAgent,
		Charset:   origin.Charset,

		ConnectTimeout: origin.ConnectTimeout,
		ReadTimeout:    origin.ReadTimeout,
		Proxy:          origin.Proxy,

		DisableRedirect:    true,
		DisableCompression: origin.DisableCompression,
		InsecureSkipVerify: origin.InsecureSkipVerify,
		Certificates:       origin.Certificates,

		Session: origin.Session,
	}
}
