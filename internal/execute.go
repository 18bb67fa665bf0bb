package internal

import (
	"context"
	"strings"

	"github.com/frankli0324/go-requests/internal/decode"
	"github.com/frankli0324/go-requests/internal/http"
	"github.com/frankli0324/go-requests/internal/trust"
)

// framing headers are owned by the transport
var framingHeaders = []string{"Host", "Content-Length", "Transfer-Encoding"}

// prepare validates req and computes the header fields put on the wire.
func (c *Client) prepare(req *http.Request) (*PreparedRequest, error) {
	pr, err := req.Prepare()
	if err != nil {
		return nil, err
	}
	var h http.Headers
	if ct := pr.ContentType(); ct != "" {
		h.Add("Content-Type", ct)
	}
	if req.UserAgent != "" {
		h.Add("User-Agent", req.UserAgent)
	}
	if !req.DisableCompression {
		h.Add("Accept-Encoding", decode.AcceptEncoding)
	}
	if req.BasicAuth != nil {
		h.Add("Authorization", req.BasicAuth.Header())
	}
	// Proxy-Authorization goes on the CONNECT request, see dialer
	if cookies := cookieHeader(pr); cookies != "" {
		h.Add("Cookie", cookies)
	}

	// a caller supplied field replaces the computed one of the same name,
	// caller supplied duplicates are all kept
	for _, f := range req.Header {
		h.Del(f.Name)
	}
	for _, f := range req.Header {
		if !isFraming(f.Name) {
			h = append(h, f)
		}
	}
	pr.Header = h
	return pr, nil
}

func isFraming(name string) bool {
	for _, n := range framingHeaders {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// cookieHeader joins the explicit cookies of the request, in order, with
// the session cookies matching the request URL.
func cookieHeader(pr *PreparedRequest) string {
	var pairs []string
	for _, p := range pr.Cookies {
		pairs = append(pairs, p.Name+"="+p.Value)
	}
	if pr.Session != nil {
		for _, c := range pr.Session.MatchedCookies(pr.U.Scheme, pr.U.Hostname(), pr.EffectivePath) {
			pairs = append(pairs, c.String())
		}
	}
	return strings.Join(pairs, "; ")
}

// execute sends a single prepared request and normalizes its response.
// The transport never follows redirects by itself, the redirect chain
// does so that cookies and trust are applied again on every hop.
func (c *Client) execute(ctx context.Context, pr *PreparedRequest) (*http.Response, error) {
	var policy *trust.Policy
	if pr.U.Scheme == "https" {
		var err error
		if policy, err = trust.Resolve(!pr.InsecureSkipVerify, pr.Certificates); err != nil {
			return nil, err
		}
	}

	conn, err := c.getDialer().Dial(ctx, pr, policy)
	if err != nil {
		return nil, http.Transport("dial "+pr.U.Host, err)
	}
	if err := c.getTransport().Write(conn, pr); err != nil {
		conn.Close()
		return nil, http.Transport("write request", err)
	}
	resp, err := c.normalize(conn, pr)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return resp, nil
}
