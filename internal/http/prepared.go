package http

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/http/httpguts"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/frankli0324/go-requests/internal/cookie"
)

const DefaultCharset = "UTF-8"

// PreparedRequest is a validated [Request] with its wire-level values
// computed. Header is filled by the executor, see [PreparedRequest.Header].
type PreparedRequest struct {
	*Request

	U          *url.URL
	HeaderHost string
	// EffectivePath is the cookie path of U, used for cookie matching and
	// as the default path of cookies set by the response.
	EffectivePath string

	Header        Headers
	Charset       string
	Encoding      encoding.Encoding
	ContentLength int64 // -1 means chunked, 0 means no body
}

func isToken(s string) bool {
	return len(s) > 0 && strings.IndexFunc(s, func(r rune) bool {
		return !httpguts.IsTokenRune(r)
	}) == -1
}

// validCookieValue reports whether v is made of RFC 6265 cookie-octets.
func validCookieValue(v string) bool {
	for i := 0; i < len(v); i++ {
		if b := v[i]; b <= ' ' || b >= 0x7f || b == '"' || b == ',' || b == ';' || b == '\\' {
			return false
		}
	}
	return true
}

// Prepare validates the request shape. All failures are [ProtocolError]s.
func (r *Request) Prepare() (*PreparedRequest, error) {
	if !isToken(r.Method) {
		return nil, &ProtocolError{"prepare", fmt.Errorf("invalid method %q", r.Method)}
	}
	u, err := url.Parse(r.URL)
	if err != nil {
		return nil, &ProtocolError{"prepare", err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &ProtocolError{"prepare", fmt.Errorf("unsupported protocol scheme %q", u.Scheme)}
	}
	if r.ConnectTimeout < 0 || r.ReadTimeout < 0 {
		return nil, &ProtocolError{"prepare", errors.New("negative timeout")}
	}

	charset := r.Charset
	if charset == "" {
		charset = DefaultCharset
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, &ProtocolError{"prepare", fmt.Errorf("charset %q: %w", charset, err)}
	}

	if !httpguts.ValidHeaderFieldValue(r.UserAgent) {
		return nil, &ProtocolError{"prepare", fmt.Errorf("invalid user agent %q", r.UserAgent)}
	}
	for _, c := range r.Cookies {
		if !isToken(c.Name) || !validCookieValue(c.Value) {
			return nil, &ProtocolError{"prepare", fmt.Errorf("invalid cookie %q", c.Name)}
		}
	}

	host := u.Host
	// user defined headers has higher priority
	for _, f := range r.Header {
		if !httpguts.ValidHeaderFieldName(f.Name) || !httpguts.ValidHeaderFieldValue(f.Value) {
			return nil, &ProtocolError{"prepare", fmt.Errorf("invalid header field %q", f.Name)}
		}
		if strings.EqualFold(f.Name, "host") && f.Value != "" {
			host = f.Value
		}
	}
	if host == "" {
		return nil, &ProtocolError{"prepare", url.InvalidHostError("empty host")}
	}

	pr := &PreparedRequest{
		Request: r, U: u,
		HeaderHost: host, EffectivePath: cookie.EffectivePath(u.EscapedPath()),
		Charset: charset, Encoding: enc,
	}
	if r.Body != nil {
		pr.ContentLength = -1
		if s, ok := r.Body.(sizer); ok {
			pr.ContentLength = s.Len()
		}
	}
	return pr, nil
}

// ContentType returns the value of the Content-Type header for the body,
// or "" if there is no body.
func (r *PreparedRequest) ContentType() string {
	if r.Body == nil {
		return ""
	}
	ct := r.Body.ContentType()
	if r.Body.IncludeCharset() {
		ct += "; charset=" + r.Charset
	}
	return ct
}
