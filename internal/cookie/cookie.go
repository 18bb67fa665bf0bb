// Package cookie implements the cookie scoping rules of RFC 6265 used by
// the client: parsing Set-Cookie lines with request derived defaults, and
// matching stored cookies against a request.
package cookie

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Cookie is a cookie as stored in a session. Name, Domain and Path
// identify it: storing a cookie with the same identity overwrites.
type Cookie struct {
	Name  string
	Value string

	Domain   string // lower case, without leading dot
	Path     string
	HostOnly bool // no Domain attribute, only sent back to Domain itself

	Expires  time.Time // zero for session cookies
	Secure   bool
	HTTPOnly bool
}

type Key struct {
	Name, Domain, Path string
}

func (c *Cookie) Key() Key {
	return Key{c.Name, c.Domain, c.Path}
}

// Expired reports whether c must be removed at now.
func (c *Cookie) Expired(now time.Time) bool {
	return !c.Expires.IsZero() && !c.Expires.After(now)
}

// String renders c the way it is sent in a Cookie header.
func (c *Cookie) String() string {
	return c.Name + "=" + c.Value
}

var (
	errNoName        = errors.New("cookie: missing name")
	errIllegalDomain = errors.New("cookie: domain attribute does not match host")
	errPublicSuffix  = errors.New("cookie: domain attribute is a public suffix")
)

// Parse parses a single Set-Cookie header value received from host for a
// request whose effective path is path. host and path are the defaults
// for the Domain and Path attributes.
func Parse(host, path, header string) (*Cookie, error) {
	return parseAt(time.Now(), host, path, header)
}

func parseAt(now time.Time, host, path, header string) (*Cookie, error) {
	hc, err := http.ParseSetCookie(header)
	if err != nil {
		return nil, err
	}
	if hc.Name == "" {
		return nil, errNoName
	}
	host = canonicalHost(host)
	c := &Cookie{
		Name: hc.Name, Value: hc.Value,
		Secure: hc.Secure, HTTPOnly: hc.HttpOnly,
	}

	if c.Domain, c.HostOnly, err = domainOf(host, hc.Domain); err != nil {
		return nil, err
	}
	c.Path = path
	if strings.HasPrefix(hc.Path, "/") {
		c.Path = hc.Path
	}

	switch {
	case hc.MaxAge < 0:
		c.Expires = time.Unix(1, 0) // Max-Age=0, delete now
	case hc.MaxAge > 0:
		c.Expires = now.Add(time.Duration(hc.MaxAge) * time.Second)
	case !hc.Expires.IsZero():
		c.Expires = hc.Expires
	}
	return c, nil
}

func canonicalHost(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(strings.TrimSuffix(host, "."))
}

func isIP(host string) bool {
	return net.ParseIP(strings.Trim(host, "[]")) != nil
}

// domainOf decides the Domain of a cookie following RFC 6265 section 5.3
// steps 4 to 6.
func domainOf(host, attr string) (domain string, hostOnly bool, err error) {
	attr = strings.ToLower(strings.TrimPrefix(attr, "."))
	if attr == "" {
		return host, true, nil
	}
	if isIP(host) {
		if attr != host {
			return "", false, errIllegalDomain
		}
		return host, true, nil
	}
	if attr != host && !strings.HasSuffix(host, "."+attr) {
		return "", false, errIllegalDomain
	}
	if ps, _ := publicsuffix.PublicSuffix(attr); ps == attr {
		if attr != host {
			return "", false, errPublicSuffix
		}
		// a public suffix is allowed to set a host only cookie on itself
		return host, true, nil
	}
	return attr, false, nil
}
