package cookie

import (
	"strings"
	"time"
)

// EffectivePath returns the path used to scope cookies of a request to
// path: everything up to and including the last "/", or "/".
func EffectivePath(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 || !strings.HasPrefix(path, "/") {
		return "/"
	}
	return path[:i+1]
}

// Matches reports whether c must be sent on a request to scheme://host
// with the effective path path, at now.
func (c *Cookie) Matches(scheme, host, path string, now time.Time) bool {
	if c.Expired(now) {
		return false
	}
	if c.Secure && scheme != "https" {
		return false
	}
	return c.domainMatch(canonicalHost(host)) && pathMatch(c.Path, path)
}

func (c *Cookie) domainMatch(host string) bool {
	if host == c.Domain {
		return true
	}
	return !c.HostOnly && !isIP(host) && strings.HasSuffix(host, "."+c.Domain)
}

// pathMatch implements RFC 6265 section 5.1.4.
func pathMatch(cookiePath, path string) bool {
	if cookiePath == path {
		return true
	}
	if !strings.HasPrefix(path, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || path[len(cookiePath)] == '/'
}
