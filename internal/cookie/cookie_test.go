package cookie

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestEffectivePath(t *testing.T) {
	for path, want := range map[string]string{
		"":         "/",
		"/":        "/",
		"/a":       "/",
		"/a/":      "/a/",
		"/a/b":     "/a/",
		"/a/b/c.d": "/a/b/",
		"relative": "/",
	} {
		assert.Equal(t, want, EffectivePath(path), path)
	}
}

func TestParseDefaults(t *testing.T) {
	c, err := parseAt(now, "WWW.Example.com:8080", "/a/", "sid=42; HttpOnly")
	require.NoError(t, err)
	assert.Equal(t, &Cookie{
		Name: "sid", Value: "42",
		Domain: "www.example.com", Path: "/a/", HostOnly: true,
		HTTPOnly: true,
	}, c)
	assert.Equal(t, "sid=42", c.String())
}

func TestParseAttributes(t *testing.T) {
	c, err := parseAt(now, "www.example.com", "/a/",
		"sid=42; Domain=.Example.com; Path=/x; Secure; Max-Age=60")
	require.NoError(t, err)
	assert.Equal(t, "example.com", c.Domain)
	assert.False(t, c.HostOnly)
	assert.Equal(t, "/x", c.Path)
	assert.True(t, c.Secure)
	assert.Equal(t, now.Add(time.Minute), c.Expires)

	c, err = parseAt(now, "www.example.com", "/a/", "sid=42; Path=relative")
	require.NoError(t, err)
	assert.Equal(t, "/a/", c.Path)
}

func TestParseExpiry(t *testing.T) {
	c, err := parseAt(now, "example.com", "/", "a=1; Max-Age=0")
	require.NoError(t, err)
	assert.True(t, c.Expired(now))

	c, err = parseAt(now, "example.com", "/", "a=1; Expires=Wed, 01 May 2024 11:00:00 GMT")
	require.NoError(t, err)
	assert.True(t, c.Expired(now))

	c, err = parseAt(now, "example.com", "/", "a=1; Expires=Wed, 01 May 2024 13:00:00 GMT")
	require.NoError(t, err)
	assert.False(t, c.Expired(now))
}

func TestParseRejects(t *testing.T) {
	for name, line := range map[string]string{
		"Empty":         "",
		"NoName":        "=value",
		"ForeignDomain": "a=1; Domain=other.com",
		"PublicSuffix":  "a=1; Domain=com",
		"SuffixOfHost":  "a=1; Domain=ample.com",
	} {
		_, err := parseAt(now, "www.example.com", "/", line)
		assert.Error(t, err, name)
	}
}

func TestParseIPHost(t *testing.T) {
	c, err := parseAt(now, "127.0.0.1:8080", "/", "a=1; Domain=127.0.0.1")
	require.NoError(t, err)
	assert.True(t, c.HostOnly)
	assert.Equal(t, "127.0.0.1", c.Domain)

	_, err = parseAt(now, "127.0.0.1", "/", "a=1; Domain=0.0.1")
	assert.Error(t, err)
}

func TestMatches(t *testing.T) {
	hostOnly := &Cookie{Name: "a", Domain: "example.com", Path: "/", HostOnly: true}
	domain := &Cookie{Name: "b", Domain: "example.com", Path: "/docs"}
	secure := &Cookie{Name: "c", Domain: "example.com", Path: "/", HostOnly: true, Secure: true}
	expired := &Cookie{Name: "d", Domain: "example.com", Path: "/", HostOnly: true, Expires: now.Add(-time.Second)}

	cases := []struct {
		c                  *Cookie
		scheme, host, path string
		want               bool
	}{
		{hostOnly, "http", "example.com", "/", true},
		{hostOnly, "http", "EXAMPLE.com:80", "/x/", true},
		{hostOnly, "http", "www.example.com", "/", false},
		{domain, "http", "www.example.com", "/docs/", true},
		{domain, "http", "example.com", "/docs", true},
		{domain, "http", "example.com", "/docsx/", false},
		{domain, "http", "example.com", "/", false},
		{domain, "http", "notexample.com", "/docs/", false},
		{secure, "http", "example.com", "/", false},
		{secure, "https", "example.com", "/", true},
		{expired, "http", "example.com", "/", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.c.Matches(c.scheme, c.host, c.path, now),
			"%s on %s://%s%s", c.c.Name, c.scheme, c.host, c.path)
	}
}
