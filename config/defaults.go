package config

import "time"

const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultReadTimeout    = 30 * time.Second
	DefaultUserAgent      = "go-requests/1.0"
	DefaultCharset        = "UTF-8"
	DefaultMaxRedirects   = 5
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		ConnectTimeout:  DefaultConnectTimeout,
		ReadTimeout:     DefaultReadTimeout,
		UserAgent:       DefaultUserAgent,
		Charset:         DefaultCharset,
		Compress:        boolPtr(true),
		Verify:          boolPtr(true),
		FollowRedirects: boolPtr(true),
		MaxRedirects:    DefaultMaxRedirects,
	}
}
