// Package config loads client defaults from YAML files.
package config

import (
	"crypto/x509"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/frankli0324/go-requests/internal"
	"github.com/frankli0324/go-requests/internal/dialer"
	"github.com/frankli0324/go-requests/internal/http"
	"github.com/frankli0324/go-requests/internal/trust"
)

// Config holds the defaults applied to requests and clients.
type Config struct {
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	UserAgent       string        `yaml:"user_agent"`
	Charset         string        `yaml:"charset"`
	Compress        *bool         `yaml:"compress"`
	Verify          *bool         `yaml:"verify"`
	FollowRedirects *bool         `yaml:"follow_redirects"`
	MaxRedirects    int           `yaml:"max_redirects"`
	RateLimit       float64       `yaml:"rate_limit"` // requests per second, 0 is unlimited
	Proxy           string        `yaml:"proxy"`
	Headers         []string      `yaml:"headers"`      // "Name: value", sent before the request's own
	PinnedCerts     []string      `yaml:"pinned_certs"` // PEM files
	Resolve         *Resolve      `yaml:"resolve"`
}

type Resolve struct {
	DNSServer   string            `yaml:"dns_server"`
	Network     string            `yaml:"network"`
	StaticHosts map[string]string `yaml:"static_hosts"`
}

func boolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// Load reads the YAML file at path on top of [Default].
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.ConnectTimeout < 0 || cfg.ReadTimeout < 0 {
		return nil, fmt.Errorf("parse config: negative timeout")
	}
	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("parse config: negative rate limit")
	}
	for _, h := range cfg.Headers {
		if _, _, ok := strings.Cut(h, ":"); !ok {
			return nil, fmt.Errorf("parse config: header %q is not \"Name: value\"", h)
		}
	}
	return cfg, nil
}

// Apply returns a copy of req with its unset fields taken from c.
func (c *Config) Apply(req *http.Request) (*http.Request, error) {
	r := *req
	if r.UserAgent == "" {
		r.UserAgent = c.UserAgent
	}
	if r.Charset == "" {
		r.Charset = c.Charset
	}
	if r.ConnectTimeout == 0 {
		r.ConnectTimeout = c.ConnectTimeout
	}
	if r.ReadTimeout == 0 {
		r.ReadTimeout = c.ReadTimeout
	}
	if !getBool(c.Compress, true) {
		r.DisableCompression = true
	}
	if !getBool(c.Verify, true) {
		r.InsecureSkipVerify = true
	}
	if !getBool(c.FollowRedirects, true) {
		r.DisableRedirect = true
	}
	if r.Proxy == nil && c.Proxy != "" {
		p, err := http.ParseProxy(c.Proxy)
		if err != nil {
			return nil, fmt.Errorf("config proxy: %w", err)
		}
		r.Proxy = p
	}
	if len(r.Certificates) == 0 && len(c.PinnedCerts) > 0 {
		certs, err := c.loadPinned()
		if err != nil {
			return nil, err
		}
		r.Certificates = certs
	}
	if len(c.Headers) > 0 {
		var h http.Headers
		for _, line := range c.Headers {
			name, value, _ := strings.Cut(line, ":")
			name = strings.TrimSpace(name)
			if !req.Header.Has(name) {
				h.Add(name, strings.TrimSpace(value))
			}
		}
		r.Header = append(h, req.Header...)
	}
	return &r, nil
}

func (c *Config) loadPinned() ([]*x509.Certificate, error) {
	var certs []*x509.Certificate
	for _, path := range c.PinnedCerts {
		cs, err := trust.LoadPEMFile(path)
		if err != nil {
			return nil, err
		}
		certs = append(certs, cs...)
	}
	return certs, nil
}

// Dialer returns the dialer described by the resolve settings.
func (c *Config) Dialer() *dialer.CoreDialer {
	d := &dialer.CoreDialer{}
	if c.Resolve != nil {
		d.ResolveConfig = &dialer.ResolveConfig{
			CustomDNSServer: c.Resolve.DNSServer,
			Network:         c.Resolve.Network,
			StaticHosts:     c.Resolve.StaticHosts,
		}
	}
	return d
}

// NewClient returns a client using c's redirect bound, dialer and rate
// limit, logging every hop to logger.
func (c *Config) NewClient(logger *slog.Logger) *internal.Client {
	cl := &internal.Client{Logger: logger, MaxRedirects: c.MaxRedirects}
	cl.UseDialer(func(dialer.Dialer) dialer.Dialer { return c.Dialer() })
	if logger != nil {
		cl.Use(internal.Logging(logger))
	}
	if c.RateLimit > 0 {
		// waiting is not part of the logged elapsed time
		cl.Use(internal.RateLimit(rate.NewLimiter(rate.Limit(c.RateLimit), 1)))
	}
	return cl
}
