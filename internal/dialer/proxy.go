package dialer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/url"
	"time"

	"golang.org/x/net/proxy"

	"github.com/frankli0324/go-requests/internal/http"
	"github.com/frankli0324/go-requests/internal/transport"
)

type ProxyConfig struct {
	TLSConfig      *tls.Config // the [*tls.Config] to use with https proxies, if nil, *[CoreDialer.TLSConfig] will be used
	ResolveLocally bool
	ResolveConfig  *ResolveConfig // overrides the resolver config for dialer for proxy
}

func (c *ProxyConfig) Clone() *ProxyConfig {
	if c == nil {
		return nil
	}
	return &ProxyConfig{
		TLSConfig:      c.TLSConfig.Clone(),
		ResolveLocally: c.ResolveLocally,
		ResolveConfig:  c.ResolveConfig.Clone(),
	}
}

var (
	h1Transport = transport.HTTP1{}
)

// remoteAddr returns the address the proxy is asked to connect to.
func (d *CoreDialer) remoteAddr(ctx context.Context, host, scheme string) (string, error) {
	addr, port := hostPort(host, scheme)
	if d.ProxyConfig == nil || !d.ProxyConfig.ResolveLocally {
		return net.JoinHostPort(addr, port), nil
	}
	dnsCfg := d.ProxyConfig.ResolveConfig.Merge(d.ResolveConfig)
	ips, err := d.lookup(ctx, dnsCfg, addr)
	if err != nil {
		return "", err
	}
	if len(ips) == 0 {
		return "", errors.New("no address found for " + addr)
	}
	return net.JoinHostPort(ips[rand.Intn(len(ips))].String(), port), nil
}

// DialContextOverProxy creates a connection to host over an http or socks5
// proxy. http proxies are always asked for a CONNECT tunnel, also for plain
// http requests, so the proxy credentials are only ever sent to the proxy.
// This part of logic may be reused when wrapping *[CoreDialer] into
// a new custom [Dialer]
func (d *CoreDialer) DialContextOverProxy(ctx context.Context, host, scheme string, p *http.Proxy) (net.Conn, error) {
	remote, err := d.remoteAddr(ctx, host, scheme)
	if err != nil {
		return nil, err
	}
	switch p.Scheme {
	case "socks5":
		return d.dialSocks5(ctx, remote, p)
	case "http", "https":
		return d.dialConnect(ctx, remote, p)
	}
	return nil, errors.New("unsupported proxy scheme: " + p.Scheme)
}

func (d *CoreDialer) dialSocks5(ctx context.Context, remote string, p *http.Proxy) (net.Conn, error) {
	var auth *proxy.Auth
	if p.Auth != nil {
		auth = &proxy.Auth{User: p.Auth.User, Password: p.Auth.Password}
	}
	sd, err := proxy.SOCKS5("tcp", p.Addr, auth, &zeroDialer)
	if err != nil {
		return nil, err
	}
	if cd, ok := sd.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, "tcp", remote)
	}
	return sd.Dial("tcp", remote)
}

func (d *CoreDialer) dialConnect(ctx context.Context, remote string, p *http.Proxy) (conn net.Conn, err error) {
	conn, err = zeroDialer.DialContext(ctx, "tcp", p.Addr)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			conn.Close()
		}
	}()

	if p.Scheme == "https" {
		var tlsCfg *tls.Config
		if d.ProxyConfig != nil {
			tlsCfg = d.ProxyConfig.TLSConfig.Clone()
		}
		if tlsCfg == nil {
			tlsCfg = d.TLSConfig.Clone()
		}
		if tlsCfg == nil {
			tlsCfg = &tls.Config{}
		}
		tlsCfg.ServerName, _, _ = net.SplitHostPort(p.Addr)
		c := tls.Client(conn, tlsCfg)
		if err := c.HandshakeContext(ctx); err != nil {
			return conn, err
		}
		conn = c
	}

	if dl, ok := ctx.Deadline(); ok {
		conn.SetDeadline(dl)
		defer conn.SetDeadline(time.Time{})
	}
	connReq := &http.PreparedRequest{
		Request:    &http.Request{Method: "CONNECT"},
		HeaderHost: remote,
		U:          &url.URL{Opaque: remote},
	}
	if p.Auth != nil {
		connReq.Header.Add("Proxy-Authorization", p.Auth.Header())
	}
	if err := h1Transport.Write(conn, connReq); err != nil {
		return conn, err
	}
	resp := &http.Response{}
	if err := h1Transport.Read(conn, connReq, resp); err != nil {
		return conn, err
	}
	if resp.StatusCode/100 != 2 {
		s, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		return conn, fmt.Errorf("proxy server returned error. status:%d, body:%s", resp.StatusCode, string(s))
	}
	return conn, nil
}
