package dialer

import (
	"context"
	"crypto/tls"
	"net"

	"github.com/frankli0324/go-requests/internal/http"
	"github.com/frankli0324/go-requests/internal/trust"
)

var schemes = map[string]string{
	"http": "80", "https": "443", "socks5": "1080",
}

var zeroDialer net.Dialer
var customDnsDialer = net.Dialer{
	Resolver: &customServerResolver,
}

func hostPort(host, scheme string) (addr, port string) {
	addr, port = host, schemes[scheme]
	if add, prt, err := net.SplitHostPort(host); err == nil {
		addr, port = add, prt
	}
	return
}

func (d *CoreDialer) Dial(ctx context.Context, r *http.PreparedRequest, policy *trust.Policy) (conn net.Conn, err error) {
	if r.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.ConnectTimeout)
		defer cancel()
	}
	defer func() {
		if err != nil && conn != nil {
			conn.Close()
			conn = nil
		}
	}()

	if r.Proxy != nil {
		conn, err = d.DialContextOverProxy(ctx, r.U.Host, r.U.Scheme, r.Proxy)
	} else {
		conn, err = d.dialDirect(ctx, r.U.Host, r.U.Scheme)
	}
	if err != nil {
		return conn, err
	}

	if r.U.Scheme == "https" {
		// the policy is only installed when it differs from platform default
		config := d.TLSConfig
		if policy != nil {
			config = policy.Apply(config)
		} else {
			config = config.Clone()
		}
		if config == nil {
			config = &tls.Config{}
		}
		config.ServerName = r.U.Hostname()
		c := tls.Client(conn, config)
		if err := c.HandshakeContext(ctx); err != nil {
			return conn, err
		}
		conn = c
	}
	if r.ReadTimeout > 0 {
		conn = &deadlineConn{Conn: conn, timeout: r.ReadTimeout}
	}
	return conn, nil
}

func (d *CoreDialer) dialDirect(ctx context.Context, host, scheme string) (net.Conn, error) {
	addr, port := hostPort(host, scheme)
	// as of now net.Dialer could handle current DNS configurations
	network, dialer, dialctx, dst := "tcp", &zeroDialer, ctx, net.JoinHostPort(addr, port)
	if cfg := d.ResolveConfig; cfg != nil {
		if cfg.Network == "ip4" {
			network = "tcp4"
		} else if cfg.Network == "ip6" {
			network = "tcp6"
		}
		if static, ok := cfg.StaticHosts[addr]; ok {
			dst = net.JoinHostPort(static, port)
		}
		if dns := cfg.CustomDNSServer; dns != "" {
			dialctx = dnsServerCtx{dialctx, dns}
			dialer = &customDnsDialer
		}
	}
	return dialer.DialContext(dialctx, network, dst)
}
