package dialer

import (
	"context"
	"crypto/tls"
	"net"

	"github.com/frankli0324/go-requests/internal/http"
	"github.com/frankli0324/go-requests/internal/trust"
)

// Dialers handle pretty much everything related to the actual connection,
// including going through the proxy of each request, setting resolvers,
// installing the trust policy and applying timeouts.
type Dialer interface {
	// Dial returns the stream a single request is written to and its
	// response read from. policy is nil for platform default verification.
	Dial(ctx context.Context, r *http.PreparedRequest, policy *trust.Policy) (net.Conn, error)
	Unwrap() Dialer
}

type CoreDialer struct {
	ResolveConfig *ResolveConfig

	TLSConfig *tls.Config // the base config, the trust policy is applied on top of it

	ProxyConfig *ProxyConfig
}

func (d *CoreDialer) Clone() *CoreDialer {
	return &CoreDialer{
		ResolveConfig: d.ResolveConfig.Clone(),
		TLSConfig:     d.TLSConfig.Clone(),
		ProxyConfig:   d.ProxyConfig.Clone(),
	}
}

func (d *CoreDialer) Unwrap() Dialer {
	return nil
}

// Default is used by clients without a dialer.
var Default Dialer = &CoreDialer{}
