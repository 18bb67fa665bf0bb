package requests

import (
	"github.com/frankli0324/go-requests/internal/dialer"
	"github.com/frankli0324/go-requests/internal/trust"
)

// Dialers are responsible for creating the streams that http requests are
// written to and responses read from: going through the proxy of the
// request, installing the trust policy, applying the timeouts.
//
// A Dialer MUST NOT hold active connection states, which means a Dialer
// must be able to be swapped out from a [Client] without pain. It SHOULD
// hold the connection related configs like [ProxyConfig] or *[crypto/tls.Config].
type Dialer = dialer.Dialer

// CoreDialer is the default implementation of the [Dialer] interface. It would
// be used by a zero value [Client].
type CoreDialer = dialer.CoreDialer

type ProxyConfig = dialer.ProxyConfig

// we need a dedicated resolver for two scenarios:
//
//  1. Resolve remote address locally in proxied requests
//  2. to customize the DNS server used for resolving hostname
//
// the standard library didn't provide a intuitive way of
// setting DNS server addresses since it only follows the
// system configuration (e.g. /etc/resolv.conf), leaving us only
// one option of using [net.Resolver.Dial] hook with a Go Resolver.
type ResolveConfig = dialer.ResolveConfig

// TrustPolicy is the resolved certificate verification strategy of a
// request.
type TrustPolicy = trust.Policy

var (
	// ParsePEM parses certificates to pin in [Request.Certificates].
	ParsePEM    = trust.ParsePEM
	LoadPEMFile = trust.LoadPEMFile
)
