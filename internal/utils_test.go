package internal_test

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/frankli0324/go-requests/internal"
	"github.com/frankli0324/go-requests/internal/dialer"
	"github.com/frankli0324/go-requests/internal/http"
	"github.com/frankli0324/go-requests/internal/trust"
)

// ScriptedConn replays a canned response and records the request written
// to it.
type ScriptedConn struct {
	net.Conn // nil, only the methods below are used

	mu      sync.Mutex
	resp    *strings.Reader
	written bytes.Buffer
	closed  bool
}

func (c *ScriptedConn) Read(p []byte) (int, error) { return c.resp.Read(p) }

func (c *ScriptedConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.written.Write(p)
}

func (c *ScriptedConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *ScriptedConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *ScriptedConn) Request() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.written.String()
}

// TestDialer hands out one ScriptedConn per dial, answering with the
// responses in order.
type TestDialer struct {
	Responses []string
	Conns     []*ScriptedConn
	Policies  []*trust.Policy
}

// Dial implements dialer.Dialer.
func (t *TestDialer) Dial(ctx context.Context, r *http.PreparedRequest, policy *trust.Policy) (net.Conn, error) {
	if len(t.Conns) >= len(t.Responses) {
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: errRefused}
	}
	c := &ScriptedConn{resp: strings.NewReader(t.Responses[len(t.Conns)])}
	t.Conns = append(t.Conns, c)
	t.Policies = append(t.Policies, policy)
	return c, nil
}

// Unwrap implements dialer.Dialer.
func (t *TestDialer) Unwrap() dialer.Dialer {
	return nil
}

type refusedError struct{}

func (refusedError) Error() string { return "connection refused" }

var errRefused refusedError

func scriptedClient(responses ...string) (*internal.Client, *TestDialer) {
	d := &TestDialer{Responses: responses}
	c := &internal.Client{}
	c.UseDialer(func(dialer.Dialer) dialer.Dialer { return d })
	return c, d
}

// SendSingleRequest executes req against a canned 200 response and returns
// what was written on the wire.
func SendSingleRequest(t *testing.T, req *http.Request) string {
	t.Helper()
	c, d := scriptedClient("HTTP/1.1 200 OK\r\nContent-Length: 0\r\nConnection: close\r\n\r\n")
	resp, err := c.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Close())
	require.Len(t, d.Conns, 1)
	return d.Conns[0].Request()
}

func selfSigned(t *testing.T, cn string) *x509.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		DNSNames:     []string{cn},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}
