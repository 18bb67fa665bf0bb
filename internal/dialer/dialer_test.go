package dialer

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	stdhttp "net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankli0324/go-requests/internal/http"
)

// listen serves every accepted connection with handle until the test ends.
func listen(t *testing.T, handle func(net.Conn)) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	go func() {
		for {
			c, err := l.Accept()
			if err != nil {
				return
			}
			go func() {
				defer c.Close()
				handle(c)
			}()
		}
	}()
	return l.Addr().String()
}

func prepare(t *testing.T, r *http.Request) *http.PreparedRequest {
	t.Helper()
	if r.Method == "" {
		r.Method = "GET"
	}
	pr, err := r.Prepare()
	require.NoError(t, err)
	return pr
}

func TestConnectProxy(t *testing.T) {
	seen := make(chan *stdhttp.Request, 1)
	addr := listen(t, func(c net.Conn) {
		br := bufio.NewReader(c)
		req, err := stdhttp.ReadRequest(br)
		if err != nil {
			return
		}
		seen <- req
		io.WriteString(c, "HTTP/1.1 200 Connection established\r\n\r\n")
		io.Copy(c, br) // echo
	})

	p, err := http.ParseProxy("http://user:pass@" + addr)
	require.NoError(t, err)
	d := &CoreDialer{}
	conn, err := d.Dial(context.Background(), prepare(t, &http.Request{
		URL: "http://origin.invalid/", Proxy: p,
	}), nil)
	require.NoError(t, err)
	defer conn.Close()

	req := <-seen
	assert.Equal(t, "CONNECT", req.Method)
	assert.Equal(t, "origin.invalid:80", req.RequestURI)
	assert.Equal(t, "origin.invalid:80", req.Host)
	assert.Empty(t, req.Header.Get("Authorization"))
	assert.Equal(t, (&http.BasicAuth{User: "user", Password: "pass"}).Header(), req.Header.Get("Proxy-Authorization"))

	_, err = io.WriteString(conn, "ping")
	require.NoError(t, err)
	buf := make([]byte, 4)
	_, err = io.ReadFull(conn, buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf))
}

func TestConnectProxyRefused(t *testing.T) {
	addr := listen(t, func(c net.Conn) {
		if _, err := stdhttp.ReadRequest(bufio.NewReader(c)); err != nil {
			return
		}
		io.WriteString(c, "HTTP/1.1 407 Proxy Authentication Required\r\nContent-Length: 6\r\n\r\ndenied")
	})

	d := &CoreDialer{}
	_, err := d.DialContextOverProxy(context.Background(), "origin.invalid", "https",
		&http.Proxy{Scheme: "http", Addr: addr})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "407")
	assert.Contains(t, err.Error(), "denied")
}

func TestUnsupportedProxy(t *testing.T) {
	d := &CoreDialer{}
	_, err := d.DialContextOverProxy(context.Background(), "origin.invalid", "http",
		&http.Proxy{Scheme: "ftp", Addr: "127.0.0.1:21"})
	assert.Error(t, err)
}

func TestReadTimeout(t *testing.T) {
	hold := make(chan struct{})
	t.Cleanup(func() { close(hold) })
	addr := listen(t, func(c net.Conn) { <-hold })

	d := &CoreDialer{}
	conn, err := d.Dial(context.Background(), prepare(t, &http.Request{
		URL: "http://" + addr + "/", ReadTimeout: 50 * time.Millisecond,
	}), nil)
	require.NoError(t, err)
	defer conn.Close()

	start := time.Now()
	_, err = conn.Read(make([]byte, 1))
	require.Error(t, err)
	var ne net.Error
	require.True(t, errors.As(err, &ne))
	assert.True(t, ne.Timeout())
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, http.Transport("read", err).(*http.TransportError).Timeout())
}

func TestStaticHosts(t *testing.T) {
	addr := listen(t, func(c net.Conn) { io.WriteString(c, "hi") })
	_, port, _ := net.SplitHostPort(addr)

	d := &CoreDialer{ResolveConfig: &ResolveConfig{
		StaticHosts: map[string]string{"pinned.invalid": "127.0.0.1"},
	}}
	conn, err := d.Dial(context.Background(), prepare(t, &http.Request{
		URL: "http://pinned.invalid:" + port + "/",
	}), nil)
	require.NoError(t, err)
	defer conn.Close()
	b, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(b))
}

func TestDialRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()

	_, err = (&CoreDialer{}).Dial(context.Background(), prepare(t, &http.Request{
		URL: "http://" + addr + "/", ConnectTimeout: time.Second,
	}), nil)
	assert.Error(t, err)
}

func TestResolveConfigMerge(t *testing.T) {
	base := &ResolveConfig{
		CustomDNSServer: "1.1.1.1:53",
		Network:         "ip4",
		StaticHosts:     map[string]string{"a": "1.1.1.1", "b": "2.2.2.2"},
	}
	over := &ResolveConfig{StaticHosts: map[string]string{"a": "9.9.9.9"}}

	m := over.Merge(base)
	assert.Equal(t, "1.1.1.1:53", m.CustomDNSServer)
	assert.Equal(t, "ip4", m.Network)
	assert.Equal(t, map[string]string{"a": "9.9.9.9", "b": "2.2.2.2"}, m.StaticHosts)
	assert.Equal(t, map[string]string{"a": "9.9.9.9"}, over.StaticHosts, "merge must not modify its receiver")

	var none *ResolveConfig
	assert.Equal(t, base, none.Merge(base))
	assert.NotSame(t, base, none.Merge(base))
	assert.Nil(t, none.Merge(nil))
}

func TestCoreDialerClone(t *testing.T) {
	d := &CoreDialer{
		ResolveConfig: &ResolveConfig{StaticHosts: map[string]string{"a": "1.1.1.1"}},
		ProxyConfig:   &ProxyConfig{ResolveLocally: true},
	}
	c := d.Clone()
	c.ResolveConfig.StaticHosts["a"] = "2.2.2.2"
	c.ProxyConfig.ResolveLocally = false
	assert.Equal(t, "1.1.1.1", d.ResolveConfig.StaticHosts["a"])
	assert.True(t, d.ProxyConfig.ResolveLocally)
	assert.Nil(t, c.TLSConfig)
	assert.Nil(t, c.Unwrap())
}

func TestRemoteAddrResolveLocally(t *testing.T) {
	d := &CoreDialer{ProxyConfig: &ProxyConfig{
		ResolveLocally: true,
		ResolveConfig:  &ResolveConfig{StaticHosts: map[string]string{"origin.invalid": "10.1.2.3"}},
	}}
	remote, err := d.remoteAddr(context.Background(), "origin.invalid", "https")
	require.NoError(t, err)
	assert.Equal(t, "10.1.2.3:443", remote)

	remote, err = (&CoreDialer{}).remoteAddr(context.Background(), "origin.invalid:8443", "https")
	require.NoError(t, err)
	assert.Equal(t, "origin.invalid:8443", remote)
}
