package decode_test

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankli0324/go-requests/internal/decode"
	"github.com/frankli0324/go-requests/internal/http"
)

type trackedBody struct {
	io.Reader
	closed bool
}

func (b *trackedBody) Close() error {
	b.closed = true
	return nil
}

func raw(data []byte) *trackedBody {
	return &trackedBody{Reader: bytes.NewReader(data)}
}

func encoded(name string) http.Headers {
	return http.Headers{{Name: "Content-Encoding", Value: name}}
}

var payload = bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog\n"), 100)

func gzipped(t *testing.T, data []byte) []byte {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	zlibbed := func(t *testing.T, data []byte) []byte {
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		_, err := w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		return buf.Bytes()
	}
	flated := func(t *testing.T, data []byte) []byte {
		var buf bytes.Buffer
		w, err := flate.NewWriter(&buf, flate.DefaultCompression)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		return buf.Bytes()
	}
	cases := []struct {
		name, encoding string
		compress       func(*testing.T, []byte) []byte
	}{
		{"Gzip", "gzip", gzipped},
		{"GzipUpperCase", "GZIP", gzipped},
		{"XGzip", "x-gzip", gzipped},
		{"DeflateZlib", "deflate", zlibbed},
		{"DeflateRaw", "deflate", flated},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			body := raw(c.compress(t, payload))
			rc, err := decode.Decode("GET", 200, encoded(c.encoding), body)
			require.NoError(t, err)
			got, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
			require.NoError(t, rc.Close())
			assert.True(t, body.closed)
		})
	}
}

func TestPassThrough(t *testing.T) {
	compressed := gzipped(t, payload)
	cases := []struct {
		name    string
		method  string
		status  int
		headers http.Headers
	}{
		{"Head", "HEAD", 200, encoded("gzip")},
		{"NoContent", "GET", 204, encoded("gzip")},
		{"NotModified", "GET", 304, encoded("gzip")},
		{"Informational", "GET", 101, encoded("gzip")},
		{"Identity", "GET", 200, encoded("identity")},
		{"Compress", "GET", 200, encoded("compress")},
		{"Unknown", "GET", 200, encoded("br")},
		{"Absent", "GET", 200, nil},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			body := raw(compressed)
			rc, err := decode.Decode(c.method, c.status, c.headers, body)
			require.NoError(t, err)
			assert.Same(t, body, rc)
		})
	}
}

func TestNoContentWithSpuriousEncoding(t *testing.T) {
	rc, err := decode.Decode("GET", 204, encoded("gzip"), http.NoBody)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecodeErrorClosesRaw(t *testing.T) {
	body := raw([]byte("definitely not gzip"))
	rc, err := decode.Decode("GET", 200, encoded("gzip"), body)
	assert.Nil(t, rc)
	var de *http.DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "gzip", de.Encoding)
	assert.True(t, body.closed)
}

func TestEncoding(t *testing.T) {
	assert.Equal(t, "gzip", decode.Encoding(http.Headers{
		{Name: "content-encoding", Value: " GZip , br"},
		{Name: "Content-Encoding", Value: "deflate"},
	}))
	assert.Equal(t, "", decode.Encoding(nil))
	assert.True(t, strings.Contains(decode.AcceptEncoding, "deflate"))
}
