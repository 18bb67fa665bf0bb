// Package decode wraps response bodies with the decompressor matching
// their declared Content-Encoding.
package decode

import (
	"bufio"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"

	"github.com/frankli0324/go-requests/internal/http"
)

// AcceptEncoding is the value of the Accept-Encoding header sent when
// compression is requested, it lists what [Decode] understands.
const AcceptEncoding = "gzip, deflate"

type decodedBody struct {
	io.Reader
	closers []io.Closer
}

func (b *decodedBody) Close() (err error) {
	for _, c := range b.closers {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return
}

// bodyless reports whether a response never carries a body, regardless
// of its headers.
func bodyless(method string, status int) bool {
	return method == "HEAD" || (status >= 100 && status < 200) ||
		status == 204 || status == 304
}

// Encoding returns the first content coding declared by headers, lower
// cased.
func Encoding(headers http.Headers) string {
	v := headers.Get("Content-Encoding")
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.ToLower(strings.TrimSpace(v))
}

// Decode returns raw wrapped with a decompressor, or raw itself when the
// response has no body or uses an encoding other than gzip and deflate.
// When the decompressor can't be constructed raw is closed and a
// [http.DecodeError] is returned.
func Decode(method string, status int, headers http.Headers, raw io.ReadCloser) (io.ReadCloser, error) {
	if raw == nil || bodyless(method, status) {
		return raw, nil
	}
	switch enc := Encoding(headers); enc {
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(raw)
		if err != nil {
			raw.Close()
			return nil, &http.DecodeError{Encoding: enc, Err: err}
		}
		return &decodedBody{zr, []io.Closer{zr, raw}}, nil
	case "deflate":
		return newDeflate(raw)
	default:
		// identity, compress and unknown codings are passed through
		return raw, nil
	}
}

// newDeflate accepts both zlib wrapped (RFC 1950, what the standard asks
// for) and raw (RFC 1951, what some servers send) deflate streams.
func newDeflate(raw io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReader(raw)
	if h, err := br.Peek(2); err == nil && isZlibHeader(h[0], h[1]) {
		zr, err := zlib.NewReader(br)
		if err != nil {
			raw.Close()
			return nil, &http.DecodeError{Encoding: "deflate", Err: err}
		}
		return &decodedBody{zr, []io.Closer{zr, raw}}, nil
	}
	fr := flate.NewReader(br)
	return &decodedBody{fr, []io.Closer{fr, raw}}, nil
}

func isZlibHeader(cmf, flg byte) bool {
	return cmf&0x0f == 8 && cmf>>4 <= 7 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}
