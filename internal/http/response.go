package http

import (
	"io"
	"mime"
	"net/url"
	"sync"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/frankli0324/go-requests/internal/cookie"
)

// Response is a normalized response. Body is decompressed if the server
// declared a known content-encoding. Body must be either read to the end
// and closed, or discarded, to release the connection.
type Response struct {
	Proto      string
	Status     string
	StatusCode int
	Headers    Headers
	Cookies    []*cookie.Cookie // parsed from Set-Cookie in this exchange

	URL     *url.URL // the URL of the final hop
	History []int    // status codes of the redirects followed to get here

	ContentLength int64 // of the raw body, -1 if unknown
	Body          io.ReadCloser
}

// Header returns the first value of the header named name.
func (r *Response) Header(name string) string {
	return r.Headers.Get(name)
}

// Cookie returns the cookie named name set by this response, or nil.
func (r *Response) Cookie(name string) *cookie.Cookie {
	for _, c := range r.Cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Bytes reads the whole body and closes it.
func (r *Response) Bytes() ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()
	b, err := io.ReadAll(r.Body)
	if err != nil {
		return b, Transport("read body", err)
	}
	return b, nil
}

// Text reads the whole body and decodes it with the charset declared by
// Content-Type. Undeclared or unknown charsets are treated as UTF-8.
func (r *Response) Text() (string, error) {
	b, err := r.Bytes()
	if err != nil {
		return "", err
	}
	_, params, perr := mime.ParseMediaType(r.Header("Content-Type"))
	if perr != nil || params["charset"] == "" {
		return string(b), nil
	}
	enc, eerr := htmlindex.Get(params["charset"])
	if eerr != nil {
		return string(b), nil
	}
	if decoded, derr := enc.NewDecoder().Bytes(b); derr == nil {
		return string(decoded), nil
	}
	return string(b), nil
}

// Discard releases the connection without reading the rest of the body.
// It never fails, and may be called any number of times.
func (r *Response) Discard() {
	if r.Body != nil {
		r.Body.Close()
	}
}

func (r *Response) Close() error {
	if r.Body == nil {
		return nil
	}
	return r.Body.Close()
}

type onceBody struct {
	rc     io.ReadCloser
	mu     sync.Mutex
	closed bool
	err    error
}

// NewBody guards rc so that it is closed at most once and can not be read
// after being closed. A nil rc yields [NoBody].
func NewBody(rc io.ReadCloser) io.ReadCloser {
	if rc == nil || rc == NoBody {
		return NoBody
	}
	return &onceBody{rc: rc}
}

func (b *onceBody) Read(p []byte) (int, error) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return 0, ErrBodyReadAfterClose
	}
	return b.rc.Read(p)
}

func (b *onceBody) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		b.err = b.rc.Close()
	}
	return b.err
}
