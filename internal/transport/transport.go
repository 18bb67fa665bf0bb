package transport

import (
	"io"

	"github.com/frankli0324/go-requests/internal/http"
)

// Transport puts a prepared request on a stream and reads the response
// head back. It never follows redirects, that is owned by the client.
type Transport interface {
	Write(w io.Writer, r *http.PreparedRequest) error
	Read(r io.Reader, req *http.PreparedRequest, resp *http.Response) error
}

var _ Transport = HTTP1{}
