package transport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/frankli0324/go-requests/internal/http"
	"github.com/frankli0324/go-requests/internal/transport/chunked"
)

var errMalformedResponse = errors.New("malformed HTTP response")

type HTTP1 struct{}

// Write writes the request head, then the body if any. The body stream is
// closed once the body is written, whether the body failed or not.
func (t HTTP1) Write(w io.Writer, r *http.PreparedRequest) error {
	bw := bufio.NewWriter(w) // default bufsize is 4096
	if err := t.writeHeader(bw, r); err != nil {
		return err
	}
	if r.Body != nil && r.ContentLength != 0 {
		out := t.bodyWriter(bw, r.ContentLength)
		err := r.Body.Encode(out, r.Encoding)
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("write body: %w", err)
		}
	}
	return bw.Flush()
}

// writeHeader writes the request line and header part of an http 1.1 request
// e.g.:
//
//	GET / HTTP/1.1\r\n
//	Host: www.google.com\r\n
//	X-Xx-Yy: cccccc\r\n
//	\r\n
func (t HTTP1) writeHeader(w *bufio.Writer, r *http.PreparedRequest) error {
	w.WriteString(r.Method)
	w.WriteByte(' ')
	w.WriteString(r.U.RequestURI())
	w.WriteString(" HTTP/1.1\r\n")

	w.WriteString("Host: ")
	w.WriteString(r.HeaderHost)
	w.WriteString("\r\n")
	switch {
	case r.ContentLength > 0:
		w.WriteString("Content-Length: ")
		w.WriteString(strconv.FormatInt(r.ContentLength, 10))
		w.WriteString("\r\n")
	case r.ContentLength < 0:
		w.WriteString("Transfer-Encoding: chunked\r\n")
	}
	for _, f := range r.Header {
		w.WriteString(f.Name)
		w.WriteString(": ")
		w.WriteString(f.Value)
		if _, err := w.WriteString("\r\n"); err != nil {
			return err
		}
	}
	if _, err := w.WriteString("\r\n"); err != nil {
		return err
	}
	return w.Flush()
}

func (t HTTP1) bodyWriter(w *bufio.Writer, cl int64) io.WriteCloser {
	if cl < 0 {
		return chunked.NewChunkedWriter(w)
	}
	return &fixedWriter{w: w, remain: cl}
}

type fixedWriter struct {
	w      io.Writer
	remain int64
}

func (f *fixedWriter) Write(p []byte) (int, error) {
	if int64(len(p)) > f.remain {
		return 0, errors.New("body longer than its Content-Length")
	}
	n, err := f.w.Write(p)
	f.remain -= int64(n)
	return n, err
}

func (f *fixedWriter) Close() error {
	if f.remain != 0 {
		return errors.New("body shorter than its Content-Length")
	}
	return nil
}

// Read reads the response head for req. resp.Body is framed according to
// the response, closing it closes r if r is an [io.Closer]. Responses that
// can't have a body get [http.NoBody] and r is closed right away, except
// for successful CONNECT tunnels.
func (t HTTP1) Read(r io.Reader, req *http.PreparedRequest, resp *http.Response) (err error) {
	closer := func() error { return nil }
	if cr, ok := r.(io.Closer); ok {
		closer = cr.Close
	}
	tp := textproto.NewReader(bufio.NewReader(r))

	for {
		if err := t.readStatus(tp, resp); err != nil {
			return err
		}
		// interim responses are skipped, 101 is final
		if resp.StatusCode >= 200 || resp.StatusCode == 101 {
			break
		}
		if _, err := t.readHeader(tp); err != nil {
			return err
		}
	}

	if resp.Headers, err = t.readHeader(tp); err != nil {
		return err
	}
	return t.readTransfer(tp.R, req.Method, resp, closer)
}

func (t HTTP1) readStatus(tp *textproto.Reader, resp *http.Response) error {
	line, err := tp.ReadLine()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return err
	}
	proto, status, ok := strings.Cut(line, " ")
	if !ok || !strings.HasPrefix(proto, "HTTP/") {
		return errMalformedResponse
	}
	resp.Proto = proto
	resp.Status = strings.TrimLeft(status, " ")

	statusCode, _, _ := strings.Cut(resp.Status, " ")
	if len(statusCode) != 3 {
		return errors.New("malformed HTTP status code " + statusCode)
	}
	resp.StatusCode, err = strconv.Atoi(statusCode)
	if err != nil || resp.StatusCode < 0 {
		return errors.New("malformed HTTP status code")
	}
	return nil
}

// readHeader reads header fields up to the empty line, keeping their order
// and duplicates. obsolete line folding is joined with a single space.
func (t HTTP1) readHeader(tp *textproto.Reader) (http.Headers, error) {
	var headers http.Headers
	for {
		line, err := tp.ReadContinuedLine()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		if line == "" {
			return headers, nil
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok || name == "" || strings.TrimRight(name, " \t") != name {
			return nil, fmt.Errorf("malformed MIME header line: %q", line)
		}
		headers.Add(name, strings.TrimSpace(value))
	}
}

func (t HTTP1) readTransfer(r *bufio.Reader, method string, resp *http.Response, closer func() error) error {
	resp.ContentLength = -1
	switch {
	case method == "CONNECT" && resp.StatusCode/100 == 2:
		resp.Body = http.NoBody // the stream now belongs to the tunnel
		return nil
	case method == "HEAD" || resp.StatusCode/100 == 1 ||
		resp.StatusCode == 204 || resp.StatusCode == 304:
		resp.ContentLength = 0
		resp.Body = http.NoBody
		return closer()
	}

	if te := resp.Headers.Get("Transfer-Encoding"); te != "" {
		if lastToken(te) != "chunked" {
			return fmt.Errorf("unsupported transfer encoding: %q", te)
		}
		resp.Headers.Del("Content-Length")
		resp.Body = bodyCloser{chunked.NewChunkedReader(r), closer}
		return nil
	}

	contentLens := resp.Headers.Values("Content-Length")
	// Hardening against HTTP request smuggling, taken from standard library
	if len(contentLens) > 1 {
		// Per RFC 7230 Section 3.3.2
		first := textproto.TrimString(contentLens[0])
		for _, ct := range contentLens[1:] {
			if first != textproto.TrimString(ct) {
				return fmt.Errorf("http: message cannot contain multiple Content-Length headers; got %q", contentLens)
			}
		}
		// deduplicate Content-Length
		resp.Headers.Del("Content-Length")
		resp.Headers.Add("Content-Length", first)
		contentLens = contentLens[:1]
	}
	if len(contentLens) > 0 {
		n, err := strconv.ParseUint(textproto.TrimString(contentLens[0]), 10, 63)
		if err != nil {
			return fmt.Errorf("bad Content-Length %q", contentLens[0])
		}
		resp.ContentLength = int64(n)
	}

	switch cl := resp.ContentLength; {
	case cl > 0:
		resp.Body = bodyCloser{&exactReader{r: r, remain: cl}, closer}
	case cl == 0:
		resp.Body = http.NoBody
		return closer()
	default: // delimited by the server closing the connection
		resp.Body = bodyCloser{r, closer}
	}
	return nil
}

// exactReader is an [io.LimitReader] that reports a connection closed
// before n bytes as [io.ErrUnexpectedEOF].
type exactReader struct {
	r      io.Reader
	remain int64
}

func (e *exactReader) Read(p []byte) (int, error) {
	if e.remain <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > e.remain {
		p = p[:e.remain]
	}
	n, err := e.r.Read(p)
	e.remain -= int64(n)
	if err == io.EOF && e.remain > 0 {
		err = io.ErrUnexpectedEOF
	}
	return n, err
}
