// Package har records the exchanges of a client as an HTTP Archive.
//
// Bodies are streamed to the caller and never buffered, so entries carry
// their sizes and MIME types only.
package har

import (
	"context"
	"encoding/json"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pb33f/harhar"

	"github.com/frankli0324/go-requests/internal"
	"github.com/frankli0324/go-requests/internal/http"
)

const Version = "1.2"

type Recorder struct {
	creator string

	mu      sync.Mutex
	entries []harhar.Entry
}

func NewRecorder(creator string) *Recorder {
	return &Recorder{creator: creator}
}

// Middleware records every hop answered with a response, failed hops are
// not archived.
func (r *Recorder) Middleware() internal.Middleware {
	return func(next internal.Handler) internal.Handler {
		return func(ctx context.Context, req *internal.PreparedRequest) (*http.Response, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			if err != nil {
				return nil, err
			}
			r.add(harhar.Entry{
				Start:    start.Format(time.RFC3339Nano),
				Time:     float64(time.Since(start)) / float64(time.Millisecond),
				Request:  request(req),
				Response: response(resp),
			})
			return resp, nil
		}
	}
}

func (r *Recorder) add(e harhar.Entry) {
	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()
}

// Entries returns the entries recorded so far, oldest first.
func (r *Recorder) Entries() []harhar.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]harhar.Entry(nil), r.entries...)
}

type archive struct {
	Log archiveLog `json:"log"`
}

type archiveLog struct {
	Version string         `json:"version"`
	Creator harhar.Creator `json:"creator"`
	Entries []harhar.Entry `json:"entries"`
}

// WriteTo writes the archive as indented JSON.
func (r *Recorder) WriteTo(w io.Writer) (int64, error) {
	entries := r.Entries()
	if entries == nil {
		entries = []harhar.Entry{}
	}
	data, err := json.MarshalIndent(archive{Log: archiveLog{
		Version: Version,
		Creator: harhar.Creator{Name: r.creator, Version: Version},
		Entries: entries,
	}}, "", "  ")
	if err != nil {
		return 0, err
	}
	n, err := w.Write(append(data, '\n'))
	return int64(n), err
}

func request(pr *internal.PreparedRequest) harhar.Request {
	headers := []harhar.NameValuePair{{Name: "Host", Value: pr.HeaderHost}}
	headers = append(headers, pairs(pr.Header)...)

	var cookies []harhar.Cookie
	for _, c := range pr.Cookies {
		cookies = append(cookies, harhar.Cookie{Name: c.Name, Value: c.Value})
	}
	return harhar.Request{
		Method:      pr.Method,
		URL:         pr.U.Redacted(),
		HTTPVersion: "HTTP/1.1",
		Headers:     headers,
		QueryParams: query(pr.U.RawQuery),
		Cookies:     cookies,
		Body:        harhar.BodyType{MIMEType: pr.ContentType()},
		HeadersSize: -1,
		BodySize:    size(pr.ContentLength),
	}
}

func response(resp *http.Response) harhar.Response {
	_, text, _ := strings.Cut(resp.Status, " ")
	var cookies []harhar.Cookie
	for _, c := range resp.Cookies {
		cookies = append(cookies, harhar.Cookie{Name: c.Name, Value: c.Value})
	}
	return harhar.Response{
		StatusCode:  resp.StatusCode,
		StatusText:  text,
		HTTPVersion: resp.Proto,
		Headers:     pairs(resp.Headers),
		Cookies:     cookies,
		Body: harhar.BodyResponseType{
			Size:     size(resp.ContentLength),
			MIMEType: resp.Header("Content-Type"),
		},
		HeadersSize: -1,
		BodySize:    size(resp.ContentLength),
	}
}

func pairs(h http.Headers) []harhar.NameValuePair {
	out := make([]harhar.NameValuePair, 0, len(h))
	for _, f := range h {
		out = append(out, harhar.NameValuePair{Name: f.Name, Value: f.Value})
	}
	return out
}

// query keeps the order of the raw query, unlike [url.ParseQuery].
func query(raw string) []harhar.NameValuePair {
	var out []harhar.NameValuePair
	for raw != "" {
		var kv string
		kv, raw, _ = strings.Cut(raw, "&")
		if kv == "" {
			continue
		}
		name, value, _ := strings.Cut(kv, "=")
		if n, err := url.QueryUnescape(name); err == nil {
			name = n
		}
		if v, err := url.QueryUnescape(value); err == nil {
			value = v
		}
		out = append(out, harhar.NameValuePair{Name: name, Value: value})
	}
	return out
}

// size maps unknown lengths to -1, as HAR expects.
func size(n int64) int {
	if n < 0 {
		return -1
	}
	return int(n)
}
