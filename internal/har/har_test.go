package har

import (
	"bytes"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/pb33f/harhar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankli0324/go-requests/internal"
	"github.com/frankli0324/go-requests/internal/http"
)

func TestRecorder(t *testing.T) {
	srv := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		if r.URL.Path == "/start" {
			stdhttp.SetCookie(w, &stdhttp.Cookie{Name: "sid", Value: "1"})
			stdhttp.Redirect(w, r, "/end", stdhttp.StatusSeeOther)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, "done")
	}))
	defer srv.Close()

	rec := NewRecorder("test")
	c := &internal.Client{}
	c.Use(rec.Middleware())
	resp, err := c.Do(&http.Request{
		Method: "GET", URL: srv.URL + "/start?b=2&a=x%20y",
		UserAgent: "ua",
		Cookies:   []http.Param{{Name: "k", Value: "v"}},
	})
	require.NoError(t, err)
	resp.Discard()

	entries := rec.Entries()
	require.Len(t, entries, 2)
	first, second := entries[0], entries[1]

	assert.Equal(t, "GET", first.Request.Method)
	assert.Equal(t, []harhar.NameValuePair{{Name: "b", Value: "2"}, {Name: "a", Value: "x y"}}, first.Request.QueryParams)
	assert.Contains(t, first.Request.Headers, harhar.NameValuePair{Name: "User-Agent", Value: "ua"})
	assert.Equal(t, []harhar.Cookie{{Name: "k", Value: "v"}}, first.Request.Cookies)
	assert.Equal(t, 303, first.Response.StatusCode)
	assert.Equal(t, "See Other", first.Response.StatusText)
	require.Len(t, first.Response.Cookies, 1)
	assert.Equal(t, "sid", first.Response.Cookies[0].Name)

	assert.Equal(t, srv.URL+"/end", second.Request.URL)
	assert.Empty(t, second.Request.Cookies)
	assert.Equal(t, 200, second.Response.StatusCode)
	assert.Equal(t, "HTTP/1.1", second.Response.HTTPVersion)
	assert.Equal(t, "text/plain", second.Response.Body.MIMEType)
	assert.Equal(t, 4, second.Response.BodySize)

	var buf bytes.Buffer
	_, err = rec.WriteTo(&buf)
	require.NoError(t, err)
	var doc struct {
		Log struct {
			Version string `json:"version"`
			Creator struct {
				Name string `json:"name"`
			} `json:"creator"`
			Entries []json.RawMessage `json:"entries"`
		} `json:"log"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, Version, doc.Log.Version)
	assert.Equal(t, "test", doc.Log.Creator.Name)
	assert.Len(t, doc.Log.Entries, 2)
}

func TestRecorderSkipsFailures(t *testing.T) {
	rec := NewRecorder("test")
	c := &internal.Client{}
	c.Use(rec.Middleware())
	_, err := c.Do(&http.Request{Method: "GET", URL: "http://127.0.0.1:1/"})
	require.Error(t, err)
	assert.Empty(t, rec.Entries())

	var buf bytes.Buffer
	_, err = rec.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"entries": []`)
}

func TestQuery(t *testing.T) {
	assert.Nil(t, query(""))
	assert.Equal(t, []harhar.NameValuePair{{Name: "a", Value: ""}, {Name: "b", Value: "%zz"}},
		query("a&&b=%zz"))
}
