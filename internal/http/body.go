package http

import (
	"encoding/json"
	"io"
	"net/url"
	"strings"
	"sync/atomic"

	"golang.org/x/text/encoding"
)

// Body is the payload of a request. Encode writes the payload to w, text
// is encoded with enc, the charset of the request.
type Body interface {
	ContentType() string
	// IncludeCharset reports whether "; charset=<name>" is appended to the
	// content type.
	IncludeCharset() bool
	Encode(w io.Writer, enc encoding.Encoding) error
}

// sizer is implemented by bodies that know their length in advance, they
// are sent with Content-Length instead of chunked.
type sizer interface {
	Len() int64
}

type textBody struct {
	text, contentType string
}

// NewTextBody returns a text/plain body.
func NewTextBody(text string) Body {
	return &textBody{text, "text/plain"}
}

// NewTypedTextBody returns a text body with the given content type, the
// charset is appended on the wire.
func NewTypedTextBody(contentType, text string) Body {
	return &textBody{text, contentType}
}

func (b *textBody) ContentType() string  { return b.contentType }
func (b *textBody) IncludeCharset() bool { return true }
func (b *textBody) Encode(w io.Writer, enc encoding.Encoding) error {
	data, err := enc.NewEncoder().String(b.text)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, data)
	return err
}

type formBody []Param

// NewFormBody returns an application/x-www-form-urlencoded body. The
// fields are written in order, percent-encoded in the request charset.
func NewFormBody(params ...Param) Body {
	return formBody(params)
}

func (b formBody) ContentType() string  { return "application/x-www-form-urlencoded" }
func (b formBody) IncludeCharset() bool { return true }
func (b formBody) Encode(w io.Writer, enc encoding.Encoding) error {
	e := enc.NewEncoder()
	var sb strings.Builder
	for i, p := range b {
		name, err := e.String(p.Name)
		if err != nil {
			return err
		}
		value, err := e.String(p.Value)
		if err != nil {
			return err
		}
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(name))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(value))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

type jsonBody struct {
	v interface{}
}

// NewJSONBody returns a body holding v marshaled with encoding/json.
func NewJSONBody(v interface{}) Body {
	return &jsonBody{v}
}

func (b *jsonBody) ContentType() string  { return "application/json" }
func (b *jsonBody) IncludeCharset() bool { return true }
func (b *jsonBody) Encode(w io.Writer, enc encoding.Encoding) error {
	data, err := json.Marshal(b.v)
	if err != nil {
		return err
	}
	if data, err = enc.NewEncoder().Bytes(data); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

type bytesBody struct {
	contentType string
	data        []byte
}

// NewBytesBody returns a binary body, no charset is involved.
func NewBytesBody(contentType string, data []byte) Body {
	return &bytesBody{contentType, data}
}

func (b *bytesBody) ContentType() string  { return b.contentType }
func (b *bytesBody) IncludeCharset() bool { return false }
func (b *bytesBody) Len() int64           { return int64(len(b.data)) }
func (b *bytesBody) Encode(w io.Writer, _ encoding.Encoding) error {
	_, err := w.Write(b.data)
	return err
}

type readerBody struct {
	contentType string
	r           io.Reader
	used        uint32
}

// NewReaderBody returns a streaming body. It can be sent only once, if r
// is an [io.Closer] it is closed after being sent.
func NewReaderBody(contentType string, r io.Reader) Body {
	return &readerBody{contentType: contentType, r: r}
}

func (b *readerBody) ContentType() string  { return b.contentType }
func (b *readerBody) IncludeCharset() bool { return false }
func (b *readerBody) Encode(w io.Writer, _ encoding.Encoding) error {
	if !atomic.CompareAndSwapUint32(&b.used, 0, 1) {
		return ErrBodyReadAfterClose
	}
	if c, ok := b.r.(io.Closer); ok {
		defer c.Close()
	}
	_, err := io.Copy(w, b.r)
	return err
}
