package requests

import (
	"github.com/frankli0324/go-requests/internal/cookie"
	"github.com/frankli0324/go-requests/internal/http"
)

type (
	Request         = http.Request
	PreparedRequest = http.PreparedRequest
	Response        = http.Response
	Body            = http.Body
	Headers         = http.Headers
	HeaderField     = http.HeaderField
	Param           = http.Param
	BasicAuth       = http.BasicAuth
	Proxy           = http.Proxy
	Cookie          = cookie.Cookie
)

type (
	ProtocolError       = http.ProtocolError
	TransportError      = http.TransportError
	SecurityConfigError = http.SecurityConfigError
	DecodeError         = http.DecodeError
	RedirectError       = http.RedirectError
	RedirectReason      = http.RedirectReason
)

const (
	TooManyRedirects  = http.TooManyRedirects
	MissingLocation   = http.MissingLocation
	MalformedLocation = http.MalformedLocation
)

var (
	NoBody = http.NoBody

	NewTextBody      = http.NewTextBody
	NewTypedTextBody = http.NewTypedTextBody
	NewFormBody      = http.NewFormBody
	NewJSONBody      = http.NewJSONBody
	NewBytesBody     = http.NewBytesBody
	NewReaderBody    = http.NewReaderBody

	ParseProxy = http.ParseProxy
)
