// package http contains the request description and normalized response
// types, which are meant to be exported. the package name is meant to be
// same with the standard library so that IDEs and code editors could pick
// them up
//
// the package also defines the error kinds surfaced by the client, see
// [ProtocolError], [TransportError], [SecurityConfigError], [DecodeError]
// and [RedirectError]
package http

import (
	"net/http"
)

var (
	NoBody                = http.NoBody
	ErrBodyReadAfterClose = http.ErrBodyReadAfterClose
)
