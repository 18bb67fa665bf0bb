package http

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
)

// ProtocolError reports a request that can not be put on the wire, for
// example a method that is not a valid HTTP token. It is a caller bug and
// is never retried.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string { return "protocol error: " + e.Op + ": " + e.Err.Error() }
func (e *ProtocolError) Unwrap() error { return e.Err }

// TransportError reports an I/O failure while opening the connection,
// writing the request or reading the response, including timeouts.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return "transport error: " + e.Op + ": " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was caused by an expired connect or
// read timeout.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) || errors.Is(e.Err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// SecurityConfigError reports a TLS setup failure. It is a configuration
// bug, fatal for the request.
type SecurityConfigError struct {
	Err error
}

func (e *SecurityConfigError) Error() string { return "security config error: " + e.Err.Error() }
func (e *SecurityConfigError) Unwrap() error { return e.Err }

// DecodeError reports a body declared compressed whose decompressor could
// not be constructed. The raw body is closed before it is returned.
type DecodeError struct {
	Encoding string
	Err      error
}

func (e *DecodeError) Error() string {
	return "decode error: content-encoding " + e.Encoding + ": " + e.Err.Error()
}
func (e *DecodeError) Unwrap() error { return e.Err }

type RedirectReason int

const (
	TooManyRedirects RedirectReason = iota + 1
	MissingLocation
	MalformedLocation
)

func (r RedirectReason) String() string {
	switch r {
	case TooManyRedirects:
		return "too many redirects"
	case MissingLocation:
		return "missing Location header"
	case MalformedLocation:
		return "malformed Location header"
	}
	return "RedirectReason(" + strconv.Itoa(int(r)) + ")"
}

// RedirectError ends a redirect chain. StatusCode and URL describe the last
// response received before giving up.
type RedirectError struct {
	Reason     RedirectReason
	StatusCode int
	URL        string
	Err        error
}

func (e *RedirectError) Error() string {
	s := "redirect error: " + e.Reason.String() + " (status " + strconv.Itoa(e.StatusCode) + " from " + e.URL + ")"
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *RedirectError) Unwrap() error { return e.Err }

// IsClassified reports whether err already is one of the error kinds of
// this package, in which case it must be propagated unmodified.
func IsClassified(err error) bool {
	var (
		pe *ProtocolError
		te *TransportError
		se *SecurityConfigError
		de *DecodeError
		re *RedirectError
	)
	return errors.As(err, &pe) || errors.As(err, &te) || errors.As(err, &se) ||
		errors.As(err, &de) || errors.As(err, &re)
}

// Transport classifies err as a [TransportError] unless it already carries
// a kind.
func Transport(op string, err error) error {
	if err == nil || IsClassified(err) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}
