// Package trust decides how the server certificate chain of a TLS
// connection is verified.
package trust

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/frankli0324/go-requests/internal/http"
)

type Kind int

const (
	// PlatformDefault verifies against the system roots. It is represented
	// by a nil *Policy and never installed on a connection.
	PlatformDefault Kind = iota
	// TrustAll accepts any chain.
	TrustAll
	// Pinned accepts a chain only if its leaf is one of the configured
	// certificates, byte for byte.
	Pinned
)

func (k Kind) String() string {
	switch k {
	case PlatformDefault:
		return "platform-default"
	case TrustAll:
		return "trust-all"
	case Pinned:
		return "pinned"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Policy is a resolved trust decision. The nil *Policy is PlatformDefault.
type Policy struct {
	kind  Kind
	certs []*x509.Certificate
}

var errNotPinned = errors.New("x509: server certificate is not one of the pinned certificates")

// Resolve picks the policy for a request. Disabled verification always
// wins, then a non-empty pinned set. nil means platform default.
func Resolve(verify bool, certs []*x509.Certificate) (*Policy, error) {
	if !verify {
		return &Policy{kind: TrustAll}, nil
	}
	if len(certs) == 0 {
		return nil, nil
	}
	for i, c := range certs {
		if c == nil || len(c.Raw) == 0 {
			return nil, &http.SecurityConfigError{Err: fmt.Errorf("pinned certificate #%d is empty", i)}
		}
	}
	return &Policy{kind: Pinned, certs: append([]*x509.Certificate(nil), certs...)}, nil
}

func (p *Policy) Kind() Kind {
	if p == nil {
		return PlatformDefault
	}
	return p.kind
}

// Apply returns a copy of base with the policy installed. base may be nil.
func (p *Policy) Apply(base *tls.Config) *tls.Config {
	cfg := base.Clone()
	if cfg == nil {
		cfg = &tls.Config{}
	}
	switch p.Kind() {
	case TrustAll:
		cfg.InsecureSkipVerify = true
		cfg.VerifyPeerCertificate = nil
	case Pinned:
		// chain validation is replaced by the exact match below
		cfg.InsecureSkipVerify = true
		cfg.VerifyPeerCertificate = p.verifyPinned
	}
	return cfg
}

func (p *Policy) verifyPinned(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	if len(rawCerts) == 0 {
		return errNotPinned
	}
	for _, c := range p.certs {
		if bytes.Equal(c.Raw, rawCerts[0]) {
			return nil
		}
	}
	return errNotPinned
}

// ParsePEM parses every CERTIFICATE block of data.
func ParsePEM(data []byte) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		c, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, &http.SecurityConfigError{Err: err}
		}
		certs = append(certs, c)
	}
	if len(certs) == 0 {
		return nil, &http.SecurityConfigError{Err: errors.New("no certificate found in PEM data")}
	}
	return certs, nil
}

func LoadPEMFile(path string) ([]*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &http.SecurityConfigError{Err: err}
	}
	return ParsePEM(data)
}
