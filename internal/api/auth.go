package api

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/artlens/artlens/internal/endpoint"
)

// Header names each service authenticates with.
const (
	ArtsyTokenHeader = "X-Xapp-Token"
	ImaggaAuthHeader = "Authorization"
	basicPrefix      = "Basic "
	redactedVisible  = 4
)

// Credential is a single header injected into every request for a service.
type Credential struct {
	Header string
	Value  string
}

// ArtsyCredential builds the X-Xapp-Token credential.
func ArtsyCredential(token string) Credential {
	return Credential{Header: ArtsyTokenHeader, Value: strings.TrimSpace(token)}
}

// ImaggaCredential builds the Basic credential from a base64 key:secret token.
// A token that already carries the "Basic " prefix is used as is.
func ImaggaCredential(token string) Credential {
	token = strings.TrimSpace(token)
	if token == "" {
		return Credential{Header: ImaggaAuthHeader}
	}
	if !strings.HasPrefix(token, basicPrefix) {
		token = basicPrefix + token
	}
	return Credential{Header: ImaggaAuthHeader, Value: token}
}

// BasicToken encodes an Imagga API key and secret for ImaggaCredential.
func BasicToken(key, secret string) string {
	return base64.StdEncoding.EncodeToString([]byte(key + ":" + secret))
}

// IsZero reports whether the credential has no value.
func (c Credential) IsZero() bool {
	return c.Header == "" || strings.TrimSpace(strings.TrimPrefix(c.Value, basicPrefix)) == ""
}

// Redacted renders the credential for logs, keeping only a short prefix.
func (c Credential) Redacted() string {
	if c.IsZero() {
		return c.Header + ": (unset)"
	}
	v := strings.TrimPrefix(c.Value, basicPrefix)
	prefix := ""
	if v != c.Value {
		prefix = basicPrefix
	}
	if len(v) > redactedVisible {
		v = v[:redactedVisible]
	}
	return c.Header + ": " + prefix + v + "****"
}

// Credentials holds the per-service credentials. It is read-only once built.
type Credentials struct {
	Artsy  Credential
	Imagga Credential
}

// For returns the credential for svc and whether one is configured.
func (c Credentials) For(svc endpoint.Service) (Credential, bool) {
	var cred Credential
	switch svc {
	case endpoint.ServiceArtsy:
		cred = c.Artsy
	case endpoint.ServiceImagga:
		cred = c.Imagga
	default:
		return Credential{}, false
	}
	return cred, !cred.IsZero()
}

// Authorize returns a clone of req carrying the service credential.
// req itself is never modified.
func (c Credentials) Authorize(req *http.Request, svc endpoint.Service) (*http.Request, error) {
	cred, ok := c.For(svc)
	if !ok {
		return nil, &AuthError{Service: svc, Reason: "no credential configured"}
	}
	out := req.Clone(req.Context())
	out.Header.Set(cred.Header, cred.Value)
	return out, nil
}
