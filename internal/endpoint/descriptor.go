// Package endpoint maps logical operations on the Artsy and Imagga services to
// concrete request descriptors.
//
// Each service has a closed set of targets (one type per operation carrying
// only that operation's parameters) and a resolver that turns a target into a
// Descriptor. Resolvers are pure: they perform no I/O.
package endpoint

import (
	"errors"
	"net/http"
	"net/url"
)

// Service identifies the backend a request is addressed to.
type Service string

const (
	ServiceArtsy  Service = "artsy"
	ServiceImagga Service = "imagga"
)

// Encoding describes how a Descriptor's parameters travel.
type Encoding int

const (
	// EncodingNone sends no parameters beyond those already in the URL.
	EncodingNone Encoding = iota
	// EncodingQueryString appends Params to the URL query.
	EncodingQueryString
	// EncodingMultipart sends Body as multipart/form-data.
	EncodingMultipart
)

func (e Encoding) String() string {
	switch e {
	case EncodingQueryString:
		return "query"
	case EncodingMultipart:
		return "multipart"
	default:
		return "none"
	}
}

// ErrInvalidRoute is returned when a target cannot be turned into a valid URL.
// It signals a programming or configuration error, not a transient failure.
var ErrInvalidRoute = errors.New("invalid route")

// Descriptor is a fully resolved request. It is built per call and is not
// modified after it has been handed to the executor.
type Descriptor struct {
	Service     Service
	Method      string
	URL         *url.URL
	Params      url.Values
	Encoding    Encoding
	Body        []byte
	ContentType string
}

// FullURL returns the request URL with Params merged into the query when the
// descriptor is query-encoded. Neither URL nor Params are modified.
func (d Descriptor) FullURL() string {
	if d.URL == nil {
		return ""
	}
	u := *d.URL
	if d.Encoding == EncodingQueryString && len(d.Params) > 0 {
		q := u.Query()
		for key, values := range d.Params {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// Idempotent reports whether the request can be replayed or cached safely.
func (d Descriptor) Idempotent() bool {
	return d.Method == http.MethodGet || d.Method == http.MethodHead
}

// String returns "METHOD url" with any userinfo redacted.
func (d Descriptor) String() string {
	full := d.FullURL()
	if u, err := url.Parse(full); err == nil {
		full = u.Redacted()
	}
	return d.Method + " " + full
}
