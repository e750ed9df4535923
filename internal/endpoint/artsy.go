package endpoint

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/artlens/artlens/internal/validation"
)

// DefaultArtsyURL is the Artsy API root used when no override is configured.
const DefaultArtsyURL = "https://api.artsy.net/api/"

// ArtsyTarget is one logical Artsy operation. The set of implementations is
// closed: Search and Hyperlink.
type ArtsyTarget interface {
	artsyTarget()
}

// Search looks up artists by free-text term.
type Search struct {
	Term string
}

// Hyperlink requests a fully-qualified link returned by an earlier response.
type Hyperlink struct {
	URL *url.URL
}

func (Search) artsyTarget()    {}
func (Hyperlink) artsyTarget() {}

// Artsy resolves ArtsyTargets against a base URL.
type Artsy struct {
	base *url.URL
}

// NewArtsy validates baseURL and returns a resolver rooted at it.
func NewArtsy(baseURL string) (*Artsy, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultArtsyURL
	}
	base, err := validation.ValidateBaseURL(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: artsy base URL: %v", ErrInvalidRoute, err)
	}
	return &Artsy{base: base}, nil
}

// MustArtsy is NewArtsy for compile-time constant URLs. It panics on error.
func MustArtsy(baseURL string) *Artsy {
	a, err := NewArtsy(baseURL)
	if err != nil {
		panic(err)
	}
	return a
}

// BaseURL returns a copy of the resolver's root URL.
func (a *Artsy) BaseURL() *url.URL {
	u := *a.base
	return &u
}

// Resolve maps a target to its Descriptor.
//
// Search sends q=lowercase(term) together with type=artist so that only artist
// entities come back; the parser still filters on type.
func (a *Artsy) Resolve(target ArtsyTarget) (Descriptor, error) {
	switch t := target.(type) {
	case Search:
		return Descriptor{
			Service: ServiceArtsy,
			Method:  http.MethodGet,
			URL:     a.base.ResolveReference(&url.URL{Path: "search"}),
			Params: url.Values{
				"q":    {strings.ToLower(t.Term)},
				"type": {"artist"},
			},
			Encoding: EncodingQueryString,
		}, nil
	case Hyperlink:
		if err := validation.CheckURL(t.URL); err != nil {
			return Descriptor{}, fmt.Errorf("%w: hyperlink: %v", ErrInvalidRoute, err)
		}
		u := *t.URL
		return Descriptor{
			Service:  ServiceArtsy,
			Method:   http.MethodGet,
			URL:      &u,
			Encoding: EncodingNone,
		}, nil
	default:
		return Descriptor{}, fmt.Errorf("%w: unknown artsy target %T", ErrInvalidRoute, target)
	}
}
