// Package parse turns Artsy and Imagga response bodies into typed results.
//
// Collections are lenient: an entry missing a required field, or carrying one
// of the wrong JSON type, is skipped and a missing envelope yields an empty
// slice. Only a body that is not JSON is an error.
package parse

import (
	"encoding/json"
	"net/url"
	"strings"
)

// ImageVersionToken is the placeholder Artsy leaves in image link templates.
const ImageVersionToken = "{image_version}"

// DefaultImageVersion is substituted for ImageVersionToken.
const DefaultImageVersion = "tall"

// SearchResult is an artist returned by search.
type SearchResult struct {
	Title string   `json:"title"`
	Href  *url.URL `json:"-"`
}

// MarshalJSON renders Href as a string.
func (r SearchResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Title string `json:"title"`
		Href  string `json:"href"`
	}{r.Title, urlString(r.Href)})
}

// Artwork is one entry from an artist's artworks listing.
type Artwork struct {
	Title    string   `json:"title"`
	Medium   string   `json:"medium"`
	ImageURL *url.URL `json:"-"`
}

// MarshalJSON renders ImageURL as a string.
func (a Artwork) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Title    string `json:"title"`
		Medium   string `json:"medium"`
		ImageURL string `json:"image_url"`
	}{a.Title, a.Medium, urlString(a.ImageURL)})
}

// SearchResults extracts artists from a search response. Entries that are not
// of type "artist", have no title, or have no absolute self link are skipped,
// as are entries whose fields have the wrong JSON type.
func SearchResults(body []byte) ([]SearchResult, error) {
	root, err := decodeRoot(body)
	if err != nil {
		return nil, err
	}
	out := []SearchResult{}
	for _, raw := range root.embedded("results") {
		r, ok := asObject(raw)
		if !ok {
			continue
		}
		if typ, _ := r.text("type"); typ != "artist" {
			continue
		}
		title, ok := r.text("title")
		if !ok || title == "" {
			continue
		}
		self, _ := r.href("self")
		href, ok := absoluteURL(self)
		if !ok {
			continue
		}
		out = append(out, SearchResult{Title: title, Href: href})
	}
	return out, nil
}

// ArtworksURL reads _links.artworks.href from an artist resource.
func ArtworksURL(body []byte) (*url.URL, bool) {
	root, err := decodeRoot(body)
	if err != nil {
		return nil, false
	}
	href, _ := root.href("artworks")
	return absoluteURL(href)
}

// ArtworkResults extracts artworks using DefaultImageVersion.
func ArtworkResults(body []byte) ([]Artwork, error) {
	return ArtworkResultsVersion(body, DefaultImageVersion)
}

// ArtworkResultsVersion extracts artworks, replacing every ImageVersionToken in
// the image link with version. Entries missing a non-empty title, a medium
// string or a templated image link are skipped. Medium only has to be present;
// an empty medium is kept.
func ArtworkResultsVersion(body []byte, version string) ([]Artwork, error) {
	root, err := decodeRoot(body)
	if err != nil {
		return nil, err
	}
	out := []Artwork{}
	for _, raw := range root.embedded("artworks") {
		a, ok := asObject(raw)
		if !ok {
			continue
		}
		title, ok := a.text("title")
		if !ok || title == "" {
			continue
		}
		medium, ok := a.text("medium")
		if !ok {
			continue
		}
		tmpl, ok := a.href("image")
		if !ok || !strings.Contains(tmpl, ImageVersionToken) {
			continue
		}
		imageURL, ok := absoluteURL(ExpandImageVersion(tmpl, version))
		if !ok {
			continue
		}
		out = append(out, Artwork{Title: title, Medium: medium, ImageURL: imageURL})
	}
	return out, nil
}

// ExpandImageVersion replaces every ImageVersionToken in tmpl with version.
func ExpandImageVersion(tmpl, version string) string {
	return strings.ReplaceAll(tmpl, ImageVersionToken, version)
}

func absoluteURL(raw string) (*url.URL, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, false
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, false
	}
	return u, true
}

func urlString(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.String()
}
