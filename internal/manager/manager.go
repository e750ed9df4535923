// Package manager runs the four artlens operations: search, artworks for a
// search result, image for an artwork, and tags for an image. Each operation
// resolves an endpoint, executes it and parses the body; the two chained
// operations issue their second request only after the first succeeded.
package manager

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/artlens/artlens/internal/api"
	"github.com/artlens/artlens/internal/endpoint"
	"github.com/artlens/artlens/internal/parse"
)

var (
	// ErrNoArtworksLink is returned when an artist resource has no usable
	// _links.artworks.href.
	ErrNoArtworksLink = fmt.Errorf("artist has no artworks link: %w", parse.ErrMissingField)
	// ErrNoContentID is returned when an upload response carries no content id.
	ErrNoContentID = fmt.Errorf("image tagging upload failed, no content id: %w", parse.ErrMissingField)
)

// Manager wires an executor to the Artsy and Imagga resolvers.
type Manager struct {
	exec         api.Executor
	artsy        *endpoint.Artsy
	imagga       *endpoint.Imagga
	imageVersion string
}

// Option configures a Manager.
type Option func(*Manager)

// WithImageVersion sets the value substituted for {image_version} in artwork
// image links. The default is "tall".
func WithImageVersion(version string) Option {
	return func(m *Manager) {
		if v := strings.TrimSpace(version); v != "" {
			m.imageVersion = v
		}
	}
}

// New returns a Manager. Nil resolvers fall back to the public API roots.
func New(exec api.Executor, artsy *endpoint.Artsy, imagga *endpoint.Imagga, opts ...Option) *Manager {
	if artsy == nil {
		artsy = endpoint.MustArtsy(endpoint.DefaultArtsyURL)
	}
	if imagga == nil {
		imagga = endpoint.MustImagga(endpoint.DefaultImaggaURL)
	}
	m := &Manager{
		exec:         exec,
		artsy:        artsy,
		imagga:       imagga,
		imageVersion: parse.DefaultImageVersion,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Search finds artists matching term. An empty result is not an error.
func (m *Manager) Search(ctx context.Context, term string) ([]parse.SearchResult, error) {
	body, err := m.artsyGet(ctx, endpoint.Search{Term: term})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", term, err)
	}
	results, err := parse.SearchResults(body)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", term, err)
	}
	return results, nil
}

// Artworks loads the artist behind result and then its artworks listing.
func (m *Manager) Artworks(ctx context.Context, result parse.SearchResult) ([]parse.Artwork, error) {
	if result.Href == nil {
		return nil, fmt.Errorf("artworks for %q: %w", result.Title, parse.MissingField("_links.self.href"))
	}
	artist, err := m.artsyGet(ctx, endpoint.Hyperlink{URL: result.Href})
	if err != nil {
		return nil, fmt.Errorf("artworks for %q: artist: %w", result.Title, err)
	}
	link, ok := parse.ArtworksURL(artist)
	if !ok {
		return nil, fmt.Errorf("artworks for %q: %w", result.Title, ErrNoArtworksLink)
	}
	listing, err := m.artsyGet(ctx, endpoint.Hyperlink{URL: link})
	if err != nil {
		return nil, fmt.Errorf("artworks for %q: %w", result.Title, err)
	}
	artworks, err := parse.ArtworkResultsVersion(listing, m.imageVersion)
	if err != nil {
		return nil, fmt.Errorf("artworks for %q: %w", result.Title, err)
	}
	return artworks, nil
}

// Image downloads and decodes the artwork image.
func (m *Manager) Image(ctx context.Context, artwork parse.Artwork) (image.Image, error) {
	img, _, err := m.ImageWithFormat(ctx, artwork)
	return img, err
}

// ImageWithFormat is Image that also reports the decoded format name.
func (m *Manager) ImageWithFormat(ctx context.Context, artwork parse.Artwork) (image.Image, string, error) {
	if artwork.ImageURL == nil {
		return nil, "", fmt.Errorf("image for %q: %w", artwork.Title, parse.MissingField("_links.image.href"))
	}
	body, err := m.artsyGet(ctx, endpoint.Hyperlink{URL: artwork.ImageURL})
	if err != nil {
		return nil, "", fmt.Errorf("image for %q: %w", artwork.Title, err)
	}
	img, format, err := parse.Image(body)
	if err != nil {
		return nil, "", fmt.Errorf("image for %q: %w", artwork.Title, err)
	}
	return img, format, nil
}

// Tags re-encodes img as JPEG and tags it.
func (m *Manager) Tags(ctx context.Context, img image.Image) ([]parse.Tag, error) {
	data, err := parse.EncodeJPEG(img)
	if err != nil {
		return nil, fmt.Errorf("tags: %w", err)
	}
	return m.TagsForJPEG(ctx, data)
}

// UploadRequest resolves the upload Tags would send for img without
// sending it.
func (m *Manager) UploadRequest(img image.Image) (endpoint.Descriptor, error) {
	data, err := parse.EncodeJPEG(img)
	if err != nil {
		return endpoint.Descriptor{}, fmt.Errorf("upload: %w", err)
	}
	return m.imagga.Resolve(endpoint.Upload{Image: data})
}

// TagsForJPEG uploads JPEG bytes and fetches the tags for the resulting
// content id.
func (m *Manager) TagsForJPEG(ctx context.Context, jpeg []byte) ([]parse.Tag, error) {
	uploaded, err := m.imaggaCall(ctx, endpoint.Upload{Image: jpeg})
	if err != nil {
		return nil, fmt.Errorf("tags: upload: %w", err)
	}
	id, ok := parse.ContentID(uploaded)
	if !ok {
		return nil, fmt.Errorf("tags: %w", ErrNoContentID)
	}
	body, err := m.imaggaCall(ctx, endpoint.Tagging{ContentID: id})
	if err != nil {
		return nil, fmt.Errorf("tags for %s: %w", id, err)
	}
	tags, err := parse.TagResults(body)
	if err != nil {
		return nil, fmt.Errorf("tags for %s: %w", id, err)
	}
	return tags, nil
}

func (m *Manager) artsyGet(ctx context.Context, target endpoint.ArtsyTarget) ([]byte, error) {
	d, err := m.artsy.Resolve(target)
	if err != nil {
		return nil, err
	}
	return m.execute(ctx, d)
}

func (m *Manager) imaggaCall(ctx context.Context, target endpoint.ImaggaTarget) ([]byte, error) {
	d, err := m.imagga.Resolve(target)
	if err != nil {
		return nil, err
	}
	body, err := m.execute(ctx, d)
	if err != nil {
		return nil, err
	}
	if err := parse.ImaggaStatus(body); err != nil {
		return nil, err
	}
	return body, nil
}

func (m *Manager) execute(ctx context.Context, d endpoint.Descriptor) ([]byte, error) {
	if m.exec == nil {
		return nil, errors.New("manager has no executor")
	}
	resp, err := m.exec.Execute(ctx, d)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
