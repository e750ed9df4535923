package endpoint

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/artlens/artlens/internal/validation"
)

// DefaultImaggaURL is the Imagga API root used when no override is configured.
const DefaultImaggaURL = "http://api.imagga.com/v1/"

// Multipart upload field layout expected by the Imagga content endpoint.
const (
	UploadFieldName   = "imagefile"
	UploadFileName    = "image.jpg"
	UploadContentType = "image/jpeg"
)

// ImaggaTarget is one logical Imagga operation. The set of implementations is
// closed: Upload and Tagging.
type ImaggaTarget interface {
	imaggaTarget()
}

// Upload posts JPEG bytes to the content endpoint.
type Upload struct {
	Image []byte
}

// Tagging fetches tags for previously uploaded content.
type Tagging struct {
	ContentID string
}

func (Upload) imaggaTarget()  {}
func (Tagging) imaggaTarget() {}

// Imagga resolves ImaggaTargets against a base URL.
type Imagga struct {
	base *url.URL
}

// NewImagga validates baseURL and returns a resolver rooted at it.
func NewImagga(baseURL string) (*Imagga, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultImaggaURL
	}
	base, err := validation.ValidateBaseURL(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: imagga base URL: %v", ErrInvalidRoute, err)
	}
	return &Imagga{base: base}, nil
}

// MustImagga is NewImagga for compile-time constant URLs. It panics on error.
func MustImagga(baseURL string) *Imagga {
	i, err := NewImagga(baseURL)
	if err != nil {
		panic(err)
	}
	return i
}

// BaseURL returns a copy of the resolver's root URL.
func (i *Imagga) BaseURL() *url.URL {
	u := *i.base
	return &u
}

// Resolve maps a target to its Descriptor.
func (i *Imagga) Resolve(target ImaggaTarget) (Descriptor, error) {
	switch t := target.(type) {
	case Upload:
		if len(t.Image) == 0 {
			return Descriptor{}, fmt.Errorf("%w: upload requires image data", ErrInvalidRoute)
		}
		body, contentType, err := multipartImage(t.Image)
		if err != nil {
			return Descriptor{}, err
		}
		return Descriptor{
			Service:     ServiceImagga,
			Method:      http.MethodPost,
			URL:         i.base.ResolveReference(&url.URL{Path: "content"}),
			Encoding:    EncodingMultipart,
			Body:        body,
			ContentType: contentType,
		}, nil
	case Tagging:
		if strings.TrimSpace(t.ContentID) == "" {
			return Descriptor{}, fmt.Errorf("%w: tagging requires a content id", ErrInvalidRoute)
		}
		return Descriptor{
			Service:  ServiceImagga,
			Method:   http.MethodGet,
			URL:      i.base.ResolveReference(&url.URL{Path: "tagging"}),
			Params:   url.Values{"content": {t.ContentID}},
			Encoding: EncodingQueryString,
		}, nil
	default:
		return Descriptor{}, fmt.Errorf("%w: unknown imagga target %T", ErrInvalidRoute, target)
	}
}

// multipartImage encodes data as the single imagefile part of a form.
func multipartImage(data []byte) ([]byte, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, UploadFieldName, UploadFileName))
	header.Set("Content-Type", UploadContentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file %s: %w", UploadFileName, err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("failed to write file content %s: %w", UploadFileName, err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return body.Bytes(), writer.FormDataContentType(), nil
}
