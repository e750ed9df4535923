package parse

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// JPEGQuality is the quality used when re-encoding images for upload.
const JPEGQuality = 50

// Image decodes image bytes with any registered decoder (JPEG, PNG, GIF,
// WebP) and returns the format name.
func Image(body []byte) (image.Image, string, error) {
	if len(body) == 0 {
		return nil, "", &DecodeError{Size: 0, Err: errors.New("empty body")}
	}
	img, format, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, "", &DecodeError{Size: len(body), Err: err}
	}
	return img, format, nil
}

// EncodeJPEG encodes img at JPEGQuality.
func EncodeJPEG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, errors.New("encode jpeg: nil image")
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
