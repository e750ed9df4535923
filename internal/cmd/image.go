package cmd

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/artlens/artlens/internal/parse"
	"github.com/artlens/artlens/internal/validation"
)

type imageInfo struct {
	URL    string `json:"url"`
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	File   string `json:"file,omitempty"`
}

func newImageCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:     "image <image-link>",
		Aliases: []string{"img"},
		Short:   "Download and decode an artwork image",
		Long: strings.TrimSpace(`
Download an artwork image link (as listed by 'artworks') and report its
format and size. With --out the decoded image is written as PNG or JPEG,
chosen by the file extension.
`),
		Example: strings.TrimSpace(`
  artlens image https://d32dm0rphc51dk.cloudfront.net/abc/tall.jpg
  artlens image https://d32dm0rphc51dk.cloudfront.net/abc/tall.jpg --out warhol.png
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			link, err := validation.ValidateHyperlink(args[0])
			if err != nil {
				return fmt.Errorf("invalid image link: %w", err)
			}
			if out != "" {
				if _, err := encoderFor(out); err != nil {
					return err
				}
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			img, format, err := a.manager.ImageWithFormat(cmd.Context(), parse.Artwork{Title: link.String(), ImageURL: link})
			if err != nil {
				return err
			}
			bounds := img.Bounds()
			info := imageInfo{URL: link.String(), Format: format, Width: bounds.Dx(), Height: bounds.Dy()}

			if out != "" {
				if err := writeImage(out, img); err != nil {
					return err
				}
				info.File = out
			}

			f := newFormatter(cmd)
			if f.Structured() {
				return f.Output(info)
			}
			f.StartTable([]string{"FORMAT", "WIDTH", "HEIGHT", "FILE"})
			file := info.File
			if file == "" {
				file = "-"
			}
			f.Row(info.Format, fmt.Sprintf("%d", info.Width), fmt.Sprintf("%d", info.Height), file)
			return f.EndTable()
		}),
	}
	cmd.Flags().StringVarP(&out, "out", "O", "", "Write the image to this file (.png, .jpg or .jpeg)")
	return cmd
}

type imageEncoder func(img image.Image) ([]byte, error)

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encoderFor(path string) (imageEncoder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return encodePNG, nil
	case ".jpg", ".jpeg":
		return parse.EncodeJPEG, nil
	default:
		return nil, fmt.Errorf("--out must end in .png, .jpg or .jpeg, got %q", filepath.Base(path))
	}
}

// writeImage encodes img by extension and writes it via a temp file rename.
func writeImage(path string, img image.Image) error {
	encode, err := encoderFor(path)
	if err != nil {
		return err
	}
	data, err := encode(img)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
