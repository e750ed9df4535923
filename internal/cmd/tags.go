package cmd

import (
	"context"
	"fmt"
	"image"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/artlens/artlens/internal/dryrun"
	"github.com/artlens/artlens/internal/iocontext"
	"github.com/artlens/artlens/internal/manager"
	"github.com/artlens/artlens/internal/parse"
	"github.com/artlens/artlens/internal/validation"
)

func newTagsCmd() *cobra.Command {
	var (
		limit         int
		minConfidence float64
		dryRun        bool
	)
	cmd := &cobra.Command{
		Use:     "tags <file|image-link>",
		Aliases: []string{"t"},
		Short:   "Tag an image with Imagga",
		Long: strings.TrimSpace(`
Upload an image to Imagga and print the tags it assigns.

The argument is a local file or an artwork image link. Any JPEG, PNG, GIF or
WebP is decoded and re-encoded as JPEG before upload.
`),
		Example: strings.TrimSpace(`
  artlens tags ./painting.png
  artlens tags https://d32dm0rphc51dk.cloudfront.net/abc/tall.jpg --min-confidence 30
  artlens tags ./painting.png -o jsonl
  artlens tags ./painting.png --dry-run
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must be non-negative")
			}
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			img, err := loadImage(cmd.Context(), a.manager, args[0])
			if err != nil {
				return err
			}
			if dryRun {
				return previewUpload(cmd, a.manager, img)
			}
			tags, err := a.manager.Tags(cmd.Context(), img)
			if err != nil {
				return err
			}
			tags = filterTags(tags, minConfidence, limit)
			return writeTags(cmd, tags)
		}),
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many tags (0 = all)")
	cmd.Flags().Float64Var(&minConfidence, "min-confidence", 0, "Drop tags below this confidence (0-100)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the upload request without sending it")
	return cmd
}

// loadImage decodes a local file, or downloads an http(s) link.
func loadImage(ctx context.Context, m *manager.Manager, source string) (image.Image, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		link, err := validation.ValidateHyperlink(source)
		if err != nil {
			return nil, fmt.Errorf("invalid image link: %w", err)
		}
		return m.Image(ctx, parse.Artwork{Title: link.String(), ImageURL: link})
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, err
	}
	img, _, err := parse.Image(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return img, nil
}

// previewUpload prints the upload request Tags would send.
func previewUpload(cmd *cobra.Command, m *manager.Manager, img image.Image) error {
	d, err := m.UploadRequest(img)
	if err != nil {
		return err
	}
	preview := dryrun.FromDescriptor(d)
	bounds := img.Bounds()
	preview.Details["image"] = fmt.Sprintf("%dx%d", bounds.Dx(), bounds.Dy())
	if isJSON(cmd) {
		return printJSON(cmd, preview)
	}
	preview.Write(iocontext.GetIO(cmd.Context()).Out)
	return nil
}

// filterTags keeps tags at or above minConfidence, highest first, capped at limit.
func filterTags(tags []parse.Tag, minConfidence float64, limit int) []parse.Tag {
	kept := make([]parse.Tag, 0, len(tags))
	for _, t := range tags {
		if t.Confidence >= minConfidence {
			kept = append(kept, t)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Confidence > kept[j].Confidence })
	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}

func writeTags(cmd *cobra.Command, tags []parse.Tag) error {
	f := newFormatter(cmd)
	if f.Structured() {
		return f.Output(tags)
	}
	if len(tags) == 0 {
		f.Empty("No tags returned")
		return nil
	}
	f.StartTable([]string{"TAG", "CONFIDENCE"})
	for _, t := range tags {
		f.Row(t.Title, fmt.Sprintf("%.2f", t.Confidence))
	}
	return f.EndTable()
}
