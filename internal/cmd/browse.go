package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/artlens/artlens/internal/parse"
)

const defaultBrowseConcurrency = 4

type browseItem struct {
	Artwork parse.Artwork
	File    string
	Tags    []parse.Tag
}

// MarshalJSON flattens the artwork next to the download fields.
func (b browseItem) MarshalJSON() ([]byte, error) {
	imageURL := ""
	if b.Artwork.ImageURL != nil {
		imageURL = b.Artwork.ImageURL.String()
	}
	return json.Marshal(struct {
		Title    string      `json:"title"`
		Medium   string      `json:"medium"`
		ImageURL string      `json:"image_url"`
		File     string      `json:"file,omitempty"`
		Tags     []parse.Tag `json:"tags,omitempty"`
	}{b.Artwork.Title, b.Artwork.Medium, imageURL, b.File, b.Tags})
}

type browseResult struct {
	Artist   parse.SearchResult `json:"artist"`
	Artworks []browseItem       `json:"artworks"`
}

func newBrowseCmd() *cobra.Command {
	var (
		pick        int
		limit       int
		downloadDir string
		withTags    bool
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "browse <artist>",
		Short: "Search, pick an artist and walk their artworks",
		Long: strings.TrimSpace(`
Run the whole chain in one go: search for the artist, pick the closest
match, list the artworks and optionally download each image and tag it.

Downloads and tagging run in parallel, bounded by --concurrency.
`),
		Example: strings.TrimSpace(`
  artlens browse warhol --limit 5
  artlens browse "frida kahlo" --download ./kahlo --tags
  artlens browse picasso --pick 2 --tags --json
`),
		Args: cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if concurrency < 1 {
				return fmt.Errorf("--concurrency must be at least 1")
			}
			if limit < 0 {
				return fmt.Errorf("--limit must be non-negative")
			}
			name := strings.Join(args, " ")

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			results, err := a.manager.Search(cmd.Context(), name)
			if err != nil {
				return err
			}
			artist, err := pickArtist(results, name, pick)
			if err != nil {
				return err
			}
			printIfNotQuiet(cmd, "Artist: %s\n", artist.Title)

			artworks, err := a.manager.Artworks(cmd.Context(), artist)
			if err != nil {
				return err
			}
			if limit > 0 && len(artworks) > limit {
				artworks = artworks[:limit]
			}

			items := make([]browseItem, len(artworks))
			for i, aw := range artworks {
				items[i].Artwork = aw
			}

			if downloadDir != "" || withTags {
				sem := semaphore.NewWeighted(int64(concurrency))
				g, ctx := errgroup.WithContext(cmd.Context())
				for i := range items {
					i := i
					item := &items[i]
					if item.Artwork.ImageURL == nil {
						slog.Debug("artwork has no image", "title", item.Artwork.Title)
						continue
					}
					g.Go(func() error {
						if err := sem.Acquire(ctx, 1); err != nil {
							return err
						}
						defer sem.Release(1)

						img, err := a.manager.Image(ctx, item.Artwork)
						if err != nil {
							return err
						}
						if downloadDir != "" {
							path := filepath.Join(downloadDir, artworkFilename(i, item.Artwork.Title))
							if err := writeImage(path, img); err != nil {
								return err
							}
							item.File = path
						}
						if withTags {
							tags, err := a.manager.Tags(ctx, img)
							if err != nil {
								return err
							}
							item.Tags = tags
						}
						return nil
					})
				}
				if err := g.Wait(); err != nil {
					return err
				}
			}

			result := browseResult{Artist: artist, Artworks: items}
			f := newFormatter(cmd)
			if f.Structured() {
				return f.Output(result)
			}
			if len(items) == 0 {
				f.Empty("No artworks found")
				return nil
			}
			f.StartTable([]string{"TITLE", "MEDIUM", "FILE", "TAGS"})
			for _, item := range items {
				f.Row(item.Artwork.Title, orDash(item.Artwork.Medium), orDash(item.File), orDash(topTags(item.Tags, 3)))
			}
			return f.EndTable()
		}),
	}
	cmd.Flags().IntVar(&pick, "pick", 0, "Use the Nth search result instead of the best match")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Process at most this many artworks (0 = all)")
	cmd.Flags().StringVarP(&downloadDir, "download", "d", "", "Save each artwork image into this directory")
	cmd.Flags().BoolVar(&withTags, "tags", false, "Tag each artwork image with Imagga")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", defaultBrowseConcurrency, "Parallel image downloads")
	return cmd
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// artworkFilename returns "NN-slug.jpg", keeping names unique by position.
func artworkFilename(index int, title string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if len(slug) > 60 {
		slug = strings.TrimRight(slug[:60], "-")
	}
	if slug == "" {
		slug = "artwork"
	}
	return fmt.Sprintf("%02d-%s.jpg", index+1, slug)
}

func topTags(tags []parse.Tag, n int) string {
	sorted := filterTags(tags, 0, n)
	names := make([]string, len(sorted))
	for i, t := range sorted {
		names[i] = t.Title
	}
	return strings.Join(names, ", ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
