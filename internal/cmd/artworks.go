package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/artlens/artlens/internal/parse"
	"github.com/artlens/artlens/internal/validation"
)

func newArtworksCmd() *cobra.Command {
	var (
		artist string
		pick   int
	)
	cmd := &cobra.Command{
		Use:     "artworks [artist-link]",
		Aliases: []string{"aw"},
		Short:   "List an artist's artworks",
		Long: strings.TrimSpace(`
List the artworks of one artist.

Pass the artist link printed by 'search', or use --artist to search and pick
the closest match in one step.
`),
		Example: strings.TrimSpace(`
  artlens artworks https://api.artsy.net/api/artists/4d8b92b34eb68a1b2c0003f4
  artlens artworks --artist "andy warhol"
  artlens artworks --artist picasso --pick 2 --json
`),
		Args: cobra.MaximumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == (artist != "") {
				return fmt.Errorf("exactly one of an artist link or --artist is required")
			}
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			var result parse.SearchResult
			if len(args) == 1 {
				href, err := validation.ValidateHyperlink(args[0])
				if err != nil {
					return fmt.Errorf("invalid artist link: %w", err)
				}
				result = parse.SearchResult{Title: href.String(), Href: href}
			} else {
				results, err := a.manager.Search(cmd.Context(), artist)
				if err != nil {
					return err
				}
				if result, err = pickArtist(results, artist, pick); err != nil {
					return err
				}
				printIfNotQuiet(cmd, "Artist: %s\n", result.Title)
			}

			artworks, err := a.manager.Artworks(cmd.Context(), result)
			if err != nil {
				return err
			}
			return writeArtworks(cmd, artworks)
		}),
	}
	cmd.Flags().StringVarP(&artist, "artist", "a", "", "Search for this artist and use the best match")
	cmd.Flags().IntVar(&pick, "pick", 0, "With --artist, use the Nth search result instead of the best match")
	return cmd
}

func writeArtworks(cmd *cobra.Command, artworks []parse.Artwork) error {
	f := newFormatter(cmd)
	if f.Structured() {
		return f.Output(artworks)
	}
	if len(artworks) == 0 {
		f.Empty("No artworks found")
		return nil
	}
	f.StartTable([]string{"TITLE", "MEDIUM", "IMAGE"})
	for _, aw := range artworks {
		medium := aw.Medium
		if medium == "" {
			medium = "-"
		}
		image := "-"
		if aw.ImageURL != nil {
			image = aw.ImageURL.String()
		}
		f.Row(aw.Title, medium, image)
	}
	return f.EndTable()
}
