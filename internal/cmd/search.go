package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/artlens/artlens/internal/parse"
	"github.com/artlens/artlens/internal/resolve"
)

func newSearchCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:     "search <term>",
		Aliases: []string{"s"},
		Short:   "Search Artsy for artists",
		Long:    "Search Artsy for artists whose name matches the term. Results carry the link used by 'artworks'.",
		Example: strings.TrimSpace(`
  artlens search warhol
  artlens search "frida kahlo" --json
  artlens search picasso -q '.items[].href'
`),
		Args: cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must be non-negative")
			}
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			results, err := a.manager.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if limit > 0 && len(results) > limit {
				results = results[:limit]
			}

			f := newFormatter(cmd)
			if f.Structured() {
				return f.Output(results)
			}
			if len(results) == 0 {
				f.Empty("No artists found")
				return nil
			}
			f.StartTable([]string{"#", "TITLE", "LINK"})
			for i, r := range results {
				f.Row(fmt.Sprintf("%d", i+1), r.Title, r.Href.String())
			}
			return f.EndTable()
		}),
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many results (0 = all)")
	return cmd
}

// pickArtist chooses one search result. A positive pick selects by 1-based
// position; otherwise the title closest to name wins.
func pickArtist(results []parse.SearchResult, name string, pick int) (parse.SearchResult, error) {
	if len(results) == 0 {
		return parse.SearchResult{}, &resolve.NoMatchError{Query: name}
	}
	if pick > 0 {
		if pick > len(results) {
			return parse.SearchResult{}, fmt.Errorf("--pick %d is out of range (1-%d)", pick, len(results))
		}
		return results[pick-1], nil
	}
	titles := make([]string, len(results))
	for i, r := range results {
		titles[i] = r.Title
	}
	idx, err := resolve.Pick(name, titles)
	if err != nil {
		return parse.SearchResult{}, err
	}
	return results[idx], nil
}
