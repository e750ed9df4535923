// Package resolve picks one search result by title using fuzzy matching.
package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Match is a ranked candidate. Index points into the titles passed in.
type Match struct {
	Index int
	Title string
	Score int
}

var (
	ErrEmptyQuery   = errors.New("empty search query")
	ErrNoCandidates = errors.New("no results to match against")
)

// maxCandidates caps the list carried by AmbiguousError.
const maxCandidates = 5

// NoMatchError reports a query that matched no title.
type NoMatchError struct {
	Query string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no result matches %q", e.Query)
}

// AmbiguousError indicates the two best candidates scored the same.
type AmbiguousError struct {
	Query   string
	Matches []Match
}

func (e *AmbiguousError) Error() string {
	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "ambiguous match for %q", e.Query)
	if len(e.Matches) > 0 {
		b.WriteString(", candidates:")
		for _, m := range e.Matches {
			_, _ = fmt.Fprintf(&b, "\n  %d: %s", m.Index+1, m.Title)
		}
	}
	return b.String()
}

type lowerTitles []string

func (s lowerTitles) String(i int) string { return strings.ToLower(s[i]) }
func (s lowerTitles) Len() int            { return len(s) }

// Pick returns the index of the title that best matches query.
//
// An exact case-insensitive title wins outright. Otherwise the best fuzzy
// match wins, and a tie for first place is an *AmbiguousError.
func Pick(query string, titles []string) (int, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, ErrEmptyQuery
	}
	if len(titles) == 0 {
		return 0, ErrNoCandidates
	}

	for i, title := range titles {
		if strings.EqualFold(strings.TrimSpace(title), query) {
			return i, nil
		}
	}

	results := fuzzy.FindFrom(strings.ToLower(query), lowerTitles(titles))
	if len(results) == 0 {
		return 0, &NoMatchError{Query: query}
	}
	if len(results) > 1 && results[0].Score == results[1].Score {
		return 0, &AmbiguousError{Query: query, Matches: toMatches(titles, results, maxCandidates)}
	}
	return results[0].Index, nil
}

// Rank returns up to limit matches, best first.
func Rank(query string, titles []string, limit int) []Match {
	query = strings.TrimSpace(query)
	if query == "" || len(titles) == 0 || limit <= 0 {
		return nil
	}
	return toMatches(titles, fuzzy.FindFrom(strings.ToLower(query), lowerTitles(titles)), limit)
}

func toMatches(titles []string, results fuzzy.Matches, limit int) []Match {
	if len(results) == 0 {
		return nil
	}
	if len(results) > limit {
		results = results[:limit]
	}
	matches := make([]Match, len(results))
	for i, r := range results {
		matches[i] = Match{Index: r.Index, Title: titles[r.Index], Score: r.Score}
	}
	return matches
}
