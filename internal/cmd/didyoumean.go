package cmd

import "strings"

// suggestionThreshold is the largest edit distance still offered as a suggestion.
const suggestionThreshold = 3

// levenshtein computes the edit distance between a and b using a single
// rolling row.
func levenshtein(a, b string) int {
	if a == "" {
		return len(b)
	}
	if b == "" {
		return len(a)
	}
	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(a); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			next := min(row[j]+1, row[j-1]+1, diag+cost)
			diag = row[j]
			row[j] = next
		}
	}
	return row[len(b)]
}

// closest returns the candidate nearest to input after normalizing both with
// norm, or "" when nothing is within suggestionThreshold.
func closest(input string, candidates []string, norm func(string) string) string {
	input = norm(input)
	if input == "" {
		return ""
	}
	best, bestDist := "", suggestionThreshold+1
	for _, c := range candidates {
		if d := levenshtein(input, norm(c)); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// suggestCommand finds the closest command name to the unknown input.
func suggestCommand(unknown string, commands []string) string {
	return closest(unknown, commands, strings.ToLower)
}

// suggestFlag finds the closest flag to the unknown input, ignoring leading
// dashes when comparing but returning the match as registered.
func suggestFlag(unknown string, flags []string) string {
	return closest(unknown, flags, func(s string) string {
		return strings.ToLower(strings.TrimLeft(s, "-"))
	})
}
