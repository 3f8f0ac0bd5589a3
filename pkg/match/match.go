// Package match implements the name matching rules used everywhere a user
// refers to something by name: case-insensitive prefix matching against a
// whole name or any of its words, with exact matches taking precedence.
package match

import "strings"

// Name reports whether short is a case-insensitive prefix of full, or of
// any whitespace-separated word of full.
func Name(short, full string) bool {
	if short == "" {
		return true
	}
	s := strings.ToLower(short)
	for _, word := range strings.Fields(full) {
		if strings.HasPrefix(strings.ToLower(word), s) {
			return true
		}
	}
	return strings.HasPrefix(strings.ToLower(full), s)
}

// List returns the indexes of candidate names matching short. An exact
// (case-insensitive) equality wins outright: the user could not have been
// more specific, so only the first exact match is returned. Otherwise all
// prefix matches are returned.
func List(short string, names []string) []int {
	for i, n := range names {
		if strings.EqualFold(n, short) {
			return []int{i}
		}
	}
	var out []int
	for i, n := range names {
		if Name(short, n) {
			out = append(out, i)
		}
	}
	return out
}

// MultipleChoice formats the disambiguation prompt for an ambiguous match.
func MultipleChoice(names []string) string {
	return "Which one?\nChoices are: " + strings.Join(names, ", ")
}
