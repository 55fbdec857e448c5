// Package normalize canonicalizes user-supplied strings before they are
// stored or compared.
package normalize

import "strings"

// Email returns a normalized form of an email address suitable for
// storage and comparisons. Normalization trims surrounding whitespace
// and lower-cases the address.
func Email(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// Search collapses runs of whitespace in a free-text query. An all-blank
// query normalizes to "", which callers treat as "no text filter".
func Search(q string) string {
	return strings.Join(strings.Fields(q), " ")
}
