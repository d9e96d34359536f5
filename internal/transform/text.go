package transform

import "strings"

// NormalizeWhitespace collapses all runs of whitespace into single spaces
// and trims the result. Words are preserved exactly.
func NormalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// CountWords returns the number of whitespace-delimited words in text
func CountWords(text string) int {
	return len(strings.Fields(text))
}
