// Package utils provides utility functions and helpers for common operations
// used throughout the application: string helpers, structured errors, response
// writers, validation and logging.
package utils

import (
	"fmt"
	"strings"
)

// TruncateString truncates a string to the given maximum length and adds an ellipsis if necessary.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// Plural returns a string with the number and the plural form of the word if necessary.
func Plural(count int, word string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, word)
	}
	return fmt.Sprintf("%d %ss", count, word)
}

// HasPrefixFold reports whether s begins with prefix, ignoring case and
// leading whitespace.
func HasPrefixFold(s, prefix string) bool {
	s = strings.TrimLeft(s, " \t\r\n(")
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
