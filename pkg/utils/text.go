// Package utils provides shared utilities for text and logging.
package utils

import "strings"

// Truncate returns s truncated to maxLen characters, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// NormalizeDescription returns the canonical form of a material description
// used for duplicate detection: trimmed, inner whitespace collapsed to single
// spaces, lower-cased.
func NormalizeDescription(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
