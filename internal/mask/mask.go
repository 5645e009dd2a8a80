// Package mask provides partial redaction of secret strings for logging
// and display. Masked values keep just enough of the original for a human
// to recognize which credential they are looking at, never enough to use.
package mask

import "strings"

// Secret masks a credential for safe logging or display.
//
// Short values (8 chars or fewer) keep the first and last character;
// longer values keep the first two and last two. Everything in between
// becomes '*'. The empty string stays empty.
//
// For any value longer than 4 characters the result always differs from
// the input and contains at least one '*'.
func Secret(value string) string {
	if value == "" {
		return ""
	}

	n := len(value)
	if n <= 8 {
		if n <= 2 {
			return strings.Repeat("*", n)
		}
		return value[:1] + strings.Repeat("*", n-2) + value[n-1:]
	}

	return value[:2] + strings.Repeat("*", n-4) + value[n-2:]
}
