// Package textutil has small text-formatting helpers used only by the
// command-line layer (not the join engines themselves).
package textutil

import "strings"

// Indent prefixes every line of s with prefix.
func Indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
