// Package assets embeds the default dictionary.
package assets

import (
	_ "embed"
	"strings"
)

//go:embed dictionary.txt
var dictionary string

// DictionaryList returns the embedded word list, lowercased, one entry per
// non-blank line. Lines starting with # are comments.
func DictionaryList() []string {
	lines := strings.Split(dictionary, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		out = append(out, strings.ToLower(l))
	}
	return out
}
