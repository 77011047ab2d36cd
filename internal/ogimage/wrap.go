package ogimage

import (
	"strings"
	"unicode/utf8"
)

// DefaultLineBudget is the number of characters a card line may hold.
const DefaultLineBudget = 50

// WrapLines greedily packs words into lines of at most budget runes. A word
// longer than budget is placed alone on its own line.
func WrapLines(text string, budget int) []string {
	if budget <= 0 {
		budget = DefaultLineBudget
	}
	var (
		lines   []string
		current string
		width   int
	)
	for _, word := range strings.Fields(text) {
		n := utf8.RuneCountInString(word)
		if current == "" {
			current, width = word, n
			continue
		}
		if width+1+n > budget {
			lines = append(lines, current)
			current, width = word, n
			continue
		}
		current += " " + word
		width += 1 + n
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}
