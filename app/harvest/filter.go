package harvest

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// builtinBanTerms is always applied, regardless of the operator list.
var builtinBanTerms = []string{
	"sponsored",
	"advertorial",
	"advertisement",
	"giveaway",
	"casino",
	"betting",
}

type Filter struct{}

func NewFilter() *Filter {
	return &Filter{}
}

// Blocked reports whether any ban term (built-in list plus the given operator
// terms) occurs, caselessly, in the entry's title, summary or link. Unicode
// case folding, so non-ASCII terms match too.
func (f *Filter) Blocked(entry FeedEntry, terms []string) (bool, string) {
	fold := cases.Fold()
	haystack := fold.String(entry.Title + " " + entry.Summary + " " + entry.Link)

	for _, term := range builtinBanTerms {
		if strings.Contains(haystack, term) {
			return true, fmt.Sprintf("contains built-in banned term '%s'", term)
		}
	}

	for _, term := range terms {
		term = fold.String(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if strings.Contains(haystack, term) {
			return true, fmt.Sprintf("contains banned term '%s'", term)
		}
	}

	return false, ""
}
