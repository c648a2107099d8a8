package scraper

import (
	"strings"
	"unicode"
)

// DefaultCategory is assigned when no keyword rule matches.
const DefaultCategory = "General"

type categoryRule struct {
	category string
	keywords []string
}

// categoryRules are evaluated in order; the first rule with a matching
// keyword wins.
var categoryRules = []categoryRule{
	{"Health & Fitness", []string{"health", "weight", "fitness", "diet"}},
	{"Business & Investing", []string{"business", "money", "income", "marketing"}},
	{"Relationships", []string{"dating", "relationship", "love"}},
	{"Self-Help", []string{"mindset", "success", "motivation"}},
	{"Software & Technology", []string{"software", "app", "tool"}},
	{"Hobbies & Crafts", []string{"craft", "diy", "hobby"}},
}

// Categorize derives a category from a listing title. A keyword matches a
// word of the title that starts with it, case-insensitively, so "Dieting"
// matches "diet" but "Happy" does not match "app".
func Categorize(title string) string {
	words := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			for _, w := range words {
				if strings.HasPrefix(w, kw) {
					return rule.category
				}
			}
		}
	}
	return DefaultCategory
}
