package scraper

import "github.com/PuerkitoBio/goquery"

// Matcher finds candidate elements under a root selection.
type Matcher func(root *goquery.Selection) *goquery.Selection

// CSS returns a Matcher for a single CSS selector.
func CSS(selector string) Matcher {
	return func(root *goquery.Selection) *goquery.Selection {
		return root.Find(selector)
	}
}

// CSSList turns selectors into matchers, keeping their order and indexes.
// Empty selectors become nil matchers, which Cascade skips.
func CSSList(selectors ...string) []Matcher {
	out := make([]Matcher, len(selectors))
	for i, s := range selectors {
		if s != "" {
			out[i] = CSS(s)
		}
	}
	return out
}

// Cascade tries matchers in order and returns the first non-empty match
// together with its index. Matchers after the first hit are not evaluated.
// When nothing matches it returns an empty selection and -1.
func Cascade(root *goquery.Selection, matchers ...Matcher) (*goquery.Selection, int) {
	for i, m := range matchers {
		if m == nil {
			continue
		}
		if found := m(root); found != nil && found.Length() > 0 {
			return found, i
		}
	}
	return root.Slice(0, 0), -1
}
