package scraper

import (
	"errors"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"offer-harvester/models"
)

var (
	errEmptyText    = errors.New("element has no text")
	errMissingAttr  = errors.New("element has no such attribute")
	errNotAvailable = errors.New("value not available")
)

// Field is the outcome of reading one field: a value, or the reason it
// could not be read.
type Field struct {
	Name  string
	Value string
	Err   error
}

// OK reports whether the field was read.
func (f Field) OK() bool {
	return f.Err == nil && f.Value != ""
}

// Or returns the value, or def when the field could not be read.
func (f Field) Or(def string) string {
	if !f.OK() {
		return def
	}
	return f.Value
}

// Value builds a Field from an already known string; empty or N/A values
// count as missing.
func Value(name, v string) Field {
	v = NormaliseText(v)
	if v == "" || v == models.NA {
		return missing(name, errNotAvailable)
	}
	return Field{Name: name, Value: v}
}

// TextField reads the text of the first element matched by the cascade.
func TextField(name string, root *goquery.Selection, matchers ...Matcher) Field {
	sel, idx := Cascade(root, matchers...)
	if idx < 0 {
		return missing(name, models.ErrNoCandidateMatched)
	}
	text := NormaliseText(sel.First().Text())
	if text == "" {
		return missing(name, errEmptyText)
	}
	return Field{Name: name, Value: text}
}

// AttrField reads an attribute of the first element matched by the cascade.
func AttrField(name, attr string, root *goquery.Selection, matchers ...Matcher) Field {
	sel, idx := Cascade(root, matchers...)
	if idx < 0 {
		return missing(name, models.ErrNoCandidateMatched)
	}
	v, ok := sel.First().Attr(attr)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return missing(name, errMissingAttr)
	}
	return Field{Name: name, Value: v}
}

// FirstTextLine returns the first line of root's text that is at least
// minLen characters long and is not just a number or price.
func FirstTextLine(name string, root *goquery.Selection, minLen int) Field {
	for _, line := range strings.Split(root.Text(), "\n") {
		line = NormaliseText(line)
		if len([]rune(line)) < minLen || isNumericLike(line) {
			continue
		}
		return Field{Name: name, Value: line}
	}
	return missing(name, errEmptyText)
}

// FieldErrors collects the extraction errors of fields that failed.
func FieldErrors(fields ...Field) []error {
	var errs []error
	for _, f := range fields {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errs
}

// NormaliseText strips leading/trailing whitespace and collapses internal whitespace.
func NormaliseText(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

func missing(name string, err error) Field {
	return Field{Name: name, Err: &models.FieldExtractionError{Field: name, Err: err}}
}

var numericNoise = strings.NewReplacer("R$", "", "$", "", "%", "", ",", "", ".", "", " ", "")

// isNumericLike reports whether s is only a number, price or percentage.
func isNumericLike(s string) bool {
	s = numericNoise.Replace(s)
	if s == "" {
		return true
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
