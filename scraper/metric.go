package scraper

import (
	"regexp"
	"strconv"
	"strings"
)

// metricRegexp captures the first signed decimal number.
var metricRegexp = regexp.MustCompile(`[-+]?\d+(?:\.\d+)?`)

// ParseMetric extracts the first numeric token from mixed text such as
// "Grav: 42.5 (+3.1)". Commas are treated as thousands separators and
// dropped; only '.' is a decimal point. Anything after the first number is
// ignored.
func ParseMetric(raw string) (float64, bool) {
	match := metricRegexp.FindString(strings.ReplaceAll(raw, ",", ""))
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseRank reads a positive ordinal such as "#12" or "12.".
func ParseRank(raw string) (int, bool) {
	v, ok := ParseMetric(strings.TrimLeft(strings.TrimSpace(raw), "#"))
	if !ok || v < 1 || v != float64(int(v)) {
		return 0, false
	}
	return int(v), true
}
