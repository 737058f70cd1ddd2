package github

import (
	"regexp"
	"strconv"
	"strings"
)

// counterNoise strips thousands separators and expands the "k" suffix. Both "," and "." are
// treated as grouping, so "1.5k" becomes 15000: the site only ever shows integer counts and a
// decimal point cannot be told apart from a thousands separator.
var counterNoise = strings.NewReplacer(
	",", "",
	".", "",
	"k", "000",
)

// NormalizeCount turns a human readable counter ("1,234", "1.5k", " 42 ") into an integer.
// Anything that does not parse, or is negative, yields 0.
func NormalizeCount(text string) int {
	normalized := counterNoise.Replace(strings.TrimSpace(text))
	n, err := strconv.Atoi(normalized)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

var contributionsRegex = regexp.MustCompile(`(?i)(\d[\d,.]*)\s+contributions`)

var contributionsNoise = strings.NewReplacer(",", "", ".", "", "+", "")

// ParseContributions extracts the number in free text like "1,463 contributions in the last year".
func ParseContributions(text string) int {
	groups := contributionsRegex.FindStringSubmatch(text)
	if len(groups) < 2 {
		return 0
	}
	n, err := strconv.Atoi(contributionsNoise.Replace(groups[1]))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
