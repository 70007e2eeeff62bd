package geocode

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var floatZipRe = regexp.MustCompile(`^(\d+)\.0+$`)

// BuildQuery formats a city-level query: "City, ST 12345".
// Identical inputs always produce identical output, so the query doubles
// as the cache key. Street addresses are deliberately excluded.
func BuildQuery(city, state, postalCode string) string {
	city = titleCase(collapseSpaces(city))
	state = strings.ToUpper(collapseSpaces(state))
	postalCode = normalizePostal(postalCode)

	tail := strings.TrimSpace(state + " " + postalCode)
	switch {
	case city != "" && tail != "":
		return city + ", " + tail
	case city != "":
		return city
	default:
		return tail
	}
}

// normalizePostal strips the ".0" spreadsheets append to numeric ZIPs.
func normalizePostal(s string) string {
	s = collapseSpaces(s)
	if m := floatZipRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// titleCase converts "WEST JORDAN" to "West Jordan".
func titleCase(s string) string {
	if s == "" {
		return ""
	}
	return cases.Title(language.AmericanEnglish).String(strings.ToLower(s))
}
