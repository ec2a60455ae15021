package shared

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases name, collapses every run of non-alphanumeric
// characters into a single hyphen and trims hyphens from both ends.
func Slugify(name string) string {
	lowered := cases.Lower(language.Und).String(strings.TrimSpace(name))
	return strings.Trim(slugSeparators.ReplaceAllString(lowered, "-"), "-")
}
