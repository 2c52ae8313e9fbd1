package services

import (
	"fmt"
	"regexp"
	"strings"

	gslug "github.com/gosimple/slug"
)

// deriveSlug normalizes name into a URL-safe lowercase hyphenated base and
// picks a suffix that does not collide with existing slugs. existing is the
// candidate set returned by the repository for the base ("base" itself or
// "base-<anything>"); only exact matches of base(-[0-9]+)? count toward the
// suffix. With N existing matches the result is "base-(N+1)", so creating
// "Café Blue" twice yields "cafe-blue" then "cafe-blue-2".
func deriveSlug(name string, existing []string) string {
	base := slugBase(name)
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(base) + `(-[0-9]+)?$`)

	n := 0
	for _, s := range existing {
		if re.MatchString(strings.ToLower(s)) {
			n++
		}
	}
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n+1)
}

// slugBase is the transliterated, lowercase, hyphenated form of a display
// name, before any uniqueness suffix.
func slugBase(name string) string {
	return gslug.Make(name)
}
