package services

import (
	"strings"
	"unicode"
)

// slugify lowercases the input and collapses every run of non-alphanumeric
// characters into a single hyphen.
func slugify(value string) string {
	var b strings.Builder
	lastHyphen := true

	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}

// baseSlugFor builds the starting slug for a profile from its names, falling
// back to a generic value when both names slugify to nothing.
func baseSlugFor(firstName, lastName string) string {
	slug := slugify(firstName + " " + lastName)
	if slug == "" {
		return "user"
	}
	return slug
}
