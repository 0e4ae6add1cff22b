// Package models defines the content types shared between the store, the
// HTTP modules and the seed loader.
package models

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

// ErrInvalid is wrapped by every Validate error.
var ErrInvalid = errors.New("invalid")

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidSlug reports whether s is a lowercase, hyphen-separated URL slug.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// Slugify derives a slug from a title: letters and digits are lowercased,
// every other run of characters becomes a single hyphen.
func Slugify(title string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			hyphen = false
		case b.Len() > 0 && !hyphen:
			b.WriteByte('-')
			hyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
