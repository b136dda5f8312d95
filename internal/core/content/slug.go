package content

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// Slug Generation
// =============================================================================

// MaxSlugLength bounds generated slugs.
const MaxSlugLength = 100

// FallbackSlug is used when a title yields no slug characters at all.
const FallbackSlug = "untitled"

// spaceClass is every Unicode space separator plus ASCII whitespace and the
// byte order mark. Go's \s alone is ASCII-only.
const spaceClass = `\s\v\p{Z}\x{FEFF}`

var (
	// Matches anything that is not a word character, whitespace or hyphen.
	disallowedChars = regexp.MustCompile(`[^\w` + spaceClass + `-]`)
	whitespaceRuns  = regexp.MustCompile(`[` + spaceClass + `]+`)
	hyphenRuns      = regexp.MustCompile(`-+`)
	slugPattern     = regexp.MustCompile(`^[a-z0-9-]+$`)

	// Generated slugs may also keep underscores, which count as word characters.
	storedSlugPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)
)

// GenerateSlug converts a title to a URL path segment.
//
// The transformation rules are:
//   - Lowercase and trim
//   - Decompose and drop combining marks ("é" → "e")
//   - Remove everything except ASCII word characters, whitespace and hyphens
//   - Collapse whitespace runs (including no-break and other Unicode spaces)
//     into one hyphen, then hyphen runs into one
//   - Trim leading/trailing hyphens and cap at MaxSlugLength
//
// This is a pure function with no uniqueness guarantee; see EnsureUniqueSlug.
//
// Example:
//
//	GenerateSlug("Café Résumé!") // returns "cafe-resume"
//	GenerateSlug("  a   b  ")    // returns "a-b"
func GenerateSlug(title string) string {
	s := strings.TrimSpace(strings.ToLower(title))
	s = stripDiacritics(s)
	s = disallowedChars.ReplaceAllString(s, "")
	s = whitespaceRuns.ReplaceAllString(s, "-")
	s = hyphenRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > MaxSlugLength {
		s = strings.TrimRight(s[:MaxSlugLength], "-")
	}
	return s
}

// SlugOrFallback returns GenerateSlug(title), or FallbackSlug when empty.
func SlugOrFallback(title string) string {
	if s := GenerateSlug(title); s != "" {
		return s
	}
	return FallbackSlug
}

// IsValidSlug reports whether slug is an acceptable caller-supplied slug.
func IsValidSlug(slug string) bool {
	return len(slug) <= 255 && slugPattern.MatchString(slug)
}

func isStorableSlug(slug string) bool {
	return len(slug) <= 255 && storedSlugPattern.MatchString(slug)
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
