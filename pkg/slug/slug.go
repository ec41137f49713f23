package slug

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize converts a display name into a lowercase, hyphenated, URL-safe
// token. Diacritics are stripped, apostrophes are dropped, runs of other
// non-alphanumeric characters collapse into a single hyphen, and
// leading/trailing hyphens are trimmed. Names that normalize to nothing
// yield a random fallback token so a slug is never empty.
func Normalize(name string) string {
	stripped := stripDiacritics(name)

	var b strings.Builder
	b.Grow(len(stripped))
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(stripped) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r == '\'', r == '’':
			// apostrophes join their word rather than split it
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	s := strings.TrimRight(b.String(), "-")
	if s == "" {
		return Fallback()
	}
	return s
}

// Fallback returns a short random token for names with no usable characters.
func Fallback() string {
	return "store-" + uuid.NewString()[:8]
}

// Pattern returns the case-insensitive POSIX pattern matching a base slug
// and its numbered variants (base, base-2, base-3, ...).
func Pattern(base string) string {
	return "^" + regexp.QuoteMeta(base) + "(-[0-9]+)?$"
}

// Next returns the slug to assign given how many existing slugs already
// match Pattern(base): zero matches keep the base, N matches append N+1.
func Next(base string, matches int) string {
	if matches == 0 {
		return base
	}
	return base + "-" + strconv.Itoa(matches+1)
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
