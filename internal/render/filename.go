package render

import (
	"fmt"
	"time"
)

// SanitizeTitle replaces every rune that is not alphanumeric, '-' or '_'
// with an underscore so the result is safe as an object-store path segment.
func SanitizeTitle(title string) string {
	out := make([]rune, 0, len(title))
	for _, r := range title {
		if isAlphanumeric(r) || r == '-' || r == '_' {
			out = append(out, r)
		} else {
			out = append(out, '_')
		}
	}
	return string(out)
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// fileName derives `{sanitizedTitle}_{YYYYMMDD_HHMMSS}.{ext}`. Two renders of
// the same title within the same second collide; callers accept that narrow
// race because object paths still differ per document.
func fileName(title string, now time.Time, extension string) string {
	return fmt.Sprintf("%s_%s.%s", SanitizeTitle(title), now.UTC().Format("20060102_150405"), extension)
}
