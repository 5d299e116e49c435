package store

import "strings"

// maxSlugLen bounds filename length; long titles get truncated, not rejected.
const maxSlugLen = 60

// slugFallback names files whose record has no usable title.
const slugFallback = "untitled"

// Slugify reduces a job title to a filesystem-safe slug: lowercase
// alphanumerics and single hyphens, at most maxSlugLen characters.
// Slugify is idempotent and never returns an empty string.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLen {
		slug = strings.Trim(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		return slugFallback
	}
	return slug
}
