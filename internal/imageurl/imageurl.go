// Package imageurl rewrites stored dish image references into URLs served
// by the current backend.
package imageurl

import "strings"

// Placeholder is returned when a dish has no image at all.
const Placeholder = "/placeholder-dish.jpg"

const uploadsPrefix = "/uploads/"

// Normalize qualifies ref against base. Upload paths recorded under an older
// backend host are re-pointed at base; external URLs pass through.
func Normalize(ref, base string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Placeholder
	}
	base = strings.TrimRight(base, "/")

	if base != "" && hasBase(ref, base) {
		return ref
	}
	if strings.HasPrefix(ref, uploadsPrefix) {
		return base + ref
	}
	if i := strings.Index(ref, uploadsPrefix); i > 0 {
		return base + ref[i:]
	}
	return ref
}

// IsPlaceholder reports whether s is the missing-image sentinel.
func IsPlaceholder(s string) bool {
	return s == Placeholder
}

// hasBase matches base only on a path boundary so that
// "http://h:3000" does not claim "http://h:30001/...".
func hasBase(ref, base string) bool {
	if !strings.HasPrefix(ref, base) {
		return false
	}
	rest := ref[len(base):]
	return rest == "" || rest[0] == '/' || rest[0] == '?'
}
