package slug

import "strings"

// Make converts a display name into a URL-safe identifier: lowercase ASCII
// alphanumerics separated by single hyphens. Runs of any other characters
// collapse into one hyphen; leading and trailing hyphens are dropped.
func Make(name string) string {
	var b strings.Builder
	pendingHyphen := false

	for _, r := range strings.ToLower(name) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			if b.Len() > 0 {
				pendingHyphen = true
			}
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteRune(r)
	}

	return b.String()
}
