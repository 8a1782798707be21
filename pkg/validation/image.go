package validation

import "strings"

// ParseImageReference splits an image reference into repository and tag/digest.
// Supports formats:
//   - image:tag (default tag is "latest")
//   - image@sha256:... (digest)
//   - registry.example.com:5000/image:tag
//
// A colon only starts a tag when it appears after the last slash, so a
// registry port is never mistaken for a tag.
func ParseImageReference(imageRef string) (string, string) {
	if idx := strings.Index(imageRef, "@"); idx != -1 {
		return imageRef[:idx], imageRef[idx+1:]
	}

	lastSlash := strings.LastIndex(imageRef, "/")
	if idx := strings.LastIndex(imageRef, ":"); idx > lastSlash {
		return imageRef[:idx], imageRef[idx+1:]
	}

	return imageRef, "latest"
}

// NormalizeImageReference adds the implicit "latest" tag to untagged references.
func NormalizeImageReference(imageRef string) string {
	name, ref := ParseImageReference(imageRef)
	if strings.Contains(imageRef, "@") {
		return name + "@" + ref
	}
	return name + ":" + ref
}

// MatchImage reports whether ref is matched by pattern. A pattern without a
// tag or digest matches every tag of that repository; otherwise both sides
// are compared after normalization.
func MatchImage(pattern, ref string) bool {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return false
	}

	repo, _ := ParseImageReference(ref)
	if !strings.ContainsAny(pattern[strings.LastIndex(pattern, "/")+1:], ":@") {
		return pattern == repo
	}

	return NormalizeImageReference(pattern) == NormalizeImageReference(ref)
}
