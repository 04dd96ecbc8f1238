package rdapnorm

import "strings"

// JoinPath renders a field path in dotted form ("entities.0.contact.name")
// for error messages and diagnostics.
func JoinPath(path []string) string {
	return strings.Join(path, ".")
}

// PathHasSegment reports whether any segment of path equals seg.
func PathHasSegment(path []string, seg string) bool {
	for _, p := range path {
		if p == seg {
			return true
		}
	}
	return false
}
