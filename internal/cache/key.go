package cache

import "strings"

// Key identifies one cached resource-and-parameters pair as an ordered
// tuple of path segments, e.g. {"notifications", "64f1..."}.
type Key []string

// NewKey builds a key from ordered segments.
func NewKey(parts ...string) Key {
	return Key(parts)
}

// String returns the canonical flattened form used for map lookups.
// Separator characters inside a segment are escaped so {"a/b"} and
// {"a","b"} stay distinct; parameter segments carry arbitrary ids and
// emails.
func (k Key) String() string {
	parts := make([]string, len(k))
	for i, seg := range k {
		parts[i] = escapeSegment(seg)
	}
	return strings.Join(parts, "/")
}

func escapeSegment(seg string) string {
	if !strings.ContainsAny(seg, `/\`) {
		return seg
	}
	seg = strings.ReplaceAll(seg, `\`, `\\`)
	return strings.ReplaceAll(seg, "/", `\/`)
}

// HasPrefix reports whether k starts with all segments of prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i, p := range prefix {
		if k[i] != p {
			return false
		}
	}
	return true
}

// Equal reports segment-wise equality.
func (k Key) Equal(other Key) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if k[i] != other[i] {
			return false
		}
	}
	return true
}
