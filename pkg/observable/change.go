package observable

import "strings"

// ChangeType is the kind of mutation a Change describes.
type ChangeType string

const (
	// Insert adds a map key or an array element.
	Insert ChangeType = "insert"
	// Update replaces an existing map value or array element.
	Update ChangeType = "update"
	// Delete removes a map key or an array element.
	Delete ChangeType = "delete"
	// Reverse reverses an array in place. Path is the array's path.
	Reverse ChangeType = "reverse"
	// Shuffle reorders an array in place (Sort). Path is the array's path.
	Shuffle ChangeType = "shuffle"
)

// Path addresses a node in an observed tree. Array indices are stored as
// decimal strings.
type Path []string

// ParsePath splits a dot-separated path. Empty segments are dropped, so ""
// is the root.
func ParsePath(s string) Path {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ".")
	out := make(Path, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// String joins the path with dots.
func (p Path) String() string {
	return strings.Join(p, ".")
}

// HasPrefix reports whether p starts with prefix, segment by segment.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Key returns the last segment, or "" for the root.
func (p Path) Key() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

func (p Path) join(more Path) Path {
	out := make(Path, 0, len(p)+len(more))
	out = append(out, p...)
	return append(out, more...)
}

// Change records a single mutation.
type Change struct {
	Type ChangeType
	Path Path

	// Value is a copy of the new value (Insert, Update).
	Value any

	// OldValue is the detached previous value (Update, Delete).
	OldValue any
}

// relativeTo returns c with its path trimmed by prefix.
func (c Change) relativeTo(prefix Path) Change {
	if len(prefix) == 0 {
		return c
	}
	c.Path = append(Path(nil), c.Path[len(prefix):]...)
	return c
}
