package prompt

import (
	"fmt"
	"strings"
)

// Step is one segment of a field path: either an object key or an array
// index.
type Step struct {
	Key   string
	Index int
	IsKey bool
}

func KeyStep(key string) Step { return Step{Key: key, IsKey: true} }
func IndexStep(i int) Step    { return Step{Index: i} }

// FieldPath addresses one node in a document, e.g. messages[1].text.
// An empty path addresses the document root.
type FieldPath []Step

// String renders the path in dotted form with bracketed indices. The root
// renders as "$".
func (p FieldPath) String() string {
	if len(p) == 0 {
		return "$"
	}
	var sb strings.Builder
	for i, s := range p {
		if s.IsKey {
			if i > 0 {
				sb.WriteByte('.')
			}
			sb.WriteString(s.Key)
		} else {
			fmt.Fprintf(&sb, "[%d]", s.Index)
		}
	}
	return sb.String()
}

func (p FieldPath) Equal(other FieldPath) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Leaf returns the final step. ok is false for the root path.
func (p FieldPath) Leaf() (Step, bool) {
	if len(p) == 0 {
		return Step{}, false
	}
	return p[len(p)-1], true
}

func (p FieldPath) Clone() FieldPath {
	if len(p) == 0 {
		return nil
	}
	out := make(FieldPath, len(p))
	copy(out, p)
	return out
}
