package value

import (
	"strconv"
	"strings"
)

// SplitPath splits a dotted path ("body.user.name") into its segments.
// Empty input yields no segments.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// Lookup indexes progressively into root. Object segments select fields,
// numeric segments select list items. It reports false as soon as a step
// is not addressable.
func Lookup(root Value, segments []string) (Value, bool) {
	cur := root
	for _, seg := range segments {
		switch cur.kind {
		case KindObject:
			next, ok := cur.fields[seg]
			if !ok {
				return Value{}, false
			}
			cur = next
		case KindList:
			i, err := strconv.Atoi(seg)
			if err != nil {
				return Value{}, false
			}
			next, ok := cur.Index(i)
			if !ok {
				return Value{}, false
			}
			cur = next
		default:
			return Value{}, false
		}
	}
	return cur, true
}

// LookupPath is Lookup with a dotted path.
func LookupPath(root Value, path string) (Value, bool) {
	return Lookup(root, SplitPath(path))
}
