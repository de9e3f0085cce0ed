package mnode

import (
	"sort"
	"strconv"
)

// Compare orders two keys in M collation: numbers sort before
// non-numbers; two numbers sort by numeric value; two non-numbers sort
// lexicographically. Textually identical strings compare equal before
// any numeric parse is attempted. Textually distinct numbers of equal
// magnitude, such as "1" and "1.0", also compare equal.
func Compare(a, b string) int {
	if a == b {
		return 0
	}

	av, aIsNum := parseMNumber(a)
	bv, bIsNum := parseMNumber(b)

	switch {
	case !aIsNum && !bIsNum:
		if a > b {
			return 1
		}
		return -1
	case !aIsNum && bIsNum:
		return 1 // string > number
	case aIsNum && !bIsNum:
		return -1 // number < string
	default:
		if av > bv {
			return 1
		}
		if av < bv {
			return -1
		}
		return 0
	}
}

func parseMNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Less reports whether a sorts before b in M collation.
func Less(a, b Node) bool {
	return Compare(a.Key(), b.Key()) < 0
}

// sortKeys orders a slice of key strings in place by M collation.
func sortKeys(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		return Compare(keys[i], keys[j]) < 0
	})
}
