package mnode

import (
	"reflect"
	"sort"
	"testing"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"equal strings", "abc", "abc", 0},
		{"equal numbers", "10", "10", 0},
		{"two numbers by magnitude", "2", "10", -1},
		{"two numbers reversed", "10", "2", 1},
		{"number before non-number", "10", "abc", -1},
		{"non-number after number", "abc", "10", 1},
		{"two non-numbers lexicographic", "abc", "abd", -1},
		{"textually identical float forms", "1.0", "1.0", 0},
		{"numerically equal but textually distinct", "1", "1.0", 0}, // both numbers, equal magnitude
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(tt.a, tt.b)
			if sign(got) != sign(tt.want) {
				t.Errorf("Compare(%q, %q) = %d, want sign %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

func TestCompareTotalOrder(t *testing.T) {
	keys := []string{"10", "9", "abc", "2", "1a"}
	sort.SliceStable(keys, func(i, j int) bool { return Compare(keys[i], keys[j]) < 0 })
	want := []string{"2", "9", "10", "1a", "abc"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("M collation sort = %v, want %v", keys, want)
	}
}
