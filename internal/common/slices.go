package common

import "strconv"

// IsEmpty returns true if the slice is empty.
func IsEmpty[S ~[]E, E any](s S) bool {
	return len(s) == 0
}

// UniqueName returns base, or base followed by the smallest integer suffix
// starting at 2, that is not present in taken.
func UniqueName(base string, taken map[string]bool) string {
	if !taken[base] {
		return base
	}

	for i := 2; ; i++ {
		name := base + strconv.Itoa(i)
		if !taken[name] {
			return name
		}
	}
}
