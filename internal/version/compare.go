package version

import (
	"strconv"
	"strings"
)

// Compare orders two dot-delimited version strings. The result is negative
// when a < b, zero when equal and positive when a > b.
//
// Each component is read as a non-negative integer; anything that does not
// parse counts as 0. The shorter version is padded with zeros, so "1.2" and
// "1.2.0" are equal. Compare never fails.
func Compare(a, b string) int {
	pa := components(a)
	pb := components(b)

	n := len(pa)
	if len(pb) > n {
		n = len(pb)
	}

	for i := 0; i < n; i++ {
		var x, y int
		if i < len(pa) {
			x = pa[i]
		}
		if i < len(pb) {
			y = pb[i]
		}
		if x != y {
			return x - y
		}
	}
	return 0
}

// Equal reports whether a and b compare equal.
func Equal(a, b string) bool {
	return Compare(a, b) == 0
}

// Greater reports whether a is strictly newer than b.
func Greater(a, b string) bool {
	return Compare(a, b) > 0
}

func components(v string) []int {
	parts := strings.Split(v, ".")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			n = 0
		}
		out[i] = n
	}
	return out
}
