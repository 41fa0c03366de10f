package heuristic

import (
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Ratio measures character-sequence overlap of a and b ignoring case.
// It is 2*M/T where M is the number of characters in equal runs of a
// character-level diff and T the total length of both strings. Two empty
// strings are identical.
func Ratio(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)

	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 1
	}
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	dmp := diffmatchpatch.New()
	// No deadline: a timed out diff is not minimal and would make scores
	// depend on machine speed.
	dmp.DiffTimeout = 0

	matched := 0
	for _, d := range dmp.DiffMain(a, b, false) {
		if d.Type == diffmatchpatch.DiffEqual {
			matched += utf8.RuneCountInString(d.Text)
		}
	}

	return 2 * float64(matched) / float64(total)
}

// bestRatio returns the highest Ratio of needle against candidates, 0 when
// there are none.
func bestRatio(needle string, candidates []string) float64 {
	best := 0.0
	for _, c := range candidates {
		if r := Ratio(needle, c); r > best {
			best = r
			if best == 1 {
				break
			}
		}
	}
	return best
}
