package specnorm

// Ordering helpers shared by every generator.
//
// Sorting goes through a fixed-locale collator rather than the platform
// default so the same declaration produces the same artifact bytes on any
// machine. Collators keep internal buffers, so each call builds its own.

import (
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var locale = language.English

func newCollator() *collate.Collator { return collate.New(locale) }

// Compare orders a and b with the fixed collator.
func Compare(a, b string) int { return newCollator().CompareString(a, b) }

// SortStrings sorts in place with the fixed collator.
func SortStrings(ss []string) {
	newCollator().SortStrings(ss)
}

// SortedSet returns a sorted copy of in without duplicates or empty strings.
func SortedSet(in ...[]string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, list := range in {
		for _, s := range list {
			if s == "" {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	SortStrings(out)
	return out
}

// Comparator returns a three-way compare func backed by one collator.
// Not safe for concurrent use.
func Comparator() func(a, b string) int {
	c := newCollator()
	return c.CompareString
}

// SortBy stably sorts items in place by the collated key.
func SortBy[T any](items []T, key func(T) string) {
	cmp := Comparator()
	slices.SortStableFunc(items, func(a, b T) int { return cmp(key(a), key(b)) })
}
