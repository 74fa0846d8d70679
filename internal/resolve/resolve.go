// Package resolve collapses batch re-supplies of non-historized entities to
// one authoritative row per natural key.
package resolve

import (
	"cmp"
	"slices"
	"time"
)

// Version orders re-supplies of the same key.
type Version struct {
	Batch     int
	Generated time.Time
}

// Compare orders versions by batch number, then generation date.
func (v Version) Compare(o Version) int {
	if c := cmp.Compare(v.Batch, o.Batch); c != 0 {
		return c
	}
	return v.Generated.Compare(o.Generated)
}

// Latest keeps, per natural key, the row with the highest batch number, ties
// broken by the latest generation date. On a full tie the row seen first wins
// so the result does not depend on anything but input order. The output is
// sorted by key.
func Latest[T any, K cmp.Ordered](rows []T, key func(T) K, version func(T) Version) []T {
	best := make(map[K]int, len(rows))
	for i, r := range rows {
		k := key(r)
		j, ok := best[k]
		if !ok || version(r).Compare(version(rows[j])) > 0 {
			best[k] = i
		}
	}

	keys := make([]K, 0, len(best))
	for k := range best {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, rows[best[k]])
	}
	return out
}

// Superseded reports how many input rows Latest dropped.
func Superseded[T any](in, out []T) int {
	return len(in) - len(out)
}
