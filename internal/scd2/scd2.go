package scd2

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/specialistvlad/supplymart/internal/surrogate"
)

// DateLayout is the canonical date form used inside surrogate keys.
const DateLayout = "2006-01-02"

// Spec tells Historize how to read a snapshot row.
type Spec[T any, K cmp.Ordered] struct {
	Key   func(T) K
	Batch func(T) int
	Date  func(T) time.Time
	// Changed compares the tracked attributes of the open version with a
	// later appearance of the same key.
	Changed func(open, next T) bool
}

// Version is one historical state of a natural key.
type Version[T any, K cmp.Ordered] struct {
	SurrogateKey string
	Key          K
	Row          T
	ValidFrom    time.Time
	ValidTo      *time.Time
	IsCurrent    bool
	SourceBatch  int
}

// Stats summarises a historized dimension.
type Stats struct {
	Keys     int
	Changed  int
	Versions int
}

// SurrogateKey derives the key of one version.
func SurrogateKey[K cmp.Ordered](key K, validFrom time.Time, batch int) string {
	return surrogate.Key(fmt.Sprint(key), validFrom.Format(DateLayout), strconv.Itoa(batch))
}

type appearance[T any] struct {
	row   T
	batch int
	date  time.Time
}

// Historize turns batch snapshots into a versioned timeline, ordered by key
// and then valid_from. A key appearing twice in the same batch is an error,
// as is a change dated on or before the version it would close.
func Historize[T any, K cmp.Ordered](rows []T, spec Spec[T, K]) ([]Version[T, K], error) {
	byKey := make(map[K][]appearance[T])
	for _, r := range rows {
		k := spec.Key(r)
		byKey[k] = append(byKey[k], appearance[T]{row: r, batch: spec.Batch(r), date: spec.Date(r)})
	}

	keys := make([]K, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var out []Version[T, K]
	for _, k := range keys {
		seen := byKey[k]
		slices.SortStableFunc(seen, func(a, b appearance[T]) int {
			return cmp.Compare(a.batch, b.batch)
		})

		for i := 1; i < len(seen); i++ {
			if seen[i].batch == seen[i-1].batch {
				return nil, fmt.Errorf("key %v appears more than once in batch %d", k, seen[i].batch)
			}
		}

		open := seen[0]
		for _, next := range seen[1:] {
			if !spec.Changed(open.row, next.row) {
				continue
			}
			if !next.date.After(open.date) {
				return nil, fmt.Errorf("key %v changed in batch %d dated %s, not after %s",
					k, next.batch, next.date.Format(DateLayout), open.date.Format(DateLayout))
			}
			closedAt := next.date
			out = append(out, newVersion(k, open, &closedAt))
			open = next
		}
		out = append(out, newVersion[T, K](k, open, nil))
	}
	return out, nil
}

func newVersion[T any, K cmp.Ordered](k K, a appearance[T], validTo *time.Time) Version[T, K] {
	return Version[T, K]{
		SurrogateKey: SurrogateKey(k, a.date, a.batch),
		Key:          k,
		Row:          a.row,
		ValidFrom:    a.date,
		ValidTo:      validTo,
		IsCurrent:    validTo == nil,
		SourceBatch:  a.batch,
	}
}

// Summarise counts keys, keys with at least one closed version, and versions.
func Summarise[T any, K cmp.Ordered](versions []Version[T, K]) Stats {
	keys := make(map[K]bool)
	for _, v := range versions {
		if !v.IsCurrent {
			keys[v.Key] = true
		} else if _, ok := keys[v.Key]; !ok {
			keys[v.Key] = false
		}
	}
	s := Stats{Keys: len(keys), Versions: len(versions)}
	for _, changed := range keys {
		if changed {
			s.Changed++
		}
	}
	return s
}

// Validate checks the timeline: exactly one current version per key, the
// current version is open, every closed version ends exactly where the next
// one starts, and surrogate keys are unique.
func Validate[T any, K cmp.Ordered](versions []Version[T, K]) error {
	byKey := make(map[K][]Version[T, K])
	skeys := make(map[string]K, len(versions))
	for _, v := range versions {
		if other, dup := skeys[v.SurrogateKey]; dup {
			return fmt.Errorf("surrogate key %s shared by keys %v and %v", v.SurrogateKey, other, v.Key)
		}
		skeys[v.SurrogateKey] = v.Key
		byKey[v.Key] = append(byKey[v.Key], v)
	}

	keys := make([]K, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		chain := byKey[k]
		slices.SortStableFunc(chain, func(a, b Version[T, K]) int {
			return a.ValidFrom.Compare(b.ValidFrom)
		})

		current := 0
		for i, v := range chain {
			if v.IsCurrent {
				current++
				if v.ValidTo != nil {
					return fmt.Errorf("key %v: current version from %s has valid_to", k, v.ValidFrom.Format(DateLayout))
				}
				continue
			}
			if v.ValidTo == nil {
				return fmt.Errorf("key %v: closed version from %s has no valid_to", k, v.ValidFrom.Format(DateLayout))
			}
			if !v.ValidTo.After(v.ValidFrom) {
				return fmt.Errorf("key %v: version from %s ends on %s", k, v.ValidFrom.Format(DateLayout), v.ValidTo.Format(DateLayout))
			}
			if i+1 == len(chain) {
				return fmt.Errorf("key %v: closed version from %s has no successor", k, v.ValidFrom.Format(DateLayout))
			}
			if next := chain[i+1].ValidFrom; !v.ValidTo.Equal(next) {
				return fmt.Errorf("key %v: gap between %s and %s", k, v.ValidTo.Format(DateLayout), next.Format(DateLayout))
			}
		}
		if current != 1 {
			return fmt.Errorf("key %v has %d current versions", k, current)
		}
	}
	return nil
}
