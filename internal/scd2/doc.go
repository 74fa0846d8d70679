// Package scd2 builds type 2 slowly changing dimension timelines.
//
// Historize receives every batch snapshot of a dimension and walks the
// appearances of each natural key in batch order. The first appearance opens
// a version. Each later appearance is compared with the open version on the
// tracked attributes only:
//
//   - unchanged: the open version stays, still anchored at its earlier date.
//   - changed: the open version is closed with valid_to set to the later
//     generation date and a new version opens at that date carrying the later
//     attributes.
//
// After the last appearance the open version is the current one. A key that
// appears in a single batch therefore yields exactly one current version, and
// a key that skips a batch keeps its open version across the gap. There are
// no deletions.
//
// Every version gets a surrogate key derived from (natural key, valid_from,
// source batch), so a rerun over the same snapshots produces the same keys.
package scd2
