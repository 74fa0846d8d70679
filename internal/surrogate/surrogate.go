// Package surrogate derives deterministic surrogate keys for versioned and
// keyed mart rows.
//
// A key is a name-based UUID (version 5, SHA-1) computed over a canonical
// encoding of the key tuple, so the same tuple always yields the same key
// regardless of execution order, host or wall-clock time.
package surrogate

import (
	"strings"

	"github.com/google/uuid"
)

// Scheme is mixed into every key. Changing how keys are derived must bump it
// so old and new keys never collide silently.
const Scheme = "supplymart/v1"

// namespace is fixed forever; it only has to be distinct from other users of
// name-based UUIDs.
var namespace = uuid.MustParse("8f0b6f5e-3c1a-5d7e-9a40-2b6f1e0c9d11")

// Canonical renders the key tuple as one unambiguous string. Parts are joined
// with '|'; a literal '|' or '\' inside a part is escaped with '\'.
func Canonical(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		p = strings.ReplaceAll(p, `\`, `\\`)
		escaped[i] = strings.ReplaceAll(p, "|", `\|`)
	}
	return strings.Join(escaped, "|")
}

// Key returns the surrogate key for the given tuple.
func Key(parts ...string) string {
	return uuid.NewSHA1(namespace, []byte(Scheme+"|"+Canonical(parts...))).String()
}
