package surrogate

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_Deterministic(t *testing.T) {
	a := Key("42", "2024-01-01", "1")
	b := Key("42", "2024-01-01", "1")
	assert.Equal(t, a, b)

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(5), parsed.Version())
}

func TestKey_DistinguishesTuples(t *testing.T) {
	keys := map[string]struct{}{}
	for _, parts := range [][]string{
		{"42", "2024-01-01", "1"},
		{"42", "2024-01-01", "2"},
		{"42", "2024-06-01", "2"},
		{"43", "2024-01-01", "1"},
	} {
		keys[Key(parts...)] = struct{}{}
	}
	assert.Len(t, keys, 4)
}

func TestCanonical_Escaping(t *testing.T) {
	assert.Equal(t, "a|b", Canonical("a", "b"))
	assert.Equal(t, `a\|b|c`, Canonical("a|b", "c"))
	assert.Equal(t, `a|b\|c`, Canonical("a", "b|c"))
	assert.Equal(t, `a\\|b`, Canonical(`a\`, "b"))

	assert.NotEqual(t, Key("a|b", "c"), Key("a", "b|c"))
}
