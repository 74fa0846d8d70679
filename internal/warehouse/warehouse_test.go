package warehouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID   int
	Name string
}

func TestHandle_CommitPublishes(t *testing.T) {
	ctx := context.Background()
	w := New()

	h := w.Acquire(ctx, "staging")
	require.NoError(t, Replace(h, Staging, "stg_customers", []row{{1, "a"}, {2, "b"}}))

	// Buffered writes are visible to the writer but not to the warehouse.
	own, err := Read[row](h, Staging, "stg_customers")
	require.NoError(t, err)
	assert.Len(t, own, 2)
	_, err = Lookup[row](w, Staging, "stg_customers")
	assert.ErrorIs(t, err, ErrTableNotFound)

	require.NoError(t, h.Commit())
	h.Release()

	committed, err := Lookup[row](w, Staging, "stg_customers")
	require.NoError(t, err)
	assert.Equal(t, []row{{1, "a"}, {2, "b"}}, committed)

	count, ok := w.Count(Staging, "stg_customers")
	assert.True(t, ok)
	assert.Equal(t, 2, count)
}

func TestHandle_ReleaseWithoutCommitKeepsPriorBuild(t *testing.T) {
	ctx := context.Background()
	w := New()

	first := w.Acquire(ctx, "marts")
	require.NoError(t, Replace(first, Marts, "dim_customers", []row{{1, "old"}}))
	require.NoError(t, first.Commit())
	first.Release()

	second := w.Acquire(ctx, "marts")
	require.NoError(t, Replace(second, Marts, "dim_customers", []row{{1, "new"}, {2, "new"}}))
	second.Release() // stage failed, nothing committed

	rows, err := Lookup[row](w, Marts, "dim_customers")
	require.NoError(t, err)
	assert.Equal(t, []row{{1, "old"}}, rows)
}

func TestHandle_ReplaceIsFullReplacement(t *testing.T) {
	ctx := context.Background()
	w := New()

	for _, rows := range [][]row{{{1, "a"}, {2, "b"}, {3, "c"}}, {{9, "z"}}} {
		h := w.Acquire(ctx, "intermediate")
		require.NoError(t, Replace(h, Intermediate, "int_customers", rows))
		require.NoError(t, h.Commit())
		h.Release()
	}

	rows, err := Lookup[row](w, Intermediate, "int_customers")
	require.NoError(t, err)
	assert.Equal(t, []row{{9, "z"}}, rows)
}

func TestHandle_NilRowsBecomeEmptyTable(t *testing.T) {
	w := New()
	h := w.Acquire(context.Background(), "staging")
	require.NoError(t, Replace[row](h, Staging, "stg_flavours", nil))
	require.NoError(t, h.Commit())

	rows, err := Lookup[row](w, Staging, "stg_flavours")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestRead_TypeMismatch(t *testing.T) {
	w := New()
	h := w.Acquire(context.Background(), "staging")
	require.NoError(t, Replace(h, Staging, "stg_customers", []row{{1, "a"}}))

	_, err := Read[string](h, Staging, "stg_customers")
	assert.ErrorContains(t, err, "staging.stg_customers holds")
}

func TestHandle_UseAfterRelease(t *testing.T) {
	w := New()
	h := w.Acquire(context.Background(), "verify")
	h.Release()
	h.Release() // idempotent

	assert.ErrorIs(t, Replace(h, Marts, "x", []row{}), ErrHandleReleased)
	_, err := Read[row](h, Marts, "x")
	assert.ErrorIs(t, err, ErrHandleReleased)
	assert.ErrorIs(t, h.Commit(), ErrHandleReleased)
}

func TestTables(t *testing.T) {
	w := New()
	h := w.Acquire(context.Background(), "load_raw")
	require.NoError(t, Replace(h, Raw, "providers", []row{}))
	require.NoError(t, Replace(h, Raw, "customers", []row{}))
	require.NoError(t, Replace(h, Staging, "stg_customers", []row{}))
	require.NoError(t, h.Commit())

	assert.Equal(t, []string{"customers", "providers"}, w.Tables(Raw))
	assert.Equal(t, []string{"stg_customers"}, w.Tables(Staging))
	assert.Empty(t, w.Tables(Marts))
}
