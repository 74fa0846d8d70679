package scd2

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flavour struct {
	ID          int64
	Name        string
	Description string
	Batch       int
	Date        time.Time
}

var flavourSpec = Spec[flavour, int64]{
	Key:     func(f flavour) int64 { return f.ID },
	Batch:   func(f flavour) int { return f.Batch },
	Date:    func(f flavour) time.Time { return f.Date },
	Changed: func(a, b flavour) bool { return a.Description != b.Description },
}

func day(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

func versionsOf(vs []Version[flavour, int64], key int64) []Version[flavour, int64] {
	var out []Version[flavour, int64]
	for _, v := range vs {
		if v.Key == key {
			out = append(out, v)
		}
	}
	return out
}

func TestHistorize_ChangedAndUnchangedKeys(t *testing.T) {
	// --- Arrange ---
	// K changes its description between batches, J does not.
	const k, j = int64(1), int64(2)
	rows := []flavour{
		{ID: k, Name: "Lemon", Description: "Fresh", Batch: 1, Date: day(1, 1)},
		{ID: j, Name: "Mint", Description: "Cool", Batch: 1, Date: day(1, 1)},
		{ID: k, Name: "Lemon", Description: "Zesty", Batch: 2, Date: day(6, 1)},
		{ID: j, Name: "Mint 2", Description: "Cool", Batch: 2, Date: day(6, 1)},
	}

	// --- Act ---
	got, err := Historize(rows, flavourSpec)

	// --- Assert ---
	require.NoError(t, err)
	require.NoError(t, Validate(got))
	assert.Len(t, got, 3)

	kv := versionsOf(got, k)
	require.Len(t, kv, 2)
	assert.Equal(t, "Fresh", kv[0].Row.Description)
	assert.False(t, kv[0].IsCurrent)
	assert.Equal(t, day(1, 1), kv[0].ValidFrom)
	require.NotNil(t, kv[0].ValidTo)
	assert.Equal(t, day(6, 1), *kv[0].ValidTo)
	assert.Equal(t, 1, kv[0].SourceBatch)

	assert.Equal(t, "Zesty", kv[1].Row.Description)
	assert.True(t, kv[1].IsCurrent)
	assert.Equal(t, day(6, 1), kv[1].ValidFrom)
	assert.Nil(t, kv[1].ValidTo)
	assert.Equal(t, 2, kv[1].SourceBatch)

	jv := versionsOf(got, j)
	require.Len(t, jv, 1)
	assert.True(t, jv[0].IsCurrent)
	assert.Nil(t, jv[0].ValidTo)
	assert.Equal(t, day(1, 1), jv[0].ValidFrom, "unchanged key stays anchored at the earlier date")
	assert.Equal(t, "Mint", jv[0].Row.Name)
	assert.Equal(t, 1, jv[0].SourceBatch)

	assert.Equal(t, Stats{Keys: 2, Changed: 1, Versions: 3}, Summarise(got))
}

func TestHistorize_SingleBatchKeys(t *testing.T) {
	rows := []flavour{
		{ID: 1, Description: "a", Batch: 1, Date: day(1, 1)},
		{ID: 2, Description: "b", Batch: 1, Date: day(1, 1)},
		{ID: 2, Description: "b", Batch: 2, Date: day(3, 1)},
		{ID: 3, Description: "c", Batch: 2, Date: day(3, 1)},
	}

	got, err := Historize(rows, flavourSpec)

	require.NoError(t, err)
	require.NoError(t, Validate(got))
	require.Len(t, got, 3, "distinct keys equal the union across batches")

	only1 := versionsOf(got, 1)
	require.Len(t, only1, 1)
	assert.True(t, only1[0].IsCurrent)
	assert.Equal(t, day(1, 1), only1[0].ValidFrom)

	only2 := versionsOf(got, 3)
	require.Len(t, only2, 1)
	assert.True(t, only2[0].IsCurrent)
	assert.Equal(t, day(3, 1), only2[0].ValidFrom)
	assert.Equal(t, 2, only2[0].SourceBatch)
}

func TestHistorize_ManyBatches(t *testing.T) {
	rows := []flavour{
		{ID: 1, Description: "v1", Batch: 3, Date: day(3, 1)},
		{ID: 1, Description: "v1", Batch: 1, Date: day(1, 1)},
		{ID: 1, Description: "v2", Batch: 2, Date: day(2, 1)},
		{ID: 1, Description: "v1", Batch: 4, Date: day(4, 1)},
		// Key 2 skips batch 2 and changes after the gap.
		{ID: 2, Description: "x", Batch: 1, Date: day(1, 1)},
		{ID: 2, Description: "y", Batch: 3, Date: day(3, 1)},
	}

	got, err := Historize(rows, flavourSpec)

	require.NoError(t, err)
	require.NoError(t, Validate(got))

	one := versionsOf(got, 1)
	require.Len(t, one, 3)
	assert.Equal(t, []string{"v1", "v2", "v1"},
		[]string{one[0].Row.Description, one[1].Row.Description, one[2].Row.Description})
	assert.Equal(t, day(2, 1), *one[0].ValidTo)
	assert.Equal(t, day(3, 1), *one[1].ValidTo)
	assert.True(t, one[2].IsCurrent)
	assert.Equal(t, day(3, 1), one[2].ValidFrom, "an unchanged batch 4 keeps the open version")

	two := versionsOf(got, 2)
	require.Len(t, two, 2)
	assert.Equal(t, day(3, 1), *two[0].ValidTo)
	assert.True(t, two[1].IsCurrent)
}

func TestHistorize_Errors(t *testing.T) {
	t.Run("duplicate key in one batch", func(t *testing.T) {
		rows := []flavour{
			{ID: 1, Description: "a", Batch: 1, Date: day(1, 1)},
			{ID: 1, Description: "a", Batch: 2, Date: day(2, 1)},
			{ID: 1, Description: "b", Batch: 2, Date: day(2, 1)},
		}
		_, err := Historize(rows, flavourSpec)
		assert.ErrorContains(t, err, "key 1 appears more than once in batch 2")
	})

	t.Run("change dated before open version", func(t *testing.T) {
		rows := []flavour{
			{ID: 1, Description: "a", Batch: 1, Date: day(5, 1)},
			{ID: 1, Description: "b", Batch: 2, Date: day(5, 1)},
		}
		_, err := Historize(rows, flavourSpec)
		assert.ErrorContains(t, err, "not after 2024-05-01")
	})
}

func TestHistorize_DeterministicSurrogateKeys(t *testing.T) {
	rows := []flavour{
		{ID: 1, Description: "a", Batch: 1, Date: day(1, 1)},
		{ID: 1, Description: "b", Batch: 2, Date: day(2, 1)},
		{ID: 2, Description: "c", Batch: 1, Date: day(1, 1)},
	}
	reversed := []flavour{rows[2], rows[1], rows[0]}

	first, err := Historize(rows, flavourSpec)
	require.NoError(t, err)
	second, err := Historize(reversed, flavourSpec)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, SurrogateKey(int64(1), day(1, 1), 1), first[0].SurrogateKey)
	assert.NotEqual(t, first[0].SurrogateKey, first[1].SurrogateKey)
}

func TestValidate(t *testing.T) {
	closed := func(from, to time.Time) Version[flavour, int64] {
		return Version[flavour, int64]{SurrogateKey: from.String(), Key: 1, ValidFrom: from, ValidTo: &to}
	}
	current := func(from time.Time) Version[flavour, int64] {
		return Version[flavour, int64]{SurrogateKey: from.String() + "c", Key: 1, ValidFrom: from, IsCurrent: true}
	}

	testCases := []struct {
		name    string
		chain   []Version[flavour, int64]
		wantErr string
	}{
		{
			name:  "valid chain",
			chain: []Version[flavour, int64]{closed(day(1, 1), day(2, 1)), current(day(2, 1))},
		},
		{
			name:    "gap",
			chain:   []Version[flavour, int64]{closed(day(1, 1), day(2, 1)), current(day(2, 5))},
			wantErr: "gap between 2024-02-01 and 2024-02-05",
		},
		{
			name:    "two current",
			chain:   []Version[flavour, int64]{current(day(1, 1)), current(day(2, 1))},
			wantErr: "key 1 has 2 current versions",
		},
		{
			name:    "no current",
			chain:   []Version[flavour, int64]{closed(day(1, 1), day(2, 1))},
			wantErr: "has no successor",
		},
		{
			name: "closed without valid_to",
			chain: []Version[flavour, int64]{
				{SurrogateKey: "x", Key: 1, ValidFrom: day(1, 1)},
				current(day(2, 1)),
			},
			wantErr: "has no valid_to",
		},
		{
			name:    "duplicate surrogate key",
			chain:   []Version[flavour, int64]{current(day(1, 1)), current(day(1, 1))},
			wantErr: "shared by keys 1 and 1",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.chain)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}
