package integration_tests

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/supplymart/internal/quality"
	"github.com/specialistvlad/supplymart/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestQualityGate_FailsOnNewOrphan adds a sale for an unknown flavour. The
// build completes, the report is still written and the run returns the
// violation with the orphan in its sample.
func TestQualityGate_FailsOnNewOrphan(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	files := testutil.ReferenceFiles()
	files["raw/sales_transactions.csv"] += "1003,1,77,4,2024-09-01,fr,Nice,06000,40,2024-09-02,1\n"
	files[testutil.ConfigFile] += `
export {
  report = "quality.yaml"
}
`

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, nil)

	// --- Assert ---
	var violation *quality.QualityRuleViolation
	require.True(t, errors.As(result.Err, &violation), "got %v", result.Err)
	require.Len(t, violation.Failed, 1)
	assert.Equal(t, "fk_sales_flavour", violation.Failed[0].Rule)
	assert.Equal(t, []string{"77"}, violation.Failed[0].Sample)
	assert.ErrorContains(t, result.Err, "fk_sales_flavour (observed 1, expected 0")

	assert.Contains(t, result.LogOutput, "Quality rule failed.")

	raw, err := os.ReadFile(filepath.Join(result.Dir, "quality.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "passed: false")
}

// TestQualityGate_BaselineDrift checks that a known defect drifting away from
// its pinned count fails the gate.
func TestQualityGate_BaselineDrift(t *testing.T) {
	t.Parallel()

	files := testutil.ReferenceFiles()
	files["raw/sales_transactions.csv"] += "1004,2,1,0,2024-10-01,de,Bonn,53111,15,2024-10-02,1\n"

	result := testutil.RunIntegrationTest(t, files, nil)

	var violation *quality.QualityRuleViolation
	require.True(t, errors.As(result.Err, &violation), "got %v", result.Err)
	require.Len(t, violation.Failed, 1)
	assert.Equal(t, "sales_zero_quantity", violation.Failed[0].Rule)
	assert.Equal(t, 2, violation.Failed[0].Observed)
}
