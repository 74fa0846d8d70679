package integration_tests

import (
	"errors"
	"testing"

	"github.com/specialistvlad/supplymart/internal/pipeline"
	"github.com/specialistvlad/supplymart/internal/staging"
	"github.com/specialistvlad/supplymart/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStageFailure_SkipsDownstream checks that an unparseable raw value fails
// the staging stage and that no later stage runs.
func TestStageFailure_SkipsDownstream(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	files := testutil.ReferenceFiles()
	files["raw/flavours.csv"] += "5,Plum,Dark plum,not-a-date,3\n"

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, nil)

	// --- Assert ---
	var stageErr *pipeline.StageExecutionError
	require.True(t, errors.As(result.Err, &stageErr), "got %v", result.Err)
	assert.Equal(t, pipeline.StageStaging, stageErr.Stage)

	var parseErr *staging.ParseError
	require.True(t, errors.As(result.Err, &parseErr))
	assert.Equal(t, "generation_date", parseErr.Column)

	assert.Contains(t, result.LogOutput, "Stage failed.")
	assert.Contains(t, result.LogOutput, "Skipping stage.")
	assert.Contains(t, result.LogOutput, "reason=\"upstream failure\"")
	assert.NotContains(t, result.LogOutput, "Build finished.")
	assert.Nil(t, result.App.Report())
}
