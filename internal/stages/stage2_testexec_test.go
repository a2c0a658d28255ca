package stages

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawgym/pipeline/internal/models"
)

func TestTestHandler_MissingTestCasesFileRoutesToAdvisory(t *testing.T) {
	handler := NewTestHandler()
	workspace := t.TempDir()
	job := models.NewJob(1, 9, "loops", workspace)
	job.ProjectKind = "single_file"
	job.EntryFiles = []string{filepath.Join(workspace, "9", "Sol.java")}
	require.NoError(t, os.MkdirAll(filepath.Join(workspace, "job_data"), 0o755))

	next, err := handler.Handle(context.Background(), job)

	require.NoError(t, err)
	assert.Equal(t, models.StageAdvisory, next)
	assert.True(t, job.Broken)
	assert.Equal(t, "test cases could not be loaded", job.TextContent)
}

func TestLoadTestCases_ParsesSchema(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test_cases.json"),
		[]byte(`{"test_cases":[{"inputs":["3"],"outputs":["42"]}]}`), 0o644))

	cases, err := loadTestCases(dir)

	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, []string{"3"}, cases[0].Inputs)
	assert.Equal(t, []string{"42"}, cases[0].Outputs)
}

func TestFailureDiagnostic_ContainsRequiredLabels(t *testing.T) {
	msg := failureDiagnostic(1, testCase{Inputs: []string{"x"}, Outputs: []string{"world"}}, []byte("hello"))

	assert.Contains(t, msg, "Input given")
	assert.Contains(t, msg, "Expected output")
	assert.Contains(t, msg, "Obtained output")
}

func TestDiagnostic_TruncationMarker(t *testing.T) {
	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'a'
	}
	msg := diagnostic(truncate(long, 600), long)
	assert.Contains(t, msg, "(truncated)")
}
