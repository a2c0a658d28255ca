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

func TestCompileHandler_NoSourcesRoutesToAdvisory(t *testing.T) {
	handler := NewCompileHandler()
	workspace := t.TempDir()
	job := models.NewJob(1, 9, "loops", workspace)
	require.NoError(t, os.MkdirAll(filepath.Join(workspace, "9"), 0o755))

	next, err := handler.Handle(context.Background(), job)

	require.NoError(t, err)
	assert.Equal(t, models.StageAdvisory, next)
	assert.True(t, job.Broken)
	assert.Equal(t, "no source files", job.TextContent)
}
