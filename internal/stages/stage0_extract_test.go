package stages

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawgym/pipeline/internal/interfaces"
	"github.com/dawgym/pipeline/internal/models"
)

type fakeExerciseRepo struct {
	blob *interfaces.ExerciseBlob
	err  error
}

func (f *fakeExerciseRepo) Fetch(ctx context.Context, exerciseID int, category string) (*interfaces.ExerciseBlob, error) {
	return f.blob, f.err
}

func zipOf(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractHandler_Success(t *testing.T) {
	archive := zipOf(t, map[string]string{"test_cases.json": `{"test_cases":[]}`})
	repo := &fakeExerciseRepo{blob: &interfaces.ExerciseBlob{File: archive}}
	handler := NewExtractHandler(repo)

	job := models.NewJob(1, 7, "loops", t.TempDir())
	next, err := handler.Handle(context.Background(), job)

	require.NoError(t, err)
	assert.Equal(t, models.StageCompile, next)
	assert.False(t, job.Broken)
}

func TestExtractHandler_RepoFailureMarksBrokenAndSkipsToDelivery(t *testing.T) {
	repo := &fakeExerciseRepo{err: assertAnError}
	handler := NewExtractHandler(repo)

	job := models.NewJob(1, 7, "loops", t.TempDir())
	next, err := handler.Handle(context.Background(), job)

	require.NoError(t, err)
	assert.Equal(t, models.StageDelivery, next)
	assert.True(t, job.Broken)
}

var assertAnError = &fakeError{"exercise repo unavailable"}

type fakeError struct{ msg string }

func (e *fakeError) Error() string { return e.msg }
