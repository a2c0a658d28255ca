package stages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawgym/pipeline/internal/models"
)

type fakeAdvisor struct {
	reply string
	err   error
}

func (f *fakeAdvisor) Comment(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f.reply, f.err
}

func TestAdvisoryHandler_Success(t *testing.T) {
	handler := NewAdvisoryHandler(&fakeAdvisor{reply: "check your loop bounds"})
	job := models.NewJob(1, 5, "loops", "/tmp/x")
	job.MarkBroken("index out of range")

	next, err := handler.Handle(context.Background(), job)

	require.NoError(t, err)
	assert.Equal(t, models.StageDelivery, next)
	assert.Equal(t, "check your loop bounds", job.Advisory)
}

func TestAdvisoryHandler_FailureNeverMarksBroken(t *testing.T) {
	handler := NewAdvisoryHandler(&fakeAdvisor{err: assertAnError})
	job := models.NewJob(1, 5, "loops", "/tmp/x")

	next, err := handler.Handle(context.Background(), job)

	require.NoError(t, err)
	assert.Equal(t, models.StageDelivery, next)
	assert.Equal(t, "could not obtain commentary", job.Advisory)
	assert.False(t, job.Broken)
}
