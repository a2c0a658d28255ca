// Package interfaces collects the small, single-purpose collaborator
// contracts the scheduler and stage handlers depend on: one narrow
// interface per external concern rather than one fat "Services"
// interface.
package interfaces

import (
	"context"

	"github.com/dawgym/pipeline/internal/models"
)

// ExerciseBlob is the exercise template row returned by ExerciseRepo.fetch.
type ExerciseBlob struct {
	ID          int
	Type        string
	Title       string
	Description string
	Difficulty  string
	Content     string
	// File is the raw archive bytes (zip) to unpack into job_data/.
	File []byte
}

// ExerciseRepo is the external relational store of exercise metadata and
// archives: a SELECT on table EXERCISE filtered by id and type. The
// scheduler and stage 0 only ever see this interface.
type ExerciseRepo interface {
	Fetch(ctx context.Context, exerciseID int, category string) (*ExerciseBlob, error)
}

// ResultSink is the downstream delivery target reachable by a typed IPC
// client.
type ResultSink interface {
	Status(ctx context.Context) (int, error)
	Terminate(ctx context.Context, payload models.DeliveryPayload) error
}

// Advisor is the external LLM completion service used by stage 4.
type Advisor interface {
	Comment(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// StageHandler processes a job at one stage and returns the stage it
// should be re-enqueued at next.
type StageHandler interface {
	Handle(ctx context.Context, job *models.Job) (next models.Stage, err error)
}

// StageHandlerFunc adapts a plain function to StageHandler.
type StageHandlerFunc func(ctx context.Context, job *models.Job) (models.Stage, error)

func (f StageHandlerFunc) Handle(ctx context.Context, job *models.Job) (models.Stage, error) {
	return f(ctx, job)
}
