package stages

import (
	"context"

	"github.com/dawgym/pipeline/internal/interfaces"
	"github.com/dawgym/pipeline/internal/models"
)

const advisorySystemPrompt = "give short advice on this error"

// NewAdvisoryHandler builds the stage 4 handler: ask the Advisor for a
// short comment on the job's outcome so far. It never marks a job
// broken, any Advisor failure is absorbed into a fixed fallback message.
func NewAdvisoryHandler(advisor interfaces.Advisor) interfaces.StageHandler {
	return interfaces.StageHandlerFunc(func(ctx context.Context, job *models.Job) (models.Stage, error) {
		status := "all fine"
		if job.Broken {
			status = "error occurred"
		}

		userPrompt := status + " / " + truncate([]byte(job.TextContent), 200)

		reply, err := advisor.Comment(ctx, advisorySystemPrompt, userPrompt)
		if err != nil {
			job.Advisory = "could not obtain commentary"
		} else {
			job.Advisory = reply
		}

		return models.StageDelivery, nil
	})
}
