package stages

import (
	"context"

	"github.com/dawgym/pipeline/internal/buildtool"
	"github.com/dawgym/pipeline/internal/interfaces"
	"github.com/dawgym/pipeline/internal/models"
)

// truncate returns the last n bytes of b for diagnostic text: always the
// tail, never the head, since build tool output is most informative near
// the failure.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[len(b)-n:])
}

// NewCompileHandler builds the stage 1 handler: detect the submission's
// build toolchain and invoke it.
func NewCompileHandler() interfaces.StageHandler {
	return interfaces.StageHandlerFunc(func(ctx context.Context, job *models.Job) (models.Stage, error) {
		uDir := userDir(job)

		det, err := buildtool.Detect(uDir)
		if err != nil {
			switch err {
			case buildtool.ErrNoSources:
				return fail(job, "no source files", models.StageAdvisory)
			default:
				return fail(job, "project type could not be determined", models.StageAdvisory)
			}
		}

		job.ProjectKind = det.Kind
		job.EntryFiles = det.EntryFiles

		res, err := buildtool.Build(ctx, det, uDir, uDir)
		if err != nil {
			return fail(job, "build tool could not be started", models.StageAdvisory)
		}
		if res.ExitCode != 0 {
			job.MarkBroken(truncate(res.Output, 1000))
			return models.StageAdvisory, nil
		}

		return models.StageTest, nil
	})
}
