// Package stages implements the five non-delivery stage handlers. Each
// handler is a interfaces.StageHandlerFunc: given a job, do the stage's
// work in place and return the stage to re-enqueue at next.
package stages

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dawgym/pipeline/internal/interfaces"
	"github.com/dawgym/pipeline/internal/models"
)

// NewExtractHandler builds the stage 0 handler: ensure the workspace
// layout, fetch the exercise archive, and unpack it into job_data/.
func NewExtractHandler(repo interfaces.ExerciseRepo) interfaces.StageHandler {
	return interfaces.StageHandlerFunc(func(ctx context.Context, job *models.Job) (models.Stage, error) {
		userDir := userDir(job)
		jobDataDir := jobDataDir(job)

		if err := os.MkdirAll(userDir, 0o755); err != nil {
			return fail(job, "could not prepare submission directory", models.StageDelivery)
		}
		if err := os.MkdirAll(jobDataDir, 0o755); err != nil {
			return fail(job, "could not prepare job data directory", models.StageDelivery)
		}

		blob, err := repo.Fetch(ctx, job.ExerciseID, job.Category)
		if err != nil {
			return fail(job, "exercise data is currently unavailable", models.StageDelivery)
		}

		archivePath := filepath.Join(jobDataDir, "exercise.zip")
		if err := os.WriteFile(archivePath, blob.File, 0o644); err != nil {
			return fail(job, "could not stage exercise archive", models.StageDelivery)
		}
		defer os.Remove(archivePath)

		if err := unzip(blob.File, jobDataDir); err != nil {
			return fail(job, "exercise archive is malformed", models.StageDelivery)
		}

		return models.StageCompile, nil
	})
}

func fail(job *models.Job, message string, next models.Stage) (models.Stage, error) {
	job.MarkBroken(message)
	return next, nil
}

func userDir(job *models.Job) string {
	return filepath.Join(job.WorkspacePath, fmt.Sprintf("%d", job.UserID))
}

func jobDataDir(job *models.Job) string {
	return filepath.Join(job.WorkspacePath, "job_data")
}

// unzip extracts archive (in memory) into dir, guarding against
// zip-slip by refusing entries that would escape dir.
func unzip(archive []byte, dir string) error {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return err
	}

	for _, f := range zr.File {
		target := filepath.Join(dir, f.Name)
		if !withinDir(dir, target) {
			return fmt.Errorf("unzip: entry %q escapes target directory", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}

		rc, err := f.Open()
		if err != nil {
			return err
		}
		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, f.Mode())
		if err != nil {
			rc.Close()
			return err
		}
		_, copyErr := io.Copy(out, rc)
		rc.Close()
		out.Close()
		if copyErr != nil {
			return copyErr
		}
	}
	return nil
}

func withinDir(dir, target string) bool {
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return false
	}
	if rel == ".." || rel == "." {
		return rel == "."
	}
	return !(len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator))
}
