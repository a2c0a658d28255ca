package queue

import (
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// Janitor periodically snapshots the queue and sweeps abandoned workspace
// directories on a cron schedule.
type Janitor struct {
	sq           *StepQueue
	workspaceDir string
	maxAge       time.Duration
	logger       arbor.ILogger
	cron         *cron.Cron
}

// NewJanitor builds a janitor that snapshots sq and removes subdirectories
// of workspaceDir untouched for longer than maxAge, on the given cron
// schedule expression.
func NewJanitor(sq *StepQueue, workspaceDir string, maxAge time.Duration, logger arbor.ILogger) *Janitor {
	return &Janitor{
		sq:           sq,
		workspaceDir: workspaceDir,
		maxAge:       maxAge,
		logger:       logger,
		cron:         cron.New(),
	}
}

// Start registers the sweep task on schedule and starts the cron runner.
func (j *Janitor) Start(schedule string) error {
	_, err := j.cron.AddFunc(schedule, j.sweep)
	if err != nil {
		return err
	}
	j.cron.Start()
	j.logger.Info().Str("schedule", schedule).Msg("janitor started")
	return nil
}

// Stop halts the cron runner and waits for an in-flight sweep to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

func (j *Janitor) sweep() {
	if err := j.sq.Snapshot(); err != nil {
		j.logger.Warn().Err(err).Msg("janitor: snapshot failed")
	} else {
		j.logger.Debug().Msg("janitor: snapshot written")
	}

	entries, err := os.ReadDir(j.workspaceDir)
	if err != nil {
		if !os.IsNotExist(err) {
			j.logger.Warn().Err(err).Msg("janitor: could not list workspace dir")
		}
		return
	}

	cutoff := time.Now().Add(-j.maxAge)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(j.workspaceDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			j.logger.Warn().Err(err).Str("path", path).Msg("janitor: could not remove stale workspace")
		} else {
			j.logger.Info().Str("path", path).Msg("janitor: removed stale workspace")
		}
	}
}
