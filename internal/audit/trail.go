// Package audit keeps an embedded, queryable record of stage
// transitions for observability. It is distinct from the mandatory
// queue-snapshot file, which exists purely for process-restart recovery
// and is never read for reporting.
package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/timshannon/badgerhold/v4"

	"github.com/dawgym/pipeline/internal/models"
)

// Transition is one stage-change event recorded for a job.
type Transition struct {
	ID         string    `badgerhold:"key"`
	JobID      string    `badgerhold:"index"`
	FromStage  int
	ToStage    int
	Broken     bool
	OccurredAt time.Time `badgerhold:"index"`
}

// Trail is the embedded audit store.
type Trail struct {
	store *badgerhold.Store
}

// Open opens (creating if absent) the Badger-backed audit store at dir.
func Open(dir string) (*Trail, error) {
	opts := badgerhold.DefaultOptions
	opts.Dir = dir
	opts.ValueDir = dir

	store, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("audit: open store: %w", err)
	}
	return &Trail{store: store}, nil
}

// Close releases the underlying Badger handles.
func (t *Trail) Close() error {
	return t.store.Close()
}

// Record appends a stage-transition event for job.
func (t *Trail) Record(job *models.Job, from, to models.Stage) error {
	entry := Transition{
		ID:         uuid.New().String(),
		JobID:      job.ID.String(),
		FromStage:  int(from),
		ToStage:    int(to),
		Broken:     job.Broken,
		OccurredAt: time.Now(),
	}
	if err := t.store.Insert(entry.ID, entry); err != nil {
		return fmt.Errorf("audit: record transition: %w", err)
	}
	return nil
}

// ForJob returns every recorded transition for jobID, oldest first.
func (t *Trail) ForJob(jobID string) ([]Transition, error) {
	var out []Transition
	err := t.store.Find(&out, badgerhold.Where("JobID").Eq(jobID).SortBy("OccurredAt"))
	if err != nil {
		return nil, fmt.Errorf("audit: query job %s: %w", jobID, err)
	}
	return out, nil
}
