// Package queue implements the step-indexed priority scheduler: a
// PriorityQueue per pipeline stage, guarded by a single StepQueue that
// exposes the two access patterns stage workers need, "give me the
// fullest non-terminal queue" for the normal worker pool, and "give me
// the next job at this terminal stage" for the advisory/delivery
// workers, plus the disk snapshot that survives a process restart.
package queue

import (
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/dawgym/pipeline/internal/models"
)

// StepQueue owns one PriorityQueue per stage and the pause flags that let
// an operator halt normal or advisory processing without dropping queued
// jobs. All mutation of the in-memory queues happens under mu; subprocess
// work (builds, tests, LLM calls) must never run while mu is held. Stage
// handlers only touch StepQueue at Take/Enqueue boundaries.
type StepQueue struct {
	mu     sync.Mutex
	stages []*PriorityQueue

	pauseNormal   bool
	pauseAdvisory bool

	logger arbor.ILogger
}

// NewStepQueue builds a StepQueue with one empty PriorityQueue per stage
// and attempts to restore a prior snapshot. Restoration never fails
// construction, a missing or corrupt snapshot just means an empty start.
func NewStepQueue(logger arbor.ILogger) *StepQueue {
	sq := &StepQueue{
		stages: make([]*PriorityQueue, models.NStages),
		logger: logger,
	}
	for i := range sq.stages {
		sq.stages[i] = NewPriorityQueue()
	}
	sq.restore()
	return sq
}

// Enqueue adds job to stage's queue at priority. Enqueuing into a
// non-terminal stage clears pauseNormal; enqueuing into the advisory
// stage clears pauseAdvisory. New work arriving is itself the signal
// that whatever condition caused the pause has been handled upstream.
func (sq *StepQueue) Enqueue(stage models.Stage, job *models.Job, priority int) error {
	if int(stage) < 0 || int(stage) >= int(models.NStages) {
		return fmt.Errorf("enqueue: stage %d out of range", stage)
	}

	sq.mu.Lock()
	sq.stages[stage].Push(job, priority)
	switch {
	case stage == models.StageAdvisory:
		sq.pauseAdvisory = false
	case !stage.IsTerminal():
		sq.pauseNormal = false
	}
	sq.mu.Unlock()

	return nil
}

// TakeNormal selects a job from the longest non-terminal queue (stages
// before the last two), breaking ties by the lowest stage index, and
// pops it. It returns ok=false if normal processing is paused or every
// non-terminal queue is empty.
func (sq *StepQueue) TakeNormal() (models.Stage, *models.Job, bool) {
	sq.mu.Lock()
	defer sq.mu.Unlock()

	if sq.pauseNormal {
		return 0, nil, false
	}

	best := -1
	bestLen := 0
	for i := 0; i < int(models.NStages)-2; i++ {
		l := sq.stages[i].Len()
		if l > bestLen {
			bestLen = l
			best = i
		}
	}
	if best == -1 {
		sq.pauseNormal = true
		return 0, nil, false
	}

	job := sq.stages[best].Pop()
	return models.Stage(best), job, true
}

// TakeTerminal pops the next job from a terminal stage (advisory or
// delivery). Only the advisory stage is gated by pauseAdvisory; the
// delivery stage is never paused by StepQueue itself. The egress loop
// governs its own backoff.
func (sq *StepQueue) TakeTerminal(stage models.Stage) (*models.Job, bool) {
	if !stage.IsTerminal() {
		return nil, false
	}

	sq.mu.Lock()
	defer sq.mu.Unlock()

	if stage == models.StageAdvisory && sq.pauseAdvisory {
		return nil, false
	}

	job := sq.stages[stage].Pop()
	if job == nil {
		if stage == models.StageAdvisory {
			sq.pauseAdvisory = true
		}
		return nil, false
	}
	return job, true
}

// PauseNormal sets the normal-processing pause flag.
func (sq *StepQueue) PauseNormal(paused bool) {
	sq.mu.Lock()
	sq.pauseNormal = paused
	sq.mu.Unlock()
}

// PauseAdvisory sets the advisory-processing pause flag.
func (sq *StepQueue) PauseAdvisory(paused bool) {
	sq.mu.Lock()
	sq.pauseAdvisory = paused
	sq.mu.Unlock()
}

// IsPausedNormal reports whether normal dispatch is currently paused.
func (sq *StepQueue) IsPausedNormal() bool {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	return sq.pauseNormal
}

// IsPausedAdvisory reports whether advisory dispatch is currently paused.
func (sq *StepQueue) IsPausedAdvisory() bool {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	return sq.pauseAdvisory
}

// Len returns the number of queued jobs at stage.
func (sq *StepQueue) Len(stage models.Stage) int {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	return sq.stages[stage].Len()
}

// Snapshot persists the current queue contents to disk atomically.
func (sq *StepQueue) Snapshot() error {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	return sq.snapshot()
}

// Clear deletes the on-disk snapshot file. It does not affect in-memory
// queue state.
func (sq *StepQueue) Clear() error {
	return sq.clear()
}
