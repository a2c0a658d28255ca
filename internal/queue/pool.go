package queue

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/dawgym/pipeline/internal/audit"
	"github.com/dawgym/pipeline/internal/interfaces"
	"github.com/dawgym/pipeline/internal/models"
)

// Handlers maps each non-terminal stage to the StageHandler responsible
// for it. The advisory and delivery stages are drained by dedicated
// workers (AdvisoryWorker, the egress loop) instead, so they have no
// entry here.
type Handlers map[models.Stage]interfaces.StageHandler

// WorkerPool runs NormalWorkers goroutines, each polling StepQueue for
// the fullest non-terminal stage and dispatching to the matching
// handler.
type WorkerPool struct {
	sq       *StepQueue
	handlers Handlers
	logger   arbor.ILogger
	trail    *audit.Trail

	poll          time.Duration
	pauseSleep    time.Duration
	pauseMaxIters int

	ctx    context.Context
	cancel context.CancelFunc
}

// NewWorkerPool builds a pool bound to sq and handlers, polling every
// poll and, once paused, sleeping pauseSleep between checks for up to
// pauseMaxIters consecutive empty iterations before falling back to the
// regular poll interval. trail may be nil, in which case transitions are
// not recorded.
func NewWorkerPool(sq *StepQueue, handlers Handlers, logger arbor.ILogger, trail *audit.Trail, poll, pauseSleep time.Duration, pauseMaxIters int) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		sq:            sq,
		handlers:      handlers,
		logger:        logger,
		trail:         trail,
		poll:          poll,
		pauseSleep:    pauseSleep,
		pauseMaxIters: pauseMaxIters,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Start launches n worker goroutines.
func (wp *WorkerPool) Start(n int) {
	wp.logger.Info().Int("workers", n).Msg("starting normal worker pool")
	for i := 0; i < n; i++ {
		go wp.worker(i)
	}
}

// Stop cancels all worker goroutines. It does not wait for in-flight
// subprocess work to finish.
func (wp *WorkerPool) Stop() {
	wp.cancel()
}

func (wp *WorkerPool) worker(id int) {
	ticker := time.NewTicker(wp.poll)
	defer ticker.Stop()

	pausedIters := 0

	for {
		select {
		case <-wp.ctx.Done():
			wp.logger.Debug().Int("worker_id", id).Msg("normal worker stopped")
			return
		case <-ticker.C:
			stage, job, ok := wp.sq.TakeNormal()
			if !ok {
				if wp.sq.IsPausedNormal() {
					if pausedIters < wp.pauseMaxIters {
						pausedIters++
						time.Sleep(wp.pauseSleep)
					}
				} else {
					pausedIters = 0
				}
				continue
			}
			pausedIters = 0
			wp.process(id, stage, job)
		}
	}
}

// process dispatches job to the handler registered for stage and
// re-enqueues it at the returned next stage. Subprocess work inside
// Handle never runs while StepQueue's lock is held, Take/Enqueue are the
// only points of contention.
func (wp *WorkerPool) process(workerID int, stage models.Stage, job *models.Job) {
	handler, ok := wp.handlers[stage]
	if !ok {
		wp.logger.Error().Int("worker_id", workerID).Int("stage", int(stage)).Msg("no handler registered for stage, dropping job")
		return
	}

	next, err := handler.Handle(wp.ctx, job)
	if err != nil {
		wp.logger.Warn().
			Err(err).
			Int("worker_id", workerID).
			Int("stage", int(stage)).
			Int("exercise_id", job.ExerciseID).
			Msg("stage handler returned error, routing to delivery")
		if wp.trail != nil {
			if history, histErr := wp.trail.ForJob(job.ID.String()); histErr == nil {
				wp.logger.Warn().Int("transitions", len(history)).Msg("stage handler error: prior transition history")
			}
		}
		job.MarkBroken("an internal error occurred while grading this submission")
		next = models.StageDelivery
	}

	if err := wp.sq.Enqueue(next, job, models.DefaultPriority); err != nil {
		wp.logger.Error().Err(err).Msg("failed to re-enqueue job after stage handler")
	}

	if wp.trail != nil {
		if err := wp.trail.Record(job, stage, next); err != nil {
			wp.logger.Warn().Err(err).Msg("failed to record audit transition")
		}
	}
}
