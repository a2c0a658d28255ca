package queue

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/dawgym/pipeline/internal/audit"
	"github.com/dawgym/pipeline/internal/interfaces"
	"github.com/dawgym/pipeline/internal/models"
)

// AdvisoryWorker is the single dedicated goroutine draining the advisory
// stage (stage 4, terminal). It is kept separate from WorkerPool because
// the advisory handler calls out to the external LLM service and must be
// throttled independently of normal-stage throughput.
type AdvisoryWorker struct {
	sq      *StepQueue
	handler interfaces.StageHandler
	logger  arbor.ILogger
	trail   *audit.Trail
	poll    time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// NewAdvisoryWorker builds a worker bound to sq, polling every poll.
// trail may be nil.
func NewAdvisoryWorker(sq *StepQueue, handler interfaces.StageHandler, logger arbor.ILogger, trail *audit.Trail, poll time.Duration) *AdvisoryWorker {
	ctx, cancel := context.WithCancel(context.Background())
	return &AdvisoryWorker{sq: sq, handler: handler, logger: logger, trail: trail, poll: poll, ctx: ctx, cancel: cancel}
}

// Start launches the worker goroutine.
func (aw *AdvisoryWorker) Start() {
	go aw.run()
}

// Stop cancels the worker.
func (aw *AdvisoryWorker) Stop() {
	aw.cancel()
}

func (aw *AdvisoryWorker) run() {
	ticker := time.NewTicker(aw.poll)
	defer ticker.Stop()

	for {
		select {
		case <-aw.ctx.Done():
			aw.logger.Debug().Msg("advisory worker stopped")
			return
		case <-ticker.C:
			job, ok := aw.sq.TakeTerminal(models.StageAdvisory)
			if !ok {
				continue
			}
			aw.process(job)
		}
	}
}

func (aw *AdvisoryWorker) process(job *models.Job) {
	next, err := aw.handler.Handle(aw.ctx, job)
	if err != nil {
		aw.logger.Warn().Err(err).Int("exercise_id", job.ExerciseID).Msg("advisory handler error, routing to delivery anyway")
		next = models.StageDelivery
	}
	if err := aw.sq.Enqueue(next, job, models.DefaultPriority); err != nil {
		aw.logger.Error().Err(err).Msg("failed to re-enqueue job after advisory handler")
	}

	if aw.trail != nil {
		if err := aw.trail.Record(job, models.StageAdvisory, next); err != nil {
			aw.logger.Warn().Err(err).Msg("failed to record audit transition")
		}
	}
}
