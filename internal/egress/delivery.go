package egress

import (
	"context"
	"os"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/dawgym/pipeline/internal/models"
	"github.com/dawgym/pipeline/internal/queue"
)

// Loop is the single consumer of the delivery stage. It owns its Sink
// and reconnects on every failure rather than retrying the same
// connection.
type Loop struct {
	sq               *queue.StepQueue
	addr, sharedKey  string
	maxConsecFailure int
	poll             time.Duration
	logger           arbor.ILogger
}

// NewLoop builds a delivery loop bound to sq, dialing addr on demand.
func NewLoop(sq *queue.StepQueue, addr, sharedKey string, maxConsecFailure int, poll time.Duration, logger arbor.ILogger) *Loop {
	return &Loop{sq: sq, addr: addr, sharedKey: sharedKey, maxConsecFailure: maxConsecFailure, poll: poll, logger: logger}
}

// Run drains the delivery stage until ctx is canceled or the consecutive
// failure count reaches the cap, in which case it terminates the process.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	var sink *Sink
	consecFailures := 0

	for {
		select {
		case <-ctx.Done():
			if sink != nil {
				sink.Close()
			}
			return
		case <-ticker.C:
		}

		job, ok := l.sq.TakeTerminal(models.StageDelivery)
		if !ok {
			continue
		}

		missing := models.Validate(job)
		if len(missing) > 0 {
			l.logger.Error().Strs("missing_fields", missing).Msg("egress: corrupted job payload, clearing snapshot and exiting")
			l.sq.Clear()
			os.Exit(1)
		}

		if sink == nil {
			s, err := NewSink(ctx, l.addr, l.sharedKey)
			if err != nil {
				consecFailures++
				l.logger.Warn().Err(err).Int("consecutive_failures", consecFailures).Msg("egress: could not connect to sink")
				if l.giveUp(consecFailures) {
					return
				}
				l.requeue(job)
				time.Sleep(backoff(true))
				continue
			}
			sink = s
		}

		if err := l.deliver(ctx, sink, job); err != nil {
			consecFailures++
			l.logger.Warn().Err(err).Int("consecutive_failures", consecFailures).Msg("egress: delivery failed")
			sink.Close()
			sink = nil
			if l.giveUp(consecFailures) {
				return
			}
			l.requeue(job)
			time.Sleep(backoff(false))
			continue
		}

		consecFailures = 0
	}
}

func (l *Loop) giveUp(consecFailures int) bool {
	if consecFailures < l.maxConsecFailure {
		return false
	}
	l.logger.Error().Int("consecutive_failures", consecFailures).Msg("egress: reached consecutive failure cap, terminating process")
	os.Exit(1)
	return true
}

func (l *Loop) requeue(job *models.Job) {
	if err := l.sq.Enqueue(models.StageDelivery, job, models.DefaultPriority); err != nil {
		l.logger.Error().Err(err).Msg("egress: could not re-enqueue job after failed delivery")
	}
}

func (l *Loop) deliver(ctx context.Context, sink *Sink, job *models.Job) error {
	code, err := sink.Status(ctx)
	if err != nil {
		return err
	}
	if code != 200 {
		return statusError(code)
	}

	payload := models.ToPayload(job)
	if err := sink.Terminate(ctx, payload); err != nil {
		return err
	}

	if err := l.sq.Snapshot(); err != nil {
		l.logger.Warn().Err(err).Msg("egress: snapshot after delivery failed")
	}
	if job.WorkspacePath != "" {
		if err := os.RemoveAll(job.WorkspacePath); err != nil {
			l.logger.Warn().Err(err).Str("path", job.WorkspacePath).Msg("egress: could not remove workspace")
		}
	}
	return nil
}

type statusError int

func (e statusError) Error() string {
	return "egress: unexpected status code"
}
