// Package ingress accepts authenticated job descriptors over a raw
// stream socket and enqueues them.
package ingress

import (
	"context"
	"fmt"
	"net"

	"github.com/ternarybob/arbor"

	"github.com/dawgym/pipeline/internal/models"
	"github.com/dawgym/pipeline/internal/queue"
	"github.com/dawgym/pipeline/internal/wire"
)

// jobMessage is the wire shape of an incoming job descriptor. Stage
// defaults to extraction (0) when omitted, the common case of a brand
// new submission; a caller replaying a job after a crash can set it
// explicitly to any stage. Priority is a pointer so an explicit 0 (the
// highest priority) is distinguishable from an omitted field.
type jobMessage struct {
	ExerciseID    int    `json:"exercise_id"`
	Category      string `json:"category"`
	UserID        int    `json:"user_id"`
	WorkspacePath string `json:"workspace_path"`
	Stage         *int   `json:"stage"`
	Priority      *int   `json:"priority"`
}

// Listener accepts one long-lived authenticated connection at a time on
// addr and feeds descriptors into sq. A connection or framing error
// closes the current connection and the listener loops to accept the
// next one; it never terminates the process.
type Listener struct {
	addr      string
	sharedKey string
	sq        *queue.StepQueue
	logger    arbor.ILogger
}

// New builds a Listener bound to addr.
func New(addr, sharedKey string, sq *queue.StepQueue, logger arbor.ILogger) *Listener {
	return &Listener{addr: addr, sharedKey: sharedKey, sq: sq, logger: logger}
}

// Run accepts connections until ctx is canceled.
func (l *Listener) Run(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", l.addr)
	if err != nil {
		return fmt.Errorf("ingress: listen %s: %w", l.addr, err)
	}
	defer ln.Close()

	l.logger.Info().Str("addr", l.addr).Msg("ingress listener started")

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			l.logger.Warn().Err(err).Msg("ingress: accept error, retrying")
			continue
		}
		l.handleConn(ctx, conn)
	}
}

// handleConn serves one connection to completion. Any error (reset,
// unexpected EOF, bad framing, auth failure) just closes this
// connection; the caller's Accept loop picks up the next one.
func (l *Listener) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	if err := wire.ServerHandshake(conn, l.sharedKey); err != nil {
		l.logger.Warn().Err(err).Msg("ingress: handshake failed")
		return
	}

	for {
		var msg jobMessage
		if err := wire.ReadFrame(conn, &msg); err != nil {
			l.logger.Debug().Err(err).Msg("ingress: connection closed")
			return
		}

		job := models.NewJob(msg.ExerciseID, msg.UserID, msg.Category, msg.WorkspacePath)
		stage := models.StageExtract
		if msg.Stage != nil {
			stage = models.Stage(*msg.Stage)
		}
		priority := models.DefaultPriority
		if msg.Priority != nil {
			priority = *msg.Priority
		}

		if err := l.sq.Enqueue(stage, job, priority); err != nil {
			l.logger.Warn().Err(err).Msg("ingress: could not enqueue job")
			continue
		}
		l.logger.Info().Int("exercise_id", job.ExerciseID).Int("stage", int(stage)).Msg("ingress: job enqueued")
	}
}
