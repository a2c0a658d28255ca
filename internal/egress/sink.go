// Package egress delivers finished jobs to the external result sink and
// drives the delivery loop that drains the terminal delivery stage.
package egress

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/dawgym/pipeline/internal/interfaces"
	"github.com/dawgym/pipeline/internal/models"
	"github.com/dawgym/pipeline/internal/wire"
)

// statusMessage and terminateMessage are the two request shapes the
// sink understands.
type statusMessage struct {
	Op string `json:"op"`
}

type statusReply struct {
	Code int `json:"code"`
}

type terminateMessage struct {
	Op      string                  `json:"op"`
	Payload models.DeliveryPayload `json:"payload"`
}

type terminateReply struct {
	OK bool `json:"ok"`
}

// Sink is the IPC client implementing interfaces.ResultSink over the
// shared wire framing, instantiated fresh on every reconnect.
type Sink struct {
	addr      string
	sharedKey string
	conn      net.Conn
}

// NewSink dials addr and performs the PSK handshake.
func NewSink(ctx context.Context, addr, sharedKey string) (*Sink, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("egress: dial %s: %w", addr, err)
	}
	if err := wire.ClientHandshake(conn, sharedKey); err != nil {
		conn.Close()
		return nil, fmt.Errorf("egress: handshake: %w", err)
	}
	return &Sink{addr: addr, sharedKey: sharedKey, conn: conn}, nil
}

// Close releases the underlying connection.
func (s *Sink) Close() error {
	return s.conn.Close()
}

// Status implements interfaces.ResultSink.
func (s *Sink) Status(ctx context.Context) (int, error) {
	if err := wire.WriteFrame(s.conn, statusMessage{Op: "status"}); err != nil {
		return 0, err
	}
	var reply statusReply
	if err := wire.ReadFrame(s.conn, &reply); err != nil {
		return 0, err
	}
	return reply.Code, nil
}

// Terminate implements interfaces.ResultSink.
func (s *Sink) Terminate(ctx context.Context, payload models.DeliveryPayload) error {
	if err := wire.WriteFrame(s.conn, terminateMessage{Op: "terminate", Payload: payload}); err != nil {
		return err
	}
	var reply terminateReply
	if err := wire.ReadFrame(s.conn, &reply); err != nil {
		return err
	}
	if !reply.OK {
		return fmt.Errorf("egress: sink rejected terminate payload")
	}
	return nil
}

var _ interfaces.ResultSink = (*Sink)(nil)

// backoff returns the sleep duration for a failure. A transport-level
// error (couldn't dial, couldn't handshake) backs off longer than an
// unexpected status code from a reachable sink.
func backoff(transportFault bool) time.Duration {
	if transportFault {
		return 10 * time.Second
	}
	return 5 * time.Second
}
