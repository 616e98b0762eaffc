package nas

import (
	"context"
	"errors"

	routeros "github.com/go-routeros/routeros/v3"
	"github.com/rs/zerolog"

	"github.com/owagajadoh/hotspot-billing/internal/infra/metrics"
)

// Executor turns controller replies into plain row maps so callers never
// touch the wire library. Commands are API paths like
// "/ip/hotspot/user/print"; args are pre-encoded words ("?name=x", "=.id=y").
type Executor struct {
	sess SessionProvider
	log  *zerolog.Logger
}

func NewExecutor(sess SessionProvider, logger *zerolog.Logger) *Executor {
	l := logger.With().Str("component", "NASExecutor").Logger()
	return &Executor{sess: sess, log: &l}
}

// Query runs a read command and returns one map per reply row. When the
// reply carries no rows but a populated completion sentence, that sentence
// is returned as the single row.
func (e *Executor) Query(ctx context.Context, command string, args ...string) ([]map[string]string, error) {
	reply, err := e.run(ctx, command, args)
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]string, 0, len(reply.Re))
	for _, s := range reply.Re {
		rows = append(rows, s.Map)
	}
	if len(rows) == 0 && reply.Done != nil && len(reply.Done.Map) > 0 {
		rows = append(rows, reply.Done.Map)
	}
	return rows, nil
}

// Print is Query with failures degraded to an empty result. Read paths use
// it so a flaky controller looks like "nothing there" and the write that
// follows decides what to do.
func (e *Executor) Print(ctx context.Context, command string, args ...string) []map[string]string {
	rows, err := e.Query(ctx, command, args...)
	if err != nil {
		e.log.Warn().Err(err).Str("command", command).Msg("controller read failed, treating as empty")
		return nil
	}
	return rows
}

// Do runs a write command, discarding the reply body.
func (e *Executor) Do(ctx context.Context, command string, args ...string) error {
	_, err := e.run(ctx, command, args)
	return err
}

func (e *Executor) run(ctx context.Context, command string, args []string) (*routeros.Reply, error) {
	conn, err := e.sess.Acquire(ctx)
	if err != nil {
		metrics.IncNASCommand(command, "unavailable")
		return nil, err
	}

	sentence := append([]string{command}, args...)
	reply, err := conn.RunArgs(sentence)
	if err != nil {
		// A trap is the controller rejecting the command over a healthy
		// session; only transport failures warrant a reconnect.
		var devErr *routeros.DeviceError
		if !errors.As(err, &devErr) {
			e.sess.Invalidate(conn)
			metrics.IncNASCommand(command, "transport_error")
		} else {
			metrics.IncNASCommand(command, "rejected")
		}
		return nil, err
	}
	metrics.IncNASCommand(command, "ok")
	return reply, nil
}
