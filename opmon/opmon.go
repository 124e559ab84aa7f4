// Package opmon implements the periodic progress report and cooperative
// cancellation check every operator driver polls at the same cadence
// between tuples. A real engine's countdown-progress callback is an opaque
// collaborator; this package stands in for it with a span log event plus a
// context cancellation check, so drivers never need a bespoke channel.
package opmon

import (
	"context"

	"github.com/cockroachdb/logtags"
	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"

	"github.com/cockroachdb/idxexec/planspec"
)

// defaultCadence is how many tuples a Monitor lets pass between progress
// checks when the caller does not specify one.
const defaultCadence = 1000

// Monitor tracks one driver invocation's progress and cancellation state.
// It is not safe for concurrent use; a driver owns exactly one Monitor for
// the duration of its execute call.
type Monitor struct {
	logger  *zap.Logger
	opID    uuid.UUID
	cadence int
	seen    int
}

// New starts a Monitor for one invocation of a driver against index, and
// returns a context tagged with the index identity and operation id, the
// way pkg/sql/internal.go tags an internal executor's context with its
// operation name.
func New(
	ctx context.Context, logger *zap.Logger, index planspec.IndexRef, cadence int,
) (*Monitor, context.Context) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cadence <= 0 {
		cadence = defaultCadence
	}
	m := &Monitor{logger: logger, opID: uuid.New(), cadence: cadence}
	ctx = logtags.AddTag(ctx, "idx", index.IndexName)
	ctx = logtags.AddTag(ctx, "op", m.opID.String())
	return m, ctx
}

// Tick should be called once per candidate tuple. Every cadence calls it
// logs a best-effort progress event to the active trace span (if the
// caller's context carries one) and checks ctx
// for cancellation. It returns ctx.Err() once the caller should abort its
// loop; the caller is responsible for finalizing any inline aggregate and
// releasing its cursor before propagating that error.
func (m *Monitor) Tick(ctx context.Context) error {
	m.seen++
	if m.seen%m.cadence != 0 {
		return nil
	}
	if sp := opentracing.SpanFromContext(ctx); sp != nil {
		sp.LogKV("event", "countdown-progress", "tuples", m.seen, "op", m.opID.String())
	}
	m.logger.Debug("countdown progress", zap.Int("tuples", m.seen), zap.String("op", m.opID.String()))
	select {
	case <-ctx.Done():
		m.logger.Warn("driver invocation canceled", zap.Int("tuples", m.seen), zap.String("op", m.opID.String()))
		return ctx.Err()
	default:
		return nil
	}
}
