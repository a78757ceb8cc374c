package optimization

import "go.uber.org/zap"

// TraceKind tags a trace snapshot so generic consumers can tell iteration
// records from line-search records.
type TraceKind string

const (
	// TraceIteration tags one completed optimizer iteration.
	TraceIteration TraceKind = "iteration"

	// TraceBracket tags one line-search trial evaluation.
	TraceBracket TraceKind = "bracket"
)

// Tracer receives one immutable snapshot per optimizer step. It is
// fire-and-forget: nothing flows back to the optimizer. Done signals that
// the run finished and no further snapshots will arrive.
type Tracer interface {
	Trace(kind TraceKind, snapshot interface{})
	Done()
}

// NopTracer discards all snapshots.
type NopTracer struct{}

// Trace implements Tracer.
func (NopTracer) Trace(TraceKind, interface{}) {}

// Done implements Tracer.
func (NopTracer) Done() {}

// ZapTracer emits one structured debug record per snapshot.
type ZapTracer struct {
	logger *zap.Logger
}

// NewZapTracer creates a tracer that logs snapshots to the given logger.
func NewZapTracer(logger *zap.Logger) *ZapTracer {
	return &ZapTracer{logger: logger}
}

// Trace implements Tracer.
func (t *ZapTracer) Trace(kind TraceKind, snapshot interface{}) {
	t.logger.Debug("optimizer step",
		zap.String("kind", string(kind)),
		zap.Any("snapshot", snapshot),
	)
}

// Done implements Tracer.
func (t *ZapTracer) Done() {
	t.logger.Debug("optimizer run complete")
}
