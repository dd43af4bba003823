// Package executor runs an interpreted call list against the tool
// registry. Calls run strictly in order; a failing call is recorded and
// the remaining calls still run, except when the record store itself
// fails, which aborts the remainder.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/quyk67uet/ai-assistant-workflow/internal/interpret"
	"github.com/quyk67uet/ai-assistant-workflow/internal/store"
	"github.com/quyk67uet/ai-assistant-workflow/internal/tools"
)

// Outcome is the result of one call: either a tool result or the error
// that stopped it. Exactly one of Result and Err is meaningful.
// Started and Duration time the call for the audit trail.
type Outcome struct {
	Call     interpret.ProposedCall
	Result   interface{}
	Err      error
	Started  time.Time
	Duration time.Duration
}

// OK reports whether the call succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// Executor dispatches validated calls to their registered tools.
type Executor struct {
	registry *tools.Registry
	logger   *zap.Logger
}

// New creates an executor over the given registry.
func New(registry *tools.Registry, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{registry: registry, logger: logger}
}

// Run executes the calls in order and returns one outcome per call
// attempted. The error return is non-nil only for fatal conditions
// (store I/O failure, context cancellation); in that case the returned
// outcomes cover the calls attempted before the abort, including the
// failing one.
func (e *Executor) Run(ctx context.Context, calls []interpret.ProposedCall) ([]Outcome, error) {
	ctx, span := e.startRunSpan(ctx, len(calls))
	outcomes := make([]Outcome, 0, len(calls))

	for idx, call := range calls {
		if err := ctx.Err(); err != nil {
			e.endRunSpan(span, outcomes, err)
			return outcomes, err
		}

		outcome := e.runOne(ctx, call)
		outcomes = append(outcomes, outcome)

		if outcome.Err == nil {
			e.logger.Info("call succeeded",
				zap.Int("index", idx),
				zap.String("tool", call.Tool))
			continue
		}

		var ioErr *store.IOError
		if errors.As(outcome.Err, &ioErr) {
			e.logger.Error("record store failed, aborting remaining calls",
				zap.Int("index", idx),
				zap.String("tool", call.Tool),
				zap.Error(ioErr))
			e.endRunSpan(span, outcomes, ioErr)
			return outcomes, ioErr
		}

		e.logger.Warn("call failed",
			zap.Int("index", idx),
			zap.String("tool", call.Tool),
			zap.Error(outcome.Err))
	}

	e.endRunSpan(span, outcomes, nil)
	return outcomes, nil
}

func (e *Executor) runOne(ctx context.Context, call interpret.ProposedCall) (outcome Outcome) {
	started := time.Now()
	outcome = Outcome{Call: call, Started: started.UTC()}
	defer func() { outcome.Duration = time.Since(started) }()

	tool := e.registry.Get(call.Tool)
	if tool == nil {
		// The interpreter screens tool names; this guards direct callers.
		outcome.Err = fmt.Errorf("unknown tool %q", call.Tool)
		return outcome
	}

	if err := tool.Schema().Validate(call.Tool, call.Args); err != nil {
		outcome.Err = err
		return outcome
	}

	ctx, span := e.startCallSpan(ctx, call.Tool)
	outcome.Result, outcome.Err = tool.Execute(ctx, call.Args)
	e.endCallSpan(span, outcome.Err)
	return outcome
}
