// Package interpret turns free-form tutor instructions into an ordered
// list of proposed tool calls. The linguistic work is delegated to a
// Planner, an opaque external capability; this package owns everything
// around it: structural validation against the tool catalog, a single
// strict retry on malformed output, and resolution of natural-language
// entity references to canonical record IDs.
package interpret

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/quyk67uet/ai-assistant-workflow/internal/roster"
	"github.com/quyk67uet/ai-assistant-workflow/internal/store"
	"github.com/quyk67uet/ai-assistant-workflow/internal/tools"
)

// DefaultTimeout bounds one interpretation, including the strict retry.
const DefaultTimeout = 30 * time.Second

// ProposedCall is one (tool, arguments) pair proposed by the planner.
// Order matters: later calls may depend on store state produced by
// earlier ones.
type ProposedCall struct {
	Tool string                 `json:"tool"`
	Args map[string]interface{} `json:"args"`
}

// Plan is the planner's structured answer: an ordered call list, or a
// plain textual reply when the instruction needs no action.
type Plan struct {
	Calls []ProposedCall
	Reply string

	// Retried is set when the plan was only accepted after the strict
	// re-prompt.
	Retried bool
}

// PlanRequest carries everything the planner may use: the instruction,
// the tool catalog, and the current roster as resolution vocabulary.
// Strict is set on the retry after malformed output, with Complaint
// describing what was wrong.
type PlanRequest struct {
	Instruction     string
	Catalog         []tools.Declaration
	Students        []store.Student
	LearningObjects []store.LearningObject
	Strict          bool
	Complaint       string
}

// Planner is the opaque natural-language capability.
type Planner interface {
	Plan(ctx context.Context, req PlanRequest) (*Plan, error)
}

// ParseError reports planner output that stayed malformed after the
// strict retry: unknown tool names, missing required arguments, or an
// undecodable response shape.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "interpret: malformed planner output: " + e.Reason
}

// ServiceError reports that the planner itself failed or did not answer
// within the timeout. Nothing was executed.
type ServiceError struct {
	TimedOut bool
	Err      error
}

func (e *ServiceError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("interpret: planner timed out: %v", e.Err)
	}
	return fmt.Sprintf("interpret: planner failed: %v", e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// RosterSource provides the resolution vocabulary. Satisfied by
// *store.Store.
type RosterSource interface {
	Students() []store.Student
	LearningObjects() []store.LearningObject
}

// Interpreter validates and resolves planner output.
type Interpreter struct {
	planner  Planner
	registry *tools.Registry
	resolver *roster.Resolver
	source   RosterSource
	timeout  time.Duration
	logger   *zap.Logger
}

// New creates an interpreter. A timeout of zero uses DefaultTimeout.
func New(planner Planner, registry *tools.Registry, resolver *roster.Resolver, source RosterSource, timeout time.Duration, logger *zap.Logger) *Interpreter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interpreter{
		planner:  planner,
		registry: registry,
		resolver: resolver,
		source:   source,
		timeout:  timeout,
		logger:   logger,
	}
}

// Interpret turns an instruction into an ordered, resolved call list.
// Any error return means nothing was and nothing will be executed for
// this command.
func (i *Interpreter) Interpret(ctx context.Context, instruction string) (*Plan, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	tracer := otel.Tracer("tutor-command-center/interpret")
	ctx, span := tracer.Start(ctx, "command.interpret")
	defer span.End()

	req := PlanRequest{
		Instruction:     instruction,
		Catalog:         i.registry.Declarations(),
		Students:        i.source.Students(),
		LearningObjects: i.source.LearningObjects(),
	}

	plan, err := i.planner.Plan(ctx, req)
	if err != nil {
		return nil, serviceError(err)
	}

	if complaint := i.checkStructure(plan); complaint != "" {
		i.logger.Warn("malformed planner output, retrying strict",
			zap.String("complaint", complaint))
		req.Strict = true
		req.Complaint = complaint
		plan, err = i.planner.Plan(ctx, req)
		if err != nil {
			return nil, serviceError(err)
		}
		if complaint = i.checkStructure(plan); complaint != "" {
			span.SetAttributes(attribute.String("interpret.error", "parse"))
			return nil, &ParseError{Reason: complaint}
		}
		plan.Retried = true
	}

	if err := i.resolveReferences(plan); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("interpret.calls", len(plan.Calls)))
	i.logger.Info("instruction interpreted",
		zap.Int("calls", len(plan.Calls)))
	return plan, nil
}

func serviceError(err error) error {
	return &ServiceError{
		TimedOut: errors.Is(err, context.DeadlineExceeded),
		Err:      err,
	}
}

// checkStructure verifies the call list against the registry: every tool
// name must be registered and every required argument present. Returns
// an empty string when the plan is acceptable.
func (i *Interpreter) checkStructure(plan *Plan) string {
	if plan == nil {
		return "planner returned no plan"
	}
	for idx, call := range plan.Calls {
		tool := i.registry.Get(call.Tool)
		if tool == nil {
			return fmt.Sprintf("call %d names unknown tool %q", idx+1, call.Tool)
		}
		if err := tool.Schema().RequiredPresent(call.Tool, call.Args); err != nil {
			return fmt.Sprintf("call %d (%s): %v", idx+1, call.Tool, err)
		}
	}
	return ""
}

// resolveReferences rewrites referential arguments to canonical IDs.
// An ambiguous reference aborts the whole command; a reference matching
// nothing is left verbatim so the executor reports it against its own
// call instead of sinking the others.
func (i *Interpreter) resolveReferences(plan *Plan) error {
	for _, call := range plan.Calls {
		tool := i.registry.Get(call.Tool)
		for _, field := range tool.Schema().Fields {
			if field.Ref == "" {
				continue
			}
			raw, ok := call.Args[field.Name]
			if !ok || raw == nil {
				continue
			}
			switch val := raw.(type) {
			case string:
				resolved, err := i.resolveOne(field.Ref, val)
				if err != nil {
					return err
				}
				call.Args[field.Name] = resolved
			case []interface{}:
				for idx, item := range val {
					ref, ok := item.(string)
					if !ok {
						continue
					}
					resolved, err := i.resolveOne(field.Ref, ref)
					if err != nil {
						return err
					}
					val[idx] = resolved
				}
			}
		}
	}
	return nil
}

func (i *Interpreter) resolveOne(kind roster.Kind, ref string) (string, error) {
	id, err := i.resolver.Resolve(kind, ref)
	if err == nil {
		return id, nil
	}
	var amb *roster.AmbiguousError
	if errors.As(err, &amb) {
		return "", amb
	}
	// No match: keep the reference verbatim for per-call reporting.
	return ref, nil
}
