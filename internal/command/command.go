// Package command orchestrates one tutor command end to end:
// interpret the instruction, execute the resulting call list, aggregate
// the outcomes, and keep the session audit trail.
package command

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/quyk67uet/ai-assistant-workflow/internal/executor"
	"github.com/quyk67uet/ai-assistant-workflow/internal/interpret"
	"github.com/quyk67uet/ai-assistant-workflow/internal/respond"
	"github.com/quyk67uet/ai-assistant-workflow/internal/roster"
	"github.com/quyk67uet/ai-assistant-workflow/internal/session"
	"github.com/quyk67uet/ai-assistant-workflow/internal/store"
)

// Category classifies how a command ended, one level above the
// per-call detail in the response.
type Category string

const (
	CategorySuccess               Category = "success"
	CategoryPartialSuccess        Category = "partial_success"
	CategoryValidationFailure     Category = "validation_failure"
	CategoryInterpretationFailure Category = "interpretation_failure"
	CategoryStoreIOFailure        Category = "store_io_failure"
)

// Request is one instruction from one tutor.
type Request struct {
	TutorID string `json:"tutor_id,omitempty"`
	Text    string `json:"text"`
}

// Result is the service's answer: the response shown to the tutor plus
// the category and the audit session it was recorded under.
type Result struct {
	SessionID string           `json:"session_id,omitempty"`
	Category  Category         `json:"category"`
	Response  respond.Response `json:"response"`
}

// Service wires the interpreter, executor and session log together.
type Service struct {
	interp   *interpret.Interpreter
	exec     *executor.Executor
	sessions *session.Manager
	logger   *zap.Logger
}

// NewService creates the command service. The session manager may be
// nil, in which case no audit trail is written.
func NewService(interp *interpret.Interpreter, exec *executor.Executor, sessions *session.Manager, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{interp: interp, exec: exec, sessions: sessions, logger: logger}
}

// Handle runs one command. The error return is reserved for
// infrastructure faults (the audit log itself failing); everything the
// tutor can cause comes back inside the Result.
func (s *Service) Handle(ctx context.Context, req Request) (*Result, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return &Result{
			Category: CategoryInterpretationFailure,
			Response: respond.Failure("The instruction is empty."),
		}, nil
	}

	sess, err := s.openSession(req.TutorID, text)
	if err != nil {
		return nil, err
	}

	plan, err := s.interp.Interpret(ctx, text)
	if err != nil {
		s.logger.Warn("interpretation failed", zap.Error(err))
		return s.finish(sess, &Result{
			Category: CategoryInterpretationFailure,
			Response: respond.Failure(interpretationMessage(err)),
		}, err)
	}
	if plan.Retried {
		s.record(sess, session.Event{
			Type:    session.EventRetry,
			Content: "planner output was malformed; re-prompted in strict mode",
		})
	}
	s.record(sess, session.Event{
		Type:    session.EventInterpreted,
		Content: planSummary(plan),
	})

	outcomes, execErr := s.exec.Run(ctx, plan.Calls)
	for _, o := range outcomes {
		s.recordOutcome(sess, o)
	}

	result := &Result{Response: respond.Aggregate(outcomes, plan.Reply)}

	var ioErr *store.IOError
	switch {
	case errors.As(execErr, &ioErr):
		result.Category = CategoryStoreIOFailure
		result.Response.Message = "The record store failed; remaining actions were not attempted. " +
			result.Response.Message
	case execErr != nil:
		// Context cancellation mid-list: report what did run.
		result.Category = CategoryPartialSuccess
		result.Response.Status = respond.StatusPartialSuccess
		if len(outcomes) == 0 {
			result.Response.Message = "The command was interrupted before any actions ran."
		} else {
			result.Response.Message = "The command was interrupted before all actions ran. " +
				result.Response.Message
		}
	case result.Response.Status == respond.StatusSuccess:
		result.Category = CategorySuccess
	case result.Response.Status == respond.StatusPartialSuccess:
		result.Category = CategoryPartialSuccess
	default:
		result.Category = CategoryValidationFailure
	}

	return s.finish(sess, result, execErr)
}

func (s *Service) openSession(tutorID, text string) (*session.Session, error) {
	if s.sessions == nil {
		return nil, nil
	}
	sess, err := s.sessions.Create(tutorID, text)
	if err != nil {
		return nil, err
	}
	sess.AddEvent(session.Event{Type: session.EventReceived, Content: text})
	return sess, nil
}

func (s *Service) record(sess *session.Session, evt session.Event) {
	if sess != nil {
		sess.AddEvent(evt)
	}
}

func (s *Service) recordOutcome(sess *session.Session, o executor.Outcome) {
	if sess == nil {
		return
	}
	sess.AddEvent(session.Event{
		Type:      session.EventCallStart,
		Timestamp: o.Started,
		Tool:      o.Call.Tool,
		Args:      o.Call.Args,
	})
	ok := o.OK()
	evt := session.Event{
		Type:       session.EventCallEnd,
		Timestamp:  o.Started.Add(o.Duration),
		Tool:       o.Call.Tool,
		Success:    &ok,
		DurationMs: o.Duration.Milliseconds(),
	}
	if o.Err != nil {
		evt.Error = o.Err.Error()
	}
	sess.AddEvent(evt)
}

func (s *Service) finish(sess *session.Session, result *Result, cause error) (*Result, error) {
	if sess == nil {
		return result, nil
	}
	result.SessionID = sess.ID
	s.record(sess, session.Event{
		Type:    session.EventResponded,
		Content: result.Response.Message,
	})
	switch result.Category {
	case CategorySuccess, CategoryPartialSuccess:
		sess.Status = session.StatusComplete
	default:
		sess.Status = session.StatusFailed
		if cause != nil {
			sess.Error = cause.Error()
		}
	}
	if err := s.sessions.Update(sess); err != nil {
		return nil, err
	}
	return result, nil
}

// interpretationMessage phrases interpreter errors for the tutor.
func interpretationMessage(err error) string {
	var amb *roster.AmbiguousError
	if errors.As(err, &amb) {
		return amb.Error() + ". Nothing was changed; please name the one you mean."
	}
	var se *interpret.ServiceError
	if errors.As(err, &se) && se.TimedOut {
		return "Interpreting the instruction took too long. Nothing was changed; please try again."
	}
	var pe *interpret.ParseError
	if errors.As(err, &pe) {
		return "The instruction could not be turned into valid actions. Nothing was changed."
	}
	return "The instruction could not be interpreted. Nothing was changed."
}

func planSummary(plan *interpret.Plan) string {
	if len(plan.Calls) == 0 {
		return "no actions proposed"
	}
	names := make([]string, len(plan.Calls))
	for i, c := range plan.Calls {
		names[i] = c.Tool
	}
	return strings.Join(names, ", ")
}
