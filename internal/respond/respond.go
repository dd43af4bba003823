// Package respond aggregates per-call execution outcomes into the
// single response a tutor sees: an overall status, a human-readable
// summary, and the detail of every call, failed ones included.
package respond

import (
	"errors"
	"fmt"
	"strings"

	"github.com/quyk67uet/ai-assistant-workflow/internal/executor"
	"github.com/quyk67uet/ai-assistant-workflow/internal/store"
	"github.com/quyk67uet/ai-assistant-workflow/internal/tools"
)

// Status is the overall verdict over a command's call list.
type Status string

const (
	StatusSuccess        Status = "success"
	StatusPartialSuccess Status = "partial_success"
	StatusFailure        Status = "failure"
)

// CallOutcome is the per-call detail included in a response.
type CallOutcome struct {
	Tool   string                 `json:"tool"`
	Args   map[string]interface{} `json:"args,omitempty"`
	OK     bool                   `json:"ok"`
	Result interface{}            `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// Response is what the tutor gets back for one command.
type Response struct {
	Status  Status        `json:"status"`
	Message string        `json:"message"`
	Calls   []CallOutcome `json:"calls,omitempty"`
}

// Aggregate folds execution outcomes into one response. A command that
// proposed no calls answers with the planner's textual reply and counts
// as a success.
func Aggregate(outcomes []executor.Outcome, reply string) Response {
	if len(outcomes) == 0 {
		msg := reply
		if msg == "" {
			msg = "Nothing to do."
		}
		return Response{Status: StatusSuccess, Message: msg}
	}

	resp := Response{Calls: make([]CallOutcome, 0, len(outcomes))}
	succeeded := 0
	var failures []string
	for _, o := range outcomes {
		co := CallOutcome{Tool: o.Call.Tool, Args: o.Call.Args, OK: o.OK()}
		if o.OK() {
			succeeded++
			co.Result = o.Result
		} else {
			co.Error = describe(o.Err)
			failures = append(failures, fmt.Sprintf("%s: %s", o.Call.Tool, co.Error))
		}
		resp.Calls = append(resp.Calls, co)
	}

	total := len(outcomes)
	switch {
	case succeeded == total:
		resp.Status = StatusSuccess
		resp.Message = fmt.Sprintf("All %d action(s) completed.", total)
	case succeeded == 0:
		resp.Status = StatusFailure
		resp.Message = fmt.Sprintf("None of the %d action(s) could be completed. %s",
			total, strings.Join(failures, "; "))
	default:
		resp.Status = StatusPartialSuccess
		resp.Message = fmt.Sprintf("%d of %d action(s) completed. %s",
			succeeded, total, strings.Join(failures, "; "))
	}
	return resp
}

// Failure builds a response for commands that never reached execution,
// such as uninterpretable instructions.
func Failure(message string) Response {
	return Response{Status: StatusFailure, Message: message}
}

// describe renders a call error in tutor-facing terms.
func describe(err error) string {
	var nf *store.NotFoundError
	if errors.As(err, &nf) {
		return fmt.Sprintf("no %s matches %q", nf.Kind, nf.Ref)
	}
	var ve *tools.ValidationError
	if errors.As(err, &ve) {
		return fmt.Sprintf("invalid %s: %s", ve.Field, ve.Reason)
	}
	return err.Error()
}
