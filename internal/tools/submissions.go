package tools

import (
	"context"

	"github.com/quyk67uet/ai-assistant-workflow/internal/store"
)

// SubmissionListResult lists submissions still waiting for a grade.
type SubmissionListResult struct {
	Total       int                `json:"total"`
	Submissions []store.Submission `json:"submissions"`
}

type listSubmissionsTool struct {
	store *store.Store
}

func (t *listSubmissionsTool) Name() string { return "list_available_submissions" }

func (t *listSubmissionsTool) Description() string {
	return "List all submissions that can still be graded."
}

func (t *listSubmissionsTool) Schema() Schema {
	return Schema{}
}

func (t *listSubmissionsTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	subs := t.store.Submissions(store.SubmissionSubmitted)
	return SubmissionListResult{Total: len(subs), Submissions: subs}, nil
}
