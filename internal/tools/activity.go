package tools

import (
	"context"
	"time"

	"github.com/quyk67uet/ai-assistant-workflow/internal/roster"
	"github.com/quyk67uet/ai-assistant-workflow/internal/store"
)

// ActivityLogResult is the chronological activity listing for a student.
// An empty Entries list is a normal outcome, not an error.
type ActivityLogResult struct {
	StudentID   string                   `json:"student_id"`
	StudentName string                   `json:"student_name"`
	Total       int                      `json:"total"`
	Entries     []store.ActivityLogEntry `json:"entries"`
}

type activityLogTool struct {
	store *store.Store
}

func (t *activityLogTool) Name() string { return "get_student_activity_log" }

func (t *activityLogTool) Description() string {
	return "Read the activity log for a student, optionally limited to a recent time range."
}

func (t *activityLogTool) Schema() Schema {
	return Schema{Fields: []Field{
		{Name: "student", Type: TypeString, Required: true, Ref: roster.KindStudent,
			Description: "The student whose activity to read."},
		{Name: "range", Type: TypeString,
			Description: "Time range filter: today, this_week or all (default all)."},
		{Name: "limit", Type: TypeInteger, Min: floatPtr(1),
			Description: "Maximum number of entries to return, most recent kept."},
	}}
}

func (t *activityLogTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	studentID := stringArg(args, "student")
	student, ok := t.store.StudentByID(studentID)
	if !ok {
		return nil, &store.NotFoundError{Kind: "student", Ref: studentID}
	}

	entries := t.store.ActivityForStudent(student.ID, rangeStart(stringArg(args, "range"), time.Now()), intArg(args, "limit"))
	return ActivityLogResult{
		StudentID:   student.ID,
		StudentName: student.Name,
		Total:       len(entries),
		Entries:     entries,
	}, nil
}

// rangeStart maps a named range to its lower bound; zero means unbounded.
func rangeStart(name string, now time.Time) time.Time {
	switch name {
	case "today":
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case "this_week":
		return now.AddDate(0, 0, -7)
	default:
		return time.Time{}
	}
}
