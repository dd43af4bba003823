package tools

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/quyk67uet/ai-assistant-workflow/internal/roster"
	"github.com/quyk67uet/ai-assistant-workflow/internal/store"
)

// NoteResult summarizes a created report note.
type NoteResult struct {
	NoteID    string `json:"note_id"`
	StudentID string `json:"student_id"`
}

type noteTool struct {
	store *store.Store
}

func (t *noteTool) Name() string { return "add_note_to_report" }

func (t *noteTool) Description() string {
	return "Add a tutor note to a student's progress report."
}

func (t *noteTool) Schema() Schema {
	return Schema{Fields: []Field{
		{Name: "student", Type: TypeString, Required: true, Ref: roster.KindStudent,
			Description: "The student whose report to annotate."},
		{Name: "note", Type: TypeString, Required: true,
			Description: "The note text to add."},
	}}
}

func (t *noteTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	studentID := stringArg(args, "student")
	student, ok := t.store.StudentByID(studentID)
	if !ok {
		return nil, &store.NotFoundError{Kind: "student", Ref: studentID}
	}

	now := time.Now().UTC()
	note := store.ReportNote{
		ID:        "note_" + uuid.NewString(),
		StudentID: student.ID,
		Text:      stringArg(args, "note"),
		CreatedAt: now,
	}
	if err := t.store.AppendReportNote(note); err != nil {
		return nil, err
	}

	entry := store.ActivityLogEntry{
		ID:          "act_" + uuid.NewString(),
		StudentID:   student.ID,
		Timestamp:   now,
		EventType:   "note_added",
		Description: "Tutor note added to progress report",
		Source:      store.SourceTutorCommand,
	}
	if err := t.store.AppendActivity(entry); err != nil {
		return nil, err
	}

	return NoteResult{NoteID: note.ID, StudentID: student.ID}, nil
}
