package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quyk67uet/ai-assistant-workflow/internal/roster"
	"github.com/quyk67uet/ai-assistant-workflow/internal/store"
)

// PathwayResult summarizes a created learning pathway.
type PathwayResult struct {
	PathwayID string   `json:"pathway_id"`
	StudentID string   `json:"student_id"`
	Topics    []string `json:"topics"`
}

type pathwayTool struct {
	store *store.Store
}

func (t *pathwayTool) Name() string { return "create_custom_pathway" }

func (t *pathwayTool) Description() string {
	return "Create a custom learning pathway for a student from an ordered list of learning objects."
}

func (t *pathwayTool) Schema() Schema {
	return Schema{Fields: []Field{
		{Name: "student", Type: TypeString, Required: true, Ref: roster.KindStudent,
			Description: "The student the pathway is for."},
		{Name: "learning_objects", Type: TypeStringList, Required: true, Ref: roster.KindLearningObject,
			Description: "Ordered learning objects making up the pathway."},
	}}
}

func (t *pathwayTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	studentID := stringArg(args, "student")
	student, ok := t.store.StudentByID(studentID)
	if !ok {
		return nil, &store.NotFoundError{Kind: "student", Ref: studentID}
	}

	objectIDs := stringListArg(args, "learning_objects")
	titles := make([]string, 0, len(objectIDs))
	for _, id := range objectIDs {
		lo, ok := t.store.LearningObjectByID(id)
		if !ok {
			return nil, &store.NotFoundError{Kind: "learning object", Ref: id}
		}
		titles = append(titles, lo.Title)
	}

	now := time.Now().UTC()
	pathway := store.Pathway{
		ID:                "path_" + uuid.NewString(),
		StudentID:         student.ID,
		LearningObjectIDs: objectIDs,
		CreatedAt:         now,
		Status:            "active",
	}
	if err := t.store.AppendPathway(pathway); err != nil {
		return nil, err
	}

	entry := store.ActivityLogEntry{
		ID:          "act_" + uuid.NewString(),
		StudentID:   student.ID,
		Timestamp:   now,
		EventType:   "pathway_created",
		Description: fmt.Sprintf("Custom pathway created with %d learning object(s)", len(objectIDs)),
		Source:      store.SourceTutorCommand,
	}
	if err := t.store.AppendActivity(entry); err != nil {
		return nil, err
	}

	return PathwayResult{PathwayID: pathway.ID, StudentID: student.ID, Topics: titles}, nil
}
