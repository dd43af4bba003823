package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quyk67uet/ai-assistant-workflow/internal/roster"
	"github.com/quyk67uet/ai-assistant-workflow/internal/store"
)

// AssignResult summarizes a created assignment.
type AssignResult struct {
	AssignmentID   string `json:"assignment_id"`
	StudentID      string `json:"student_id"`
	StudentName    string `json:"student_name"`
	LearningObject string `json:"learning_object"`
	Quantity       int    `json:"quantity"`
}

// assignTool creates exactly one assignment record and one activity log
// entry per invocation, whatever the requested quantity.
type assignTool struct {
	store  *store.Store
	logger *zap.Logger
}

func (t *assignTool) Name() string { return "assign_exercise" }

func (t *assignTool) Description() string {
	return "Assign a number of exercises on a learning object to a student."
}

func (t *assignTool) Schema() Schema {
	return Schema{Fields: []Field{
		{Name: "student", Type: TypeString, Required: true, Ref: roster.KindStudent,
			Description: "The student to assign exercises to."},
		{Name: "learning_object", Type: TypeString, Required: true, Ref: roster.KindLearningObject,
			Description: "The learning object or topic to assign exercises from."},
		{Name: "quantity", Type: TypeInteger, Required: true, Min: floatPtr(1),
			Description: "Number of exercises to assign."},
		{Name: "note", Type: TypeString,
			Description: "Optional method or note for the assignment."},
	}}
}

func (t *assignTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	studentID := stringArg(args, "student")
	objectID := stringArg(args, "learning_object")

	// Re-check both references even though the pipeline resolved them:
	// the handler must hold regardless of who calls it.
	student, ok := t.store.StudentByID(studentID)
	if !ok {
		return nil, &store.NotFoundError{Kind: "student", Ref: studentID}
	}
	object, ok := t.store.LearningObjectByID(objectID)
	if !ok {
		return nil, &store.NotFoundError{Kind: "learning object", Ref: objectID}
	}

	now := time.Now().UTC()
	assignment := store.Assignment{
		ID:               "asg_" + uuid.NewString(),
		StudentID:        student.ID,
		LearningObjectID: object.ID,
		Quantity:         intArg(args, "quantity"),
		Note:             stringArg(args, "note"),
		CreatedAt:        now,
		Status:           "assigned",
	}
	if err := t.store.AppendAssignment(assignment); err != nil {
		return nil, err
	}

	entry := store.ActivityLogEntry{
		ID:          "act_" + uuid.NewString(),
		StudentID:   student.ID,
		Timestamp:   now,
		EventType:   "assignment_created",
		Description: fmt.Sprintf("Assigned %d exercise(s) on %q", assignment.Quantity, object.Title),
		Source:      store.SourceTutorCommand,
	}
	if err := t.store.AppendActivity(entry); err != nil {
		return nil, err
	}

	t.logger.Info("assignment created",
		zap.String("assignment_id", assignment.ID),
		zap.String("student_id", student.ID),
		zap.String("learning_object_id", object.ID),
		zap.Int("quantity", assignment.Quantity))

	return AssignResult{
		AssignmentID:   assignment.ID,
		StudentID:      student.ID,
		StudentName:    student.Name,
		LearningObject: object.Title,
		Quantity:       assignment.Quantity,
	}, nil
}
