package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quyk67uet/ai-assistant-workflow/internal/store"
)

// GradeResult summarizes a graded submission.
type GradeResult struct {
	SubmissionID string  `json:"submission_id"`
	StudentID    string  `json:"student_id"`
	Score        float64 `json:"score"`
}

type gradeTool struct {
	store  *store.Store
	logger *zap.Logger
}

func (t *gradeTool) Name() string { return "grade_submission" }

func (t *gradeTool) Description() string {
	return "Grade a student submission with a score from 0 to 100 and written feedback."
}

func (t *gradeTool) Schema() Schema {
	return Schema{Fields: []Field{
		{Name: "submission_id", Type: TypeString, Required: true,
			Description: "The id of the submission to grade."},
		{Name: "score", Type: TypeNumber, Required: true, Min: floatPtr(0), Max: floatPtr(100),
			Description: "The score to assign, 0 to 100."},
		{Name: "feedback", Type: TypeString, Required: true,
			Description: "Written feedback for the student."},
	}}
}

func (t *gradeTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	id := stringArg(args, "submission_id")
	sub, ok := t.store.SubmissionByID(id)
	if !ok {
		return nil, &store.NotFoundError{Kind: "submission", Ref: id}
	}

	score := floatArg(args, "score")
	sub.Status = store.SubmissionGraded
	sub.Score = &score
	sub.Feedback = stringArg(args, "feedback")
	if err := t.store.UpdateSubmission(sub); err != nil {
		return nil, err
	}

	entry := store.ActivityLogEntry{
		ID:          "act_" + uuid.NewString(),
		StudentID:   sub.StudentID,
		Timestamp:   time.Now().UTC(),
		EventType:   "submission_graded",
		Description: fmt.Sprintf("Submission %s graded %.0f/100", sub.ID, score),
		Source:      store.SourceTutorCommand,
	}
	if err := t.store.AppendActivity(entry); err != nil {
		return nil, err
	}

	t.logger.Info("submission graded",
		zap.String("submission_id", sub.ID),
		zap.Float64("score", score))

	return GradeResult{SubmissionID: sub.ID, StudentID: sub.StudentID, Score: score}, nil
}
