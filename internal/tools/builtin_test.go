package tools

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quyk67uet/ai-assistant-workflow/internal/store"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	write := func(name string, v interface{}) {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			t.Fatal(err)
		}
	}
	write(store.FileStudents, []store.Student{
		{ID: "stu_001", Name: "Nguyễn Văn An"},
		{ID: "stu_002", Name: "Trần Thị Bình"},
	})
	write(store.FileLearningObjects, []store.LearningObject{
		{ID: "lo_001", Code: "ALG-SUB", Title: "Solving systems of equations by substitution"},
		{ID: "lo_002", Code: "ALG-ELIM", Title: "Solving systems of equations by elimination"},
	})
	write(store.FileSubmissions, []store.Submission{
		{ID: "sub_001", StudentID: "stu_001", LearningObjectID: "lo_001",
			SubmittedAt: time.Now().UTC(), Status: store.SubmissionSubmitted},
		{ID: "sub_002", StudentID: "stu_002", LearningObjectID: "lo_002",
			SubmittedAt: time.Now().UTC(), Status: store.SubmissionGraded},
	})

	st, err := store.Open(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func TestAssignExercise_OneRecordPerInvocation(t *testing.T) {
	st := testStore(t)
	reg := NewRegistry(st, nil)
	tool := reg.Get("assign_exercise")
	if tool == nil {
		t.Fatal("assign_exercise not registered")
	}

	// Quantity does not multiply record count.
	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"student":         "stu_001",
		"learning_object": "lo_001",
		"quantity":        float64(7),
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	res, ok := result.(AssignResult)
	if !ok {
		t.Fatalf("result type = %T, want AssignResult", result)
	}
	if res.Quantity != 7 {
		t.Errorf("Quantity = %d, want 7", res.Quantity)
	}
	if res.AssignmentID == "" {
		t.Error("AssignmentID is empty")
	}

	if got := len(st.Assignments()); got != 1 {
		t.Errorf("assignments = %d, want 1", got)
	}
	if got := len(st.ActivityForStudent("stu_001", time.Time{}, 0)); got != 1 {
		t.Errorf("activity entries = %d, want 1", got)
	}

	// A second invocation creates a second independent pair.
	if _, err := tool.Execute(context.Background(), map[string]interface{}{
		"student":         "stu_001",
		"learning_object": "lo_001",
		"quantity":        float64(2),
	}); err != nil {
		t.Fatal(err)
	}
	if got := len(st.Assignments()); got != 2 {
		t.Errorf("assignments after second call = %d, want 2", got)
	}
	if got := len(st.ActivityForStudent("stu_001", time.Time{}, 0)); got != 2 {
		t.Errorf("activity entries after second call = %d, want 2", got)
	}
}

func TestAssignExercise_UnknownStudent(t *testing.T) {
	st := testStore(t)
	tool := NewRegistry(st, nil).Get("assign_exercise")

	_, err := tool.Execute(context.Background(), map[string]interface{}{
		"student":         "stu_999",
		"learning_object": "lo_001",
		"quantity":        float64(1),
	})
	var nf *store.NotFoundError
	if !errors.As(err, &nf) || nf.Kind != "student" {
		t.Fatalf("error = %v, want student NotFoundError", err)
	}
	if got := len(st.Assignments()); got != 0 {
		t.Errorf("store mutated by failed call: %d assignments", got)
	}
}

func TestActivityLog_EmptyIsSuccess(t *testing.T) {
	st := testStore(t)
	tool := NewRegistry(st, nil).Get("get_student_activity_log")

	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"student": "stu_002",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	res := result.(ActivityLogResult)
	if res.Total != 0 || len(res.Entries) != 0 {
		t.Errorf("expected empty log, got %+v", res)
	}
}

func TestActivityLog_UnknownStudent(t *testing.T) {
	st := testStore(t)
	tool := NewRegistry(st, nil).Get("get_student_activity_log")

	_, err := tool.Execute(context.Background(), map[string]interface{}{
		"student": "nobody",
	})
	var nf *store.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error = %v, want NotFoundError", err)
	}
}

func TestGradeSubmission(t *testing.T) {
	st := testStore(t)
	tool := NewRegistry(st, nil).Get("grade_submission")

	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"submission_id": "sub_001",
		"score":         88.0,
		"feedback":      "Solid use of substitution.",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	res := result.(GradeResult)
	if res.Score != 88.0 || res.StudentID != "stu_001" {
		t.Errorf("unexpected result: %+v", res)
	}

	sub, _ := st.SubmissionByID("sub_001")
	if sub.Status != store.SubmissionGraded || sub.Score == nil || *sub.Score != 88.0 {
		t.Errorf("submission not updated: %+v", sub)
	}
	if got := len(st.ActivityForStudent("stu_001", time.Time{}, 0)); got != 1 {
		t.Errorf("activity entries = %d, want 1", got)
	}
}

func TestGradeSubmission_Unknown(t *testing.T) {
	st := testStore(t)
	tool := NewRegistry(st, nil).Get("grade_submission")

	_, err := tool.Execute(context.Background(), map[string]interface{}{
		"submission_id": "sub_999",
		"score":         50.0,
		"feedback":      "x",
	})
	var nf *store.NotFoundError
	if !errors.As(err, &nf) || nf.Kind != "submission" {
		t.Fatalf("error = %v, want submission NotFoundError", err)
	}
}

func TestAddNoteToReport(t *testing.T) {
	st := testStore(t)
	tool := NewRegistry(st, nil).Get("add_note_to_report")

	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"student": "stu_001",
		"note":    "Needs more practice with word problems.",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.(NoteResult).StudentID != "stu_001" {
		t.Errorf("unexpected result: %+v", result)
	}
	if got := len(st.ActivityForStudent("stu_001", time.Time{}, 0)); got != 1 {
		t.Errorf("activity entries = %d, want 1", got)
	}
}

func TestCreateCustomPathway_UnknownTopicCreatesNothing(t *testing.T) {
	st := testStore(t)
	tool := NewRegistry(st, nil).Get("create_custom_pathway")

	_, err := tool.Execute(context.Background(), map[string]interface{}{
		"student":          "stu_001",
		"learning_objects": []interface{}{"lo_001", "lo_999"},
	})
	var nf *store.NotFoundError
	if !errors.As(err, &nf) || nf.Kind != "learning object" {
		t.Fatalf("error = %v, want learning object NotFoundError", err)
	}
	if got := len(st.ActivityForStudent("stu_001", time.Time{}, 0)); got != 0 {
		t.Errorf("activity written despite failed pathway: %d entries", got)
	}
}

func TestListAvailableSubmissions(t *testing.T) {
	st := testStore(t)
	tool := NewRegistry(st, nil).Get("list_available_submissions")

	result, err := tool.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	res := result.(SubmissionListResult)
	if res.Total != 1 || res.Submissions[0].ID != "sub_001" {
		t.Errorf("expected only ungraded sub_001, got %+v", res)
	}
}

func TestRegistry_ClosedSet(t *testing.T) {
	reg := NewRegistry(testStore(t), nil)
	if reg.Get("drop_database") != nil {
		t.Error("unknown tool resolved")
	}
	want := []string{
		"assign_exercise",
		"get_student_activity_log",
		"grade_submission",
		"add_note_to_report",
		"create_custom_pathway",
		"list_available_submissions",
	}
	got := reg.Names()
	if len(got) != len(want) {
		t.Fatalf("names = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
