package command

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/quyk67uet/ai-assistant-workflow/internal/executor"
	"github.com/quyk67uet/ai-assistant-workflow/internal/interpret"
	"github.com/quyk67uet/ai-assistant-workflow/internal/respond"
	"github.com/quyk67uet/ai-assistant-workflow/internal/roster"
	"github.com/quyk67uet/ai-assistant-workflow/internal/session"
	"github.com/quyk67uet/ai-assistant-workflow/internal/store"
	"github.com/quyk67uet/ai-assistant-workflow/internal/tools"
)

type stubPlanner struct {
	plan *interpret.Plan
	err  error
}

func (p *stubPlanner) Plan(ctx context.Context, req interpret.PlanRequest) (*interpret.Plan, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.plan, nil
}

type fixture struct {
	svc   *Service
	store *store.Store
	files *session.FileStore
}

func newFixture(t *testing.T, planner interpret.Planner, extra ...tools.Tool) *fixture {
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
		{ID: "stu_003", Name: "Phạm Minh Tuấn"},
		{ID: "stu_004", Name: "Lê Minh Hà"},
	})
	write(store.FileLearningObjects, []store.LearningObject{
		{ID: "lo_001", Code: "ALG-SUB", Title: "Solving systems of equations by substitution"},
	})
	write(store.FileSubmissions, []store.Submission{
		{ID: "sub_001", StudentID: "stu_001", LearningObjectID: "lo_001",
			SubmittedAt: time.Now().UTC(), Status: store.SubmissionSubmitted},
	})

	st, err := store.Open(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	reg := tools.NewRegistry(st, nil)
	for _, tool := range extra {
		reg.Register(tool)
	}
	files, err := session.NewFileStore(filepath.Join(t.TempDir(), "sessions"))
	if err != nil {
		t.Fatal(err)
	}

	interp := interpret.New(planner, reg, roster.New(st, nil), st, 0, nil)
	svc := NewService(interp, executor.New(reg, nil), session.NewManager(files), nil)
	return &fixture{svc: svc, store: st, files: files}
}

func TestHandle_MultiActionSuccess(t *testing.T) {
	fx := newFixture(t, &stubPlanner{plan: &interpret.Plan{
		Calls: []interpret.ProposedCall{
			{Tool: "assign_exercise", Args: map[string]interface{}{
				"student":         "An",
				"learning_object": "solving systems of equations by substitution",
				"quantity":        float64(3),
			}},
			{Tool: "get_student_activity_log", Args: map[string]interface{}{
				"student": "An",
				"range":   "today",
			}},
		},
	}})

	result, err := fx.svc.Handle(context.Background(), Request{
		TutorID: "tutor_1",
		Text:    "Assign An 3 exercises on substitution and show her activity today",
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if result.Category != CategorySuccess {
		t.Errorf("Category = %q, want success", result.Category)
	}
	if len(result.Response.Calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(result.Response.Calls))
	}
	if got := len(fx.store.Assignments()); got != 1 {
		t.Errorf("assignments = %d, want 1", got)
	}

	// The activity lookup ran after the assignment and saw its entry.
	log := result.Response.Calls[1].Result.(tools.ActivityLogResult)
	if log.Total != 1 {
		t.Errorf("activity total = %d, want 1", log.Total)
	}

	sess, err := fx.files.Load(result.SessionID)
	if err != nil {
		t.Fatalf("session not persisted: %v", err)
	}
	if sess.Status != session.StatusComplete {
		t.Errorf("session status = %q, want complete", sess.Status)
	}
	if len(sess.Events) < 7 {
		t.Errorf("session events = %d, want received+interpreted+2 call starts+2 call ends+responded", len(sess.Events))
	}
}

func TestHandle_PartialSuccess(t *testing.T) {
	fx := newFixture(t, &stubPlanner{plan: &interpret.Plan{
		Calls: []interpret.ProposedCall{
			{Tool: "add_note_to_report", Args: map[string]interface{}{
				"student": "Hoàng Văn Zzz",
				"note":    "x",
			}},
			{Tool: "add_note_to_report", Args: map[string]interface{}{
				"student": "stu_002",
				"note":    "catching up well",
			}},
		},
	}})

	result, err := fx.svc.Handle(context.Background(), Request{Text: "notes"})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if result.Category != CategoryPartialSuccess {
		t.Errorf("Category = %q, want partial_success", result.Category)
	}
	if result.Response.Status != respond.StatusPartialSuccess {
		t.Errorf("Status = %q", result.Response.Status)
	}
	if got := len(fx.store.ReportNotes()); got != 1 {
		t.Errorf("notes = %d, want 1 (only the valid call persisted)", got)
	}
}

func TestHandle_AmbiguousReferenceExecutesNothing(t *testing.T) {
	fx := newFixture(t, &stubPlanner{plan: &interpret.Plan{
		Calls: []interpret.ProposedCall{
			{Tool: "add_note_to_report", Args: map[string]interface{}{
				"student": "Minh",
				"note":    "x",
			}},
			{Tool: "assign_exercise", Args: map[string]interface{}{
				"student":         "stu_001",
				"learning_object": "lo_001",
				"quantity":        float64(1),
			}},
		},
	}})

	result, err := fx.svc.Handle(context.Background(), Request{Text: "note for Minh, assign An"})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if result.Category != CategoryInterpretationFailure {
		t.Errorf("Category = %q, want interpretation_failure", result.Category)
	}
	if !strings.Contains(result.Response.Message, "ambiguous") {
		t.Errorf("Message = %q, want ambiguity explanation", result.Response.Message)
	}
	// The unambiguous second call must not run either.
	if got := len(fx.store.Assignments()); got != 0 {
		t.Errorf("assignments = %d, want 0", got)
	}
}

func TestHandle_PlannerFailure(t *testing.T) {
	fx := newFixture(t, &stubPlanner{err: errors.New("upstream down")})

	result, err := fx.svc.Handle(context.Background(), Request{Text: "do something"})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if result.Category != CategoryInterpretationFailure {
		t.Errorf("Category = %q, want interpretation_failure", result.Category)
	}

	sess, err := fx.files.Load(result.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if sess.Status != session.StatusFailed {
		t.Errorf("session status = %q, want failed", sess.Status)
	}
}

func TestHandle_EmptyInstruction(t *testing.T) {
	fx := newFixture(t, &stubPlanner{plan: &interpret.Plan{}})

	result, err := fx.svc.Handle(context.Background(), Request{Text: "   "})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if result.Category != CategoryInterpretationFailure {
		t.Errorf("Category = %q, want interpretation_failure", result.Category)
	}
	if result.SessionID != "" {
		t.Errorf("SessionID = %q, want none for rejected input", result.SessionID)
	}
}

type failingStoreTool struct{}

func (failingStoreTool) Name() string         { return "failing_store_tool" }
func (failingStoreTool) Description() string  { return "fails with a store error" }
func (failingStoreTool) Schema() tools.Schema { return tools.Schema{} }
func (failingStoreTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return nil, &store.IOError{Op: "write", Path: "assignments.json", Err: errors.New("disk full")}
}

func TestHandle_StoreFailure(t *testing.T) {
	fx := newFixture(t, &stubPlanner{plan: &interpret.Plan{
		Calls: []interpret.ProposedCall{
			{Tool: "failing_store_tool", Args: nil},
			{Tool: "list_available_submissions", Args: nil},
		},
	}}, failingStoreTool{})

	result, err := fx.svc.Handle(context.Background(), Request{Text: "break the store"})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if result.Category != CategoryStoreIOFailure {
		t.Errorf("Category = %q, want store_io_failure", result.Category)
	}
	// The second call never ran.
	if len(result.Response.Calls) != 1 {
		t.Errorf("calls = %d, want 1", len(result.Response.Calls))
	}
}

// replayPlanner answers each call with the next plan in sequence.
type replayPlanner struct {
	plans []*interpret.Plan
	calls int
}

func (p *replayPlanner) Plan(ctx context.Context, req interpret.PlanRequest) (*interpret.Plan, error) {
	if p.calls >= len(p.plans) {
		return nil, errors.New("planner exhausted")
	}
	plan := p.plans[p.calls]
	p.calls++
	return plan, nil
}

func TestHandle_StrictRetryRecordsCallEvents(t *testing.T) {
	fx := newFixture(t, &replayPlanner{plans: []*interpret.Plan{
		{Calls: []interpret.ProposedCall{{Tool: "drop_database", Args: nil}}},
		{Calls: []interpret.ProposedCall{{Tool: "list_available_submissions", Args: nil}}},
	}})

	result, err := fx.svc.Handle(context.Background(), Request{Text: "show submissions"})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if result.Category != CategorySuccess {
		t.Fatalf("Category = %q, want success", result.Category)
	}

	sess, err := fx.files.Load(result.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	types := map[string]int{}
	for _, e := range sess.Events {
		types[e.Type]++
	}
	if types[session.EventRetry] != 1 {
		t.Errorf("plan_retry events = %d, want 1", types[session.EventRetry])
	}
	if types[session.EventCallStart] != 1 || types[session.EventCallEnd] != 1 {
		t.Errorf("call events = %d start / %d end, want 1 each",
			types[session.EventCallStart], types[session.EventCallEnd])
	}
	for _, e := range sess.Events {
		if e.Type == session.EventCallEnd {
			if e.Success == nil || !*e.Success {
				t.Error("call_end not marked successful")
			}
			if e.DurationMs < 0 {
				t.Errorf("call_end duration = %dms", e.DurationMs)
			}
		}
	}
}

func TestHandle_InterruptedBeforeAnyCall(t *testing.T) {
	fx := newFixture(t, &stubPlanner{plan: &interpret.Plan{
		Calls: []interpret.ProposedCall{
			{Tool: "list_available_submissions", Args: nil},
		},
	}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := fx.svc.Handle(ctx, Request{Text: "list submissions"})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if result.Category != CategoryPartialSuccess {
		t.Errorf("Category = %q, want partial_success", result.Category)
	}
	if len(result.Response.Calls) != 0 {
		t.Fatalf("calls = %d, want 0", len(result.Response.Calls))
	}
	if result.Response.Message != "The command was interrupted before any actions ran." {
		t.Errorf("Message = %q", result.Response.Message)
	}
}

func TestHandle_TextOnlyReply(t *testing.T) {
	fx := newFixture(t, &stubPlanner{plan: &interpret.Plan{
		Reply: "You have 4 students on the roster.",
	}})

	result, err := fx.svc.Handle(context.Background(), Request{Text: "how many students?"})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if result.Category != CategorySuccess {
		t.Errorf("Category = %q, want success", result.Category)
	}
	if result.Response.Message != "You have 4 students on the roster." {
		t.Errorf("Message = %q", result.Response.Message)
	}
}
