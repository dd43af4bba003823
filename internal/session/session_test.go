package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func boolPtr(b bool) *bool { return &b }

func TestFileStore_RoundTrip(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	mgr := NewManager(fs)

	sess, err := mgr.Create("tutor_1", "assign An 3 exercises")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if sess.Status != StatusRunning {
		t.Errorf("Status = %q, want running", sess.Status)
	}

	sess.AddEvent(Event{Type: EventReceived, Content: "assign An 3 exercises"})
	sess.AddEvent(Event{Type: EventCallStart, Tool: "assign_exercise",
		Args: map[string]interface{}{"student": "stu_001"}})
	sess.AddEvent(Event{Type: EventCallEnd, Tool: "assign_exercise",
		Success: boolPtr(false), Error: "no student matches", DurationMs: 12})
	sess.Status = StatusComplete
	if err := mgr.Update(sess); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	loaded, err := mgr.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if loaded.Instruction != "assign An 3 exercises" || loaded.TutorID != "tutor_1" {
		t.Errorf("header lost: %+v", loaded)
	}
	if loaded.Status != StatusComplete {
		t.Errorf("Status = %q, want complete", loaded.Status)
	}
	if len(loaded.Events) != 3 {
		t.Fatalf("events = %d, want 3", len(loaded.Events))
	}
	last := loaded.Events[2]
	if last.Type != EventCallEnd || last.Error != "no student matches" || last.DurationMs != 12 {
		t.Errorf("event detail lost: %+v", last)
	}
	if last.Success == nil || *last.Success {
		t.Errorf("Success = %v, want false", last.Success)
	}
}

func TestFileStore_SequencingSurvivesReload(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	mgr := NewManager(fs)

	sess, _ := mgr.Create("", "test")
	sess.AddEvent(Event{Type: EventReceived})
	sess.AddEvent(Event{Type: EventResponded})
	if err := mgr.Update(sess); err != nil {
		t.Fatal(err)
	}

	loaded, err := mgr.Get(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	seq := loaded.AddEvent(Event{Type: EventResponded})
	if seq != 3 {
		t.Errorf("next seq = %d, want 3", seq)
	}
}

func TestFileStore_JSONLShape(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	sess, _ := NewManager(fs).Create("", "hello")
	sess.AddEvent(Event{Type: EventReceived})
	sess.Status = StatusComplete
	if err := fs.Save(sess); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, sess.ID+".jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header+event+footer", len(lines))
	}
	if !strings.Contains(lines[0], `"_type":"header"`) {
		t.Errorf("first line is not a header: %s", lines[0])
	}
	if !strings.Contains(lines[2], `"_type":"footer"`) {
		t.Errorf("last line is not a footer: %s", lines[2])
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Load("nope"); err == nil {
		t.Error("Load() of missing session did not fail")
	}
}

func TestFileStore_List(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	mgr := NewManager(fs)
	a, _ := mgr.Create("", "first")
	b, _ := mgr.Create("", "second")

	ids, err := fs.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Fatalf("ids = %v", ids)
	}
	seen := map[string]bool{ids[0]: true, ids[1]: true}
	if !seen[a.ID] || !seen[b.ID] {
		t.Errorf("ids = %v, want both sessions", ids)
	}
}
