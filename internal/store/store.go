// Package store is the JSON-backed record store for the command center.
// It owns the in-memory collections and is the sole writer of the
// persisted files. Mutations are flushed with a temp-file + rename so a
// crash mid-write never leaves a truncated collection behind.
//
// The store is safe for concurrent reads; mutating access from more than
// one command at a time must be serialized by the caller.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Store holds every collection in memory and persists mutations.
type Store struct {
	dir    string
	logger *zap.Logger

	// Guards the collections. The roster watcher is the only internal
	// writer besides the command pipeline.
	mu sync.RWMutex

	students        []Student
	learningObjects []LearningObject
	assignments     []Assignment
	activity        []ActivityLogEntry
	submissions     []Submission
	notes           []ReportNote
	pathways        []Pathway
}

// Open loads all collections from dir. Missing files load as empty
// collections; malformed files are an *IOError.
func Open(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &IOError{Op: "mkdir", Path: dir, Err: err}
	}
	s := &Store{dir: dir, logger: logger}
	if err := s.loadAll(); err != nil {
		return nil, err
	}
	logger.Info("store opened",
		zap.String("dir", dir),
		zap.Int("students", len(s.students)),
		zap.Int("learning_objects", len(s.learningObjects)),
		zap.Int("assignments", len(s.assignments)),
		zap.Int("activity_entries", len(s.activity)),
		zap.Int("submissions", len(s.submissions)))
	return s, nil
}

// Dir returns the directory backing the store.
func (s *Store) Dir() string { return s.dir }

func (s *Store) loadAll() error {
	if err := readCollection(s.dir, FileStudents, &s.students); err != nil {
		return err
	}
	if err := readCollection(s.dir, FileLearningObjects, &s.learningObjects); err != nil {
		return err
	}
	if err := readCollection(s.dir, FileAssignments, &s.assignments); err != nil {
		return err
	}
	if err := readCollection(s.dir, FileActivityLog, &s.activity); err != nil {
		return err
	}
	if err := readCollection(s.dir, FileSubmissions, &s.submissions); err != nil {
		return err
	}
	if err := readCollection(s.dir, FileReportNotes, &s.notes); err != nil {
		return err
	}
	return readCollection(s.dir, FilePathways, &s.pathways)
}

// ReloadRoster re-reads the seeded read-only collections (students and
// learning objects) from disk. Used by the roster watcher.
func (s *Store) ReloadRoster() error {
	var students []Student
	var objects []LearningObject
	if err := readCollection(s.dir, FileStudents, &students); err != nil {
		return err
	}
	if err := readCollection(s.dir, FileLearningObjects, &objects); err != nil {
		return err
	}
	s.mu.Lock()
	s.students = students
	s.learningObjects = objects
	s.mu.Unlock()
	s.logger.Info("roster reloaded",
		zap.Int("students", len(students)),
		zap.Int("learning_objects", len(objects)))
	return nil
}

// Students returns a copy of the student roster.
func (s *Store) Students() []Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Student, len(s.students))
	copy(out, s.students)
	return out
}

// LearningObjects returns a copy of the learning object catalog.
func (s *Store) LearningObjects() []LearningObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]LearningObject, len(s.learningObjects))
	copy(out, s.learningObjects)
	return out
}

// StudentByID looks up a student record.
func (s *Store) StudentByID(id string) (Student, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.studentByID(id)
}

func (s *Store) studentByID(id string) (Student, bool) {
	for _, st := range s.students {
		if st.ID == id {
			return st, true
		}
	}
	return Student{}, false
}

// LearningObjectByID looks up a learning object record.
func (s *Store) LearningObjectByID(id string) (LearningObject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.learningObjectByID(id)
}

func (s *Store) learningObjectByID(id string) (LearningObject, bool) {
	for _, lo := range s.learningObjects {
		if lo.ID == id {
			return lo, true
		}
	}
	return LearningObject{}, false
}

// SubmissionByID looks up a submission record.
func (s *Store) SubmissionByID(id string) (Submission, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.submissions {
		if sub.ID == id {
			return sub, true
		}
	}
	return Submission{}, false
}

// Assignments returns a copy of all assignment records.
func (s *Store) Assignments() []Assignment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Assignment, len(s.assignments))
	copy(out, s.assignments)
	return out
}

// Submissions returns submissions, optionally filtered by status
// (empty status returns all).
func (s *Store) Submissions(status string) []Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Submission
	for _, sub := range s.submissions {
		if status == "" || sub.Status == status {
			out = append(out, sub)
		}
	}
	return out
}

// ReportNotes returns a copy of all report note records.
func (s *Store) ReportNotes() []ReportNote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ReportNote, len(s.notes))
	copy(out, s.notes)
	return out
}

// Pathways returns a copy of all pathway records.
func (s *Store) Pathways() []Pathway {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Pathway, len(s.pathways))
	copy(out, s.pathways)
	return out
}

// ActivityForStudent returns the student's activity log entries in
// chronological order. A zero since means no lower bound; limit <= 0
// means no cap. When limit applies, the most recent entries are kept.
func (s *Store) ActivityForStudent(studentID string, since time.Time, limit int) []ActivityLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ActivityLogEntry
	for _, e := range s.activity {
		if e.StudentID != studentID {
			continue
		}
		if !since.IsZero() && e.Timestamp.Before(since) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// AppendAssignment validates the assignment's references, appends it and
// persists the collection.
func (s *Store) AppendAssignment(a Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.studentByID(a.StudentID); !ok {
		return &NotFoundError{Kind: "student", Ref: a.StudentID}
	}
	if _, ok := s.learningObjectByID(a.LearningObjectID); !ok {
		return &NotFoundError{Kind: "learning object", Ref: a.LearningObjectID}
	}
	s.assignments = append(s.assignments, a)
	if err := s.flush(FileAssignments, s.assignments); err != nil {
		s.assignments = s.assignments[:len(s.assignments)-1]
		return err
	}
	return nil
}

// AppendActivity validates the entry's student reference, appends it and
// persists the collection. Entries are never mutated afterwards.
func (s *Store) AppendActivity(e ActivityLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.studentByID(e.StudentID); !ok {
		return &NotFoundError{Kind: "student", Ref: e.StudentID}
	}
	s.activity = append(s.activity, e)
	if err := s.flush(FileActivityLog, s.activity); err != nil {
		s.activity = s.activity[:len(s.activity)-1]
		return err
	}
	return nil
}

// UpdateSubmission replaces the submission with the same ID and persists
// the collection.
func (s *Store) UpdateSubmission(sub Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, existing := range s.submissions {
		if existing.ID == sub.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &NotFoundError{Kind: "submission", Ref: sub.ID}
	}
	prev := s.submissions[idx]
	s.submissions[idx] = sub
	if err := s.flush(FileSubmissions, s.submissions); err != nil {
		s.submissions[idx] = prev
		return err
	}
	return nil
}

// AppendReportNote validates the note's student reference, appends it and
// persists the collection.
func (s *Store) AppendReportNote(n ReportNote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.studentByID(n.StudentID); !ok {
		return &NotFoundError{Kind: "student", Ref: n.StudentID}
	}
	s.notes = append(s.notes, n)
	if err := s.flush(FileReportNotes, s.notes); err != nil {
		s.notes = s.notes[:len(s.notes)-1]
		return err
	}
	return nil
}

// AppendPathway validates every reference in the pathway, appends it and
// persists the collection.
func (s *Store) AppendPathway(p Pathway) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.studentByID(p.StudentID); !ok {
		return &NotFoundError{Kind: "student", Ref: p.StudentID}
	}
	for _, loID := range p.LearningObjectIDs {
		if _, ok := s.learningObjectByID(loID); !ok {
			return &NotFoundError{Kind: "learning object", Ref: loID}
		}
	}
	s.pathways = append(s.pathways, p)
	if err := s.flush(FilePathways, s.pathways); err != nil {
		s.pathways = s.pathways[:len(s.pathways)-1]
		return err
	}
	return nil
}

// Seed overwrites the seeded collections. Used by the seed command only;
// the command pipeline never calls it. Submissions must reference seeded
// students and learning objects; a dangling reference rejects the whole
// seed before anything is written.
func (s *Store) Seed(students []Student, objects []LearningObject, submissions []Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	studentIDs := make(map[string]bool, len(students))
	for _, stu := range students {
		studentIDs[stu.ID] = true
	}
	objectIDs := make(map[string]bool, len(objects))
	for _, lo := range objects {
		objectIDs[lo.ID] = true
	}
	for _, sub := range submissions {
		if !studentIDs[sub.StudentID] {
			return &NotFoundError{Kind: "student", Ref: sub.StudentID}
		}
		if !objectIDs[sub.LearningObjectID] {
			return &NotFoundError{Kind: "learning object", Ref: sub.LearningObjectID}
		}
	}
	if err := s.flush(FileStudents, students); err != nil {
		return err
	}
	if err := s.flush(FileLearningObjects, objects); err != nil {
		return err
	}
	if err := s.flush(FileSubmissions, submissions); err != nil {
		return err
	}
	s.students = students
	s.learningObjects = objects
	s.submissions = submissions
	return nil
}

// flush serializes the collection and atomically replaces its file.
// Callers hold the write lock.
func (s *Store) flush(name string, v interface{}) error {
	path := filepath.Join(s.dir, name)
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	// nil slices marshal as "null"; collection files are always arrays.
	if string(data) == "null" {
		data = []byte("[]")
	}
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

func readCollection(dir, name string, v interface{}) error {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &IOError{Op: "read", Path: path, Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &IOError{Op: "read", Path: path, Err: err}
	}
	return nil
}
