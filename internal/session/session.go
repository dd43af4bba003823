// Package session records the audit trail of each tutor command:
// the instruction as received, how it was interpreted, every tool call
// with its outcome, and the final response. Sessions persist as JSONL,
// one file per command, header first and one event per line.
package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Status constants for sessions.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// Event types for the command log.
const (
	EventReceived    = "received"    // Instruction accepted
	EventInterpreted = "interpreted" // Planner output validated and resolved
	EventRetry       = "plan_retry"  // Strict re-prompt after malformed output
	EventCallStart   = "call_start"  // Tool invocation started
	EventCallEnd     = "call_end"    // Tool invocation finished
	EventResponded   = "responded"   // Final response assembled
)

// Session is the forensic record of one tutor command.
type Session struct {
	ID          string    `json:"id"`
	TutorID     string    `json:"tutor_id,omitempty"`
	Instruction string    `json:"instruction"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	Events      []Event   `json:"events"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	seqCounter uint64
	mu         sync.Mutex
}

// Event is a single entry in the command log.
type Event struct {
	SeqID     uint64    `json:"seq"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	Tool string                 `json:"tool,omitempty"`
	Args map[string]interface{} `json:"args,omitempty"`

	Content    string `json:"content,omitempty"`
	Success    *bool  `json:"success,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
}

// AddEvent appends an event with automatic sequencing.
func (s *Session) AddEvent(event Event) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	event.SeqID = atomic.AddUint64(&s.seqCounter, 1)
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	s.Events = append(s.Events, event)
	s.UpdatedAt = time.Now().UTC()
	return event.SeqID
}

// Store is the interface for session persistence.
type Store interface {
	Save(sess *Session) error
	Load(id string) (*Session, error)
}

// Manager creates and persists sessions.
type Manager struct {
	store Store
	mu    sync.Mutex
}

// NewManager creates a session manager over the given store.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Create opens a new running session for an instruction.
func (m *Manager) Create(tutorID, instruction string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	sess := &Session{
		ID:          uuid.NewString(),
		TutorID:     tutorID,
		Instruction: instruction,
		Status:      StatusRunning,
		Events:      []Event{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.store.Save(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get retrieves a session by ID.
func (m *Manager) Get(id string) (*Session, error) {
	return m.store.Load(id)
}

// Update saves changes to a session.
func (m *Manager) Update(sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess.UpdatedAt = time.Now().UTC()
	return m.store.Save(sess)
}

// JSONL record types.
const (
	RecordTypeHeader = "header"
	RecordTypeEvent  = "event"
	RecordTypeFooter = "footer"
)

// JSONLRecord is a wrapper for JSONL lines with type discrimination.
type JSONLRecord struct {
	RecordType string `json:"_type"`

	// Header fields
	ID          string    `json:"id,omitempty"`
	TutorID     string    `json:"tutor_id,omitempty"`
	Instruction string    `json:"instruction,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`

	// Event fields
	*Event `json:",omitempty"`

	// Footer fields. The final error carries its own key so it cannot
	// shadow the embedded event's error field.
	Status     string    `json:"status,omitempty"`
	FinalError string    `json:"final_error,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

// FileStore implements Store using the filesystem, one JSONL file per
// session.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-based store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// Save persists a session as JSONL: header, events, footer.
func (s *FileStore) Save(sess *Session) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	path := filepath.Join(s.dir, sess.ID+".jsonl")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create session file: %w", err)
	}
	defer f.Close()

	header := JSONLRecord{
		RecordType:  RecordTypeHeader,
		ID:          sess.ID,
		TutorID:     sess.TutorID,
		Instruction: sess.Instruction,
		CreatedAt:   sess.CreatedAt,
	}
	if err := writeLine(f, header); err != nil {
		return err
	}

	for _, evt := range sess.Events {
		evtCopy := evt
		if err := writeLine(f, JSONLRecord{
			RecordType: RecordTypeEvent,
			Event:      &evtCopy,
		}); err != nil {
			return err
		}
	}

	footer := JSONLRecord{
		RecordType: RecordTypeFooter,
		Status:     sess.Status,
		FinalError: sess.Error,
		UpdatedAt:  sess.UpdatedAt,
	}
	return writeLine(f, footer)
}

// Load reads a session back from its JSONL file.
func (s *FileStore) Load(id string) (*Session, error) {
	path := filepath.Join(s.dir, id+".jsonl")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session file: %w", err)
	}
	defer f.Close()

	sess := &Session{Events: []Event{}}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec JSONLRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("failed to parse session line: %w", err)
		}
		switch rec.RecordType {
		case RecordTypeHeader:
			sess.ID = rec.ID
			sess.TutorID = rec.TutorID
			sess.Instruction = rec.Instruction
			sess.CreatedAt = rec.CreatedAt
		case RecordTypeEvent:
			if rec.Event != nil {
				sess.Events = append(sess.Events, *rec.Event)
				if rec.Event.SeqID > sess.seqCounter {
					sess.seqCounter = rec.Event.SeqID
				}
			}
		case RecordTypeFooter:
			sess.Status = rec.Status
			sess.Error = rec.FinalError
			sess.UpdatedAt = rec.UpdatedAt
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	if sess.ID == "" {
		return nil, fmt.Errorf("session %s has no header", id)
	}
	if sess.Status == "" {
		// No footer: the process died mid-command.
		sess.Status = StatusRunning
	}
	return sess, nil
}

// List returns the IDs of all persisted sessions, newest first.
func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	type stamped struct {
		id  string
		mod time.Time
	}
	var found []stamped
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".jsonl" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		found = append(found, stamped{id: name[:len(name)-len(".jsonl")], mod: info.ModTime()})
	}
	ids := make([]string, len(found))
	for i := range found {
		ids[i] = found[i].id
	}
	// Simple insertion sort by mod time, newest first.
	for i := 1; i < len(found); i++ {
		for j := i; j > 0 && found[j].mod.After(found[j-1].mod); j-- {
			found[j], found[j-1] = found[j-1], found[j]
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
	return ids, nil
}

func writeLine(w io.Writer, rec JSONLRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write session record: %w", err)
	}
	return nil
}
