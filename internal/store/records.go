package store

import "time"

// Collection file names inside the store directory.
const (
	FileStudents        = "students.json"
	FileLearningObjects = "learning_objects.json"
	FileAssignments     = "assignments.json"
	FileActivityLog     = "activity_log.json"
	FileSubmissions     = "submissions.json"
	FileReportNotes     = "report_notes.json"
	FilePathways        = "pathways.json"
)

// Submission status values.
const (
	SubmissionSubmitted = "submitted"
	SubmissionGraded    = "graded"
)

// Activity log sources.
const (
	SourceTutorCommand = "tutor_command"
	SourceSystem       = "system"
)

// Student is a seeded roster record. Read-only at runtime.
type Student struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// LearningObject is a seeded curriculum topic. Read-only at runtime.
type LearningObject struct {
	ID    string `json:"id" yaml:"id"`
	Code  string `json:"code" yaml:"code"`
	Title string `json:"title" yaml:"title"`
}

// Assignment records exercises assigned to a student for a learning object.
type Assignment struct {
	ID               string    `json:"id"`
	StudentID        string    `json:"student_id"`
	LearningObjectID string    `json:"learning_object_id"`
	Quantity         int       `json:"quantity"`
	Note             string    `json:"note,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	Status           string    `json:"status"`
}

// ActivityLogEntry is an append-only event record for a student.
type ActivityLogEntry struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	Timestamp   time.Time `json:"timestamp"`
	EventType   string    `json:"event_type"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
}

// Submission is a piece of student work awaiting or holding a grade.
type Submission struct {
	ID               string    `json:"id" yaml:"id"`
	StudentID        string    `json:"student_id" yaml:"student_id"`
	LearningObjectID string    `json:"learning_object_id" yaml:"learning_object_id"`
	SubmittedAt      time.Time `json:"submitted_at" yaml:"submitted_at"`
	Status           string    `json:"status" yaml:"status"`
	Score            *float64  `json:"score,omitempty" yaml:"score,omitempty"`
	Feedback         string    `json:"feedback,omitempty" yaml:"feedback,omitempty"`
}

// ReportNote is a tutor note attached to a student's progress report.
type ReportNote struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Pathway is a custom ordered sequence of learning objects for a student.
type Pathway struct {
	ID                string    `json:"id"`
	StudentID         string    `json:"student_id"`
	LearningObjectIDs []string  `json:"learning_object_ids"`
	CreatedAt         time.Time `json:"created_at"`
	Status            string    `json:"status"`
}
