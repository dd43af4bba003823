package store

import "fmt"

// IOError reports a failed read or write of a collection file. It is fatal
// for the surrounding command: persisted state can no longer be assumed to
// match in-memory state.
type IOError struct {
	Op   string // "read", "write" or "mkdir"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("store: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// NotFoundError reports a referential argument that does not resolve to an
// existing record.
type NotFoundError struct {
	Kind string // "student", "learning object", "submission"
	Ref  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("store: no %s with id %q", e.Kind, e.Ref)
}
