package repositories

import "fmt"

// Error is the repository error used by in-process implementations.
type Error struct {
	Op          string
	NotFound    bool
	Conflict    bool
	Unavailable bool
}

func (e *Error) Error() string {
	switch {
	case e.NotFound:
		return fmt.Sprintf("%s: not found", e.Op)
	case e.Conflict:
		return fmt.Sprintf("%s: conflict", e.Op)
	case e.Unavailable:
		return fmt.Sprintf("%s: unavailable", e.Op)
	}
	return e.Op + ": failed"
}

func (e *Error) IsNotFound() bool    { return e.NotFound }
func (e *Error) IsConflict() bool    { return e.Conflict }
func (e *Error) IsUnavailable() bool { return e.Unavailable }

func NewNotFound(op string) error { return &Error{Op: op, NotFound: true} }
func NewConflict(op string) error { return &Error{Op: op, Conflict: true} }
