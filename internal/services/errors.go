package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/lembar-pintar/studio/internal/repositories"
)

var (
	// ErrInvalidInput indicates the caller provided invalid arguments.
	ErrInvalidInput = errors.New("services: invalid input")
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("services: not found")
	// ErrForbidden indicates the caller may not act on the record.
	ErrForbidden = errors.New("services: forbidden")
	// ErrConflict indicates the write conflicts with existing state.
	ErrConflict = errors.New("services: conflict")
	// ErrUnavailable signals that a dependency is unavailable.
	ErrUnavailable = errors.New("services: unavailable")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// translateRepoError maps repository failures onto the service sentinels.
func translateRepoError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		case repoErr.IsConflict():
			return fmt.Errorf("%s: %w", op, ErrConflict)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
