package storage

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrNotFound marks a lookup that matched nothing
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a write rejected by a uniqueness constraint
	ErrConflict = errors.New("conflict")
	// ErrInvalidInput marks a request rejected before reaching the backend
	ErrInvalidInput = errors.New("invalid input")
)

// NotFoundError names the missing resource
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NotFound builds a NotFoundError
func NotFound(resource string, id interface{}) error {
	return &NotFoundError{Resource: resource, ID: fmt.Sprint(id)}
}

// InvalidInput wraps a validation message with ErrInvalidInput
func InvalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Postgres SQLSTATE codes the stores translate
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// IsUniqueViolation reports whether err is a Postgres unique_violation
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation
}

// TranslatePQError maps constraint violations onto ErrConflict / ErrInvalidInput.
// Other errors pass through unchanged.
func TranslatePQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch string(pqErr.Code) {
	case pgUniqueViolation:
		return fmt.Errorf("%w: %s", ErrConflict, pqErr.Detail)
	case pgForeignKeyViolation:
		return fmt.Errorf("%w: %s", ErrInvalidInput, pqErr.Detail)
	}
	return err
}
