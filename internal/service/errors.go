package service

import (
	"errors"
	"fmt"

	"comedybar/internal/repository"

	"github.com/google/uuid"
)

// NotFoundError reports a missing session, tab, line item, stock item or
// event. It matches repository.ErrNotFound with errors.Is.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s não encontrado: %s", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return repository.ErrNotFound }

// ValidationError is a rejected input detected before any write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// conflictError is a state conflict. It matches repository.ErrConflict.
type conflictError struct{ msg string }

func (e *conflictError) Error() string { return e.msg }
func (e *conflictError) Unwrap() error { return repository.ErrConflict }

var (
	ErrTabAlreadyPaid error = &conflictError{"comanda já está paga"}
	ErrSessionClosed  error = &conflictError{"sessão do bar está fechada"}
)

// SessionAlreadyOpenError is returned by OpenSession while another session
// is still open. SessionID and EventID identify that session so the operator
// can close it first.
type SessionAlreadyOpenError struct {
	SessionID uuid.UUID
	EventID   uuid.UUID
}

func (e *SessionAlreadyOpenError) Error() string {
	return fmt.Sprintf("já existe uma sessão aberta (%s); feche-a antes de abrir outra", e.SessionID)
}

func (e *SessionAlreadyOpenError) Unwrap() error { return repository.ErrConflict }

// notFound converts a repository miss into a typed NotFoundError and
// passes every other error through.
func notFound(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Entity: entity, ID: id.String()}
	}
	return err
}
