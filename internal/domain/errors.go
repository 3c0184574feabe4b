package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors. The typed errors below unwrap to these so callers can
// branch with errors.Is and still get the offending ids with errors.As.
var (
	ErrValidation     = errors.New("invalid statement")
	ErrDuplicateID    = errors.New("duplicate statement id")
	ErrDanglingParent = errors.New("parent statement does not exist")
	ErrCycle          = errors.New("derivation cycle")
	ErrNotFound       = errors.New("statement not found")
	ErrHasDependents  = errors.New("statement has dependents")
)

type ValidationError struct {
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type DuplicateIDError struct {
	ID StatementID
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDuplicateID, e.ID)
}

func (e *DuplicateIDError) Unwrap() error { return ErrDuplicateID }

type DanglingParentError struct {
	ID       StatementID
	ParentID StatementID
}

func (e *DanglingParentError) Error() string {
	return fmt.Sprintf("%s: %s (referenced by %s)", ErrDanglingParent, e.ParentID, e.ID)
}

func (e *DanglingParentError) Unwrap() error { return ErrDanglingParent }

// CycleError reports that deriving ID from ParentID would make ID its own
// ancestor.
type CycleError struct {
	ID       StatementID
	ParentID StatementID
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s cannot derive from %s", ErrCycle, e.ID, e.ParentID)
}

func (e *CycleError) Unwrap() error { return ErrCycle }

type NotFoundError struct {
	ID StatementID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNotFound, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

type HasDependentsError struct {
	ID         StatementID
	Dependents []StatementID
}

func (e *HasDependentsError) Error() string {
	return fmt.Sprintf("%s: %s is referenced by %d statement(s)", ErrHasDependents, e.ID, len(e.Dependents))
}

func (e *HasDependentsError) Unwrap() error { return ErrHasDependents }
