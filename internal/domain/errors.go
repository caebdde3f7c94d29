package domain

import (
	"errors"
	"fmt"
)

// Failure kinds. Every field error below wraps exactly one of them.
var (
	ErrValidation   = errors.New("validation failed")
	ErrPrecondition = errors.New("precondition violated")
)

var (
	ErrInvalidID        = fmt.Errorf("%w: invalid id", ErrValidation)
	ErrInvalidName      = fmt.Errorf("%w: invalid name", ErrValidation)
	ErrInvalidTitle     = fmt.Errorf("%w: invalid title", ErrValidation)
	ErrInvalidPriority  = fmt.Errorf("%w: invalid priority", ErrValidation)
	ErrInvalidDeadline  = fmt.Errorf("%w: invalid deadline", ErrValidation)
	ErrInvalidTeamState = fmt.Errorf("%w: invalid team state", ErrValidation)
	ErrUnknownAssignee  = fmt.Errorf("%w: unknown assignee", ErrValidation)
)

var (
	ErrUnknownColumn   = fmt.Errorf("%w: unknown column", ErrPrecondition)
	ErrUnknownTask     = fmt.Errorf("%w: unknown task", ErrPrecondition)
	ErrTaskNotAtSource = fmt.Errorf("%w: task not at source index", ErrPrecondition)
	ErrBoardCorrupt    = fmt.Errorf("%w: board invariant broken", ErrPrecondition)
)
