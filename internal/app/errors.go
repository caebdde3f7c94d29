package app

import (
	"errors"
	"fmt"

	"github.com/hylla/hackboard/internal/domain"
)

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = fmt.Errorf("%w: already exists", domain.ErrValidation)
	ErrInvalidSnapshot = fmt.Errorf("%w: invalid snapshot", domain.ErrValidation)
)
