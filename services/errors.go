package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/tabroom/repositories"
)

// Errors shared by the services and mapped to HTTP statuses by the handlers.
var (
	ErrNotFound         = errors.New("requested resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrAlreadyExists    = errors.New("resource already exists")

	ErrProposalNotFound = errors.New("allocation proposal not found or expired")
	ErrRoundNotDrawn    = errors.New("round has not been drawn")
	ErrResultRecorded   = errors.New("result already recorded")
)

// handleRepositoryError keeps the repository error in the chain and adds the
// service-level sentinel the handlers understand.
func handleRepositoryError(err error, op string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, repositories.ErrTeamNotFound),
		errors.Is(err, repositories.ErrJudgeNotFound),
		errors.Is(err, repositories.ErrConflictNotFound),
		errors.Is(err, repositories.ErrPairingNotFound):
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	case errors.Is(err, repositories.ErrTeamNameConflict),
		errors.Is(err, repositories.ErrJudgeNameConflict),
		errors.Is(err, repositories.ErrConflictDuplicate),
		errors.Is(err, repositories.ErrPairingUIDConflict):
		return fmt.Errorf("%s: %w: %w", op, ErrAlreadyExists, err)
	case errors.Is(err, repositories.ErrPairingTeamInvalid):
		return fmt.Errorf("%s: %w: %w", op, ErrValidationFailed, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
