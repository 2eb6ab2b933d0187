package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrCoachNotFound          = fmt.Errorf("coach %w", ErrNotFound)
	ErrMemberNotFound         = fmt.Errorf("member %w", ErrNotFound)
	ErrBookingNotFound        = fmt.Errorf("booking %w", ErrNotFound)
	ErrSessionNotFound        = fmt.Errorf("session %w", ErrNotFound)
	ErrNotificationNotFound   = fmt.Errorf("notification %w", ErrNotFound)
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidSlot            = errors.New("requested time is outside availability")
	ErrSlotFull               = errors.New("slot is fully booked")
	ErrSlotBusy               = errors.New("slot is busy, try again")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrAlreadyRated           = fmt.Errorf("session already rated: %w", ErrInvalidStateTransition)
	ErrCollaboratorFailure    = errors.New("collaborator failure")
)

// CollaboratorError wraps a failure from the calendar, notification or
// messaging collaborator. It matches ErrCollaboratorFailure with errors.Is.
type CollaboratorError struct {
	Collaborator string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Collaborator, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

func (e *CollaboratorError) Is(target error) bool {
	return target == ErrCollaboratorFailure
}
