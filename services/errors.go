package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNotFound            = errors.New("submission not found")
	ErrNoPendingSubmission = errors.New("no pending submission for this member")
	ErrUnauthorized        = errors.New("not an approver")
)

// ValidationError is a user-correctable problem with a form payload.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid submission: " + e.Reason
	}
	return fmt.Sprintf("invalid submission: %s (%s)", e.Reason, strings.Join(e.Fields, ", "))
}

func newValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Reason: err.Error()}
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return &ValidationError{Fields: fields, Reason: "missing or invalid fields"}
}

// StateError means a transition was attempted from the wrong status.
type StateError struct {
	SubmissionID uint
	Current      string
	Want         string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("submission %d is %s, expected %s", e.SubmissionID, e.Current, e.Want)
}

// AlreadyDecidedError is returned to a decision on a submission that is not
// waiting for one: every decision after the first, or one taken before the
// receipt arrived (Status is then AWAITING_EVIDENCE).
type AlreadyDecidedError struct {
	SubmissionID uint
	Status       string
}

func (e *AlreadyDecidedError) Error() string {
	return fmt.Sprintf("submission %d already processed (%s)", e.SubmissionID, e.Status)
}

// NotificationDeliveryError wraps a failed outbound call. It is logged, never
// returned to the actor.
type NotificationDeliveryError struct {
	Target int64
	Op     string
	Err    error
}

func (e *NotificationDeliveryError) Error() string {
	return fmt.Sprintf("%s to %d failed: %v", e.Op, e.Target, e.Err)
}

func (e *NotificationDeliveryError) Unwrap() error { return e.Err }
