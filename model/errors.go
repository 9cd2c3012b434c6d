package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

var (
	ErrNotFound = errors.New("form not found")
	ErrInactive = errors.New("form is not accepting responses")
)

// Reasons a single field value is rejected.
var (
	ErrRequired    = errors.New("a value is required")
	ErrNotAnOption = errors.New("value is not one of the options")
	ErrInvalidDate = errors.New("value is not a valid date")
	ErrInvalidURL  = errors.New("value is not a valid image URL")
)

// RaceLossError reports a form that was deactivated (or removed) between the
// moment it was rendered and the moment a response was submitted. It matches
// ErrInactive so callers can treat both the same way.
type RaceLossError struct {
	FormID string
}

func (e *RaceLossError) Error() string {
	return fmt.Sprintf("form %s was closed before the response was submitted", e.FormID)
}

func (e *RaceLossError) Is(target error) bool {
	return target == ErrInactive
}

type FieldError struct {
	FieldID string
	Label   string
	Reason  error
}

// Name is the label of the field, or its id when the label is blank.
func (e *FieldError) Name() string {
	if strings.TrimSpace(e.Label) == "" {
		return e.FieldID
	}
	return e.Label
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name(), e.Reason)
}

func (e *FieldError) Unwrap() error {
	return e.Reason
}

// ValidationError holds every field violation of a response.
type ValidationError struct {
	errs *multierror.Error
}

// NewValidationError returns nil when no field errors were collected.
func NewValidationError(errs *multierror.Error) error {
	if errs.ErrorOrNil() == nil {
		return nil
	}
	errs.ErrorFormat = func(list []error) string {
		msgs := make([]string, len(list))
		for i, err := range list {
			msgs[i] = err.Error()
		}
		return "invalid response: " + strings.Join(msgs, "; ")
	}
	return &ValidationError{errs}
}

func (e *ValidationError) Error() string {
	return e.errs.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.errs
}

func (e *ValidationError) Fields() []*FieldError {
	fields := make([]*FieldError, 0, len(e.errs.Errors))
	for _, err := range e.errs.Errors {
		var fe *FieldError
		if errors.As(err, &fe) {
			fields = append(fields, fe)
		}
	}
	return fields
}

// MissingLabels lists the names of required fields that were left empty.
func (e *ValidationError) MissingLabels() []string {
	var labels []string
	for _, fe := range e.Fields() {
		if errors.Is(fe.Reason, ErrRequired) {
			labels = append(labels, fe.Name())
		}
	}
	return labels
}

// PersistenceError wraps a failure of the backing store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
