package forms

import (
	"context"
	"errors"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/mbolis/parish-forms/events"
	"github.com/mbolis/parish-forms/model"
)

type SessionState int

const (
	SessionReady SessionState = iota
	SessionSubmitting
	SessionSubmitted
	SessionInactive
	SessionNotFound
)

func (s SessionState) String() string {
	switch s {
	case SessionReady:
		return "ready"
	case SessionSubmitting:
		return "submitting"
	case SessionSubmitted:
		return "submitted"
	case SessionInactive:
		return "inactive"
	case SessionNotFound:
		return "not_found"
	}
	return "unknown"
}

var ErrAlreadySubmitted = errors.New("response already submitted")

// Session is one visitor filling in one form.
type Session struct {
	Form     *model.FormDefinition
	Response *model.FormResponse

	variants []model.Variant
	data     map[string]string
	errs     map[string]error
	state    SessionState
}

type RenderedField struct {
	model.FieldDefinition
	Control model.Control
	Value   string
	Error   error
}

func newSession(def *model.FormDefinition) (*Session, error) {
	s := &Session{
		Form:     def,
		variants: make([]model.Variant, len(def.Fields)),
		data:     make(map[string]string, len(def.Fields)),
		errs:     map[string]error{},
	}
	for i, f := range def.Fields {
		v, err := f.Variant()
		if err != nil {
			return nil, err
		}
		s.variants[i] = v
		s.data[f.ID] = ""
	}
	return s, nil
}

// Open loads a form for rendering. An inactive form yields a session in the
// SessionInactive state together with model.ErrInactive, so the caller can
// still show its title.
func (e *Engine) Open(ctx context.Context, id string) (*Session, error) {
	def, err := e.Forms.GetForm(ctx, id)
	if err != nil {
		return nil, err
	}
	s, err := newSession(def)
	if err != nil {
		return nil, err
	}
	if !def.Active {
		s.state = SessionInactive
		return s, model.ErrInactive
	}
	return s, nil
}

func (s *Session) State() SessionState {
	return s.state
}

// Set records the value of a field. Ids not in the form are ignored.
func (s *Session) Set(fieldID, value string) bool {
	if _, ok := s.data[fieldID]; !ok {
		return false
	}
	s.data[fieldID] = value
	delete(s.errs, fieldID)
	return true
}

func (s *Session) Value(fieldID string) string {
	return s.data[fieldID]
}

// Fields lists the form fields in order with their current values and the
// errors of the last rejected submit.
func (s *Session) Fields() []RenderedField {
	fields := make([]RenderedField, len(s.Form.Fields))
	for i, f := range s.Form.Fields {
		fields[i] = RenderedField{
			FieldDefinition: f,
			Control:         s.variants[i].Control(),
			Value:           s.data[f.ID],
			Error:           s.errs[f.ID],
		}
	}
	return fields
}

// Submit runs the guard, validation and persistence steps in order. A
// validation or persistence failure leaves the session ready for another
// attempt; a closed or removed form ends it.
func (e *Engine) Submit(ctx context.Context, s *Session) (*model.FormResponse, error) {
	switch s.state {
	case SessionSubmitted:
		return nil, ErrAlreadySubmitted
	case SessionInactive:
		return nil, &model.RaceLossError{FormID: s.Form.ID}
	case SessionNotFound:
		return nil, model.ErrNotFound
	}
	s.state = SessionSubmitting

	// The form may have been closed since it was opened. This is a plain
	// read before the write, so a deactivation landing in between still
	// lets the response through.
	active, err := e.Forms.FormStatus(ctx, s.Form.ID)
	switch {
	case errors.Is(err, model.ErrNotFound):
		s.state = SessionNotFound
		return nil, err
	case err != nil:
		s.state = SessionReady
		return nil, err
	case !active:
		s.state = SessionInactive
		return nil, &model.RaceLossError{FormID: s.Form.ID}
	}

	err = Validate(s.Form, s.data)
	if err != nil {
		s.state = SessionReady
		s.errs = map[string]error{}
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			for _, fe := range verr.Fields() {
				s.errs[fe.FieldID] = fe.Reason
			}
		}
		return nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		s.state = SessionReady
		return nil, err
	}
	data := make(map[string]string, len(s.data))
	for k, v := range s.data {
		data[k] = v
	}
	resp := &model.FormResponse{
		ID:        id.String(),
		FormID:    s.Form.ID,
		Data:      data,
		CreatedAt: e.now(),
	}

	err = e.Responses.CreateResponse(ctx, resp)
	if err != nil {
		s.state = SessionReady
		return nil, err
	}

	s.state = SessionSubmitted
	s.Response = resp
	e.publish(ctx, events.TopicResponseSubmitted, events.ResponseSubmitted{
		FormID:     resp.FormID,
		ResponseID: resp.ID,
		CreatedAt:  resp.CreatedAt,
	})
	return resp, nil
}

// Validate checks data against every field of def and reports all the
// violations at once. Empty values of optional fields are always accepted;
// a value made only of blanks counts as empty.
func Validate(def *model.FormDefinition, data map[string]string) error {
	var errs *multierror.Error
	for _, f := range def.Fields {
		v, err := f.Variant()
		if err != nil {
			errs = multierror.Append(errs, &model.FieldError{FieldID: f.ID, Label: f.Label, Reason: err})
			continue
		}

		value := data[f.ID]
		if f.Required && strings.TrimSpace(value) == "" {
			errs = multierror.Append(errs, &model.FieldError{FieldID: f.ID, Label: f.Label, Reason: model.ErrRequired})
			continue
		}
		// Only the empty string skips the shape check of an optional field.
		if value == "" {
			continue
		}

		if err := v.Check(value); err != nil {
			errs = multierror.Append(errs, &model.FieldError{FieldID: f.ID, Label: f.Label, Reason: err})
		}
	}
	return model.NewValidationError(errs)
}
