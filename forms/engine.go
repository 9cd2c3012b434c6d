// Package forms implements the dynamic form engine: building schemas,
// rendering them for the public, collecting responses and exporting them.
package forms

import (
	"context"
	"errors"
	"time"

	"github.com/mbolis/parish-forms/events"
	"github.com/mbolis/parish-forms/log"
	"github.com/mbolis/parish-forms/model"
)

type FormStore interface {
	FormCreator
	GetForm(ctx context.Context, id string) (*model.FormDefinition, error)
	FormStatus(ctx context.Context, id string) (active bool, err error)
	ListForms(ctx context.Context) ([]model.FormSummary, error)
	SetFormActive(ctx context.Context, id string, active bool) error
	DeleteForm(ctx context.Context, id string) error
}

type ResponseStore interface {
	CreateResponse(ctx context.Context, resp *model.FormResponse) error
	ListResponses(ctx context.Context, formID string) ([]model.FormResponse, error)
}

// Engine ties the form operations to their stores. It holds no per-request
// state: drafts and sessions are passed in explicitly.
type Engine struct {
	Forms     FormStore
	Responses ResponseStore
	Events    events.Publisher
	Now       func() time.Time
}

func NewEngine(forms FormStore, responses ResponseStore, publisher events.Publisher) *Engine {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Engine{
		Forms:     forms,
		Responses: responses,
		Events:    publisher,
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now().UTC()
	}
	return e.Now()
}

// publish never fails the operation that triggered it.
func (e *Engine) publish(ctx context.Context, topic string, event any) {
	if e.Events == nil {
		return
	}
	if err := e.Events.Publish(ctx, topic, event); err != nil {
		log.WithFields(log.Fields{"topic": topic, "err": err}).Warn("events.publish")
	}
}

// CreateForm commits a draft and announces the new form.
func (e *Engine) CreateForm(ctx context.Context, d *Draft) (*model.FormDefinition, error) {
	def, err := d.Submit(ctx, e.Forms, e.now())
	if err != nil {
		return nil, err
	}
	e.publish(ctx, events.TopicFormCreated, events.FormCreated{Form: def})
	return def, nil
}

func (e *Engine) GetForm(ctx context.Context, id string) (*model.FormDefinition, error) {
	return e.Forms.GetForm(ctx, id)
}

func (e *Engine) ListForms(ctx context.Context) ([]model.FormSummary, error) {
	return e.Forms.ListForms(ctx)
}

func (e *Engine) SetActive(ctx context.Context, id string, active bool) error {
	if err := e.Forms.SetFormActive(ctx, id, active); err != nil {
		return err
	}
	topic := events.TopicFormDeactivated
	if active {
		topic = events.TopicFormActivated
	}
	e.publish(ctx, topic, events.FormToggled{FormID: id, Active: active})
	return nil
}

func (e *Engine) DeleteForm(ctx context.Context, id string) error {
	if err := e.Forms.DeleteForm(ctx, id); err != nil {
		return err
	}
	e.publish(ctx, events.TopicFormDeleted, events.FormDeleted{FormID: id})
	return nil
}

// ListResponses returns the responses of an existing form, oldest first.
func (e *Engine) ListResponses(ctx context.Context, formID string) ([]model.FormResponse, error) {
	if _, err := e.Forms.FormStatus(ctx, formID); err != nil {
		return nil, err
	}
	return e.Responses.ListResponses(ctx, formID)
}

// IsTerminal reports whether err ends the public flow for a form, as opposed
// to an error the visitor can recover from by retrying.
func IsTerminal(err error) bool {
	return errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrInactive)
}
