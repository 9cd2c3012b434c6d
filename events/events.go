// Package events publishes form lifecycle notifications.
package events

import (
	"context"
	"time"

	"github.com/mbolis/parish-forms/model"
)

const (
	TopicFormCreated       = "forms.form.created"
	TopicFormActivated     = "forms.form.activated"
	TopicFormDeactivated   = "forms.form.deactivated"
	TopicFormDeleted       = "forms.form.deleted"
	TopicResponseSubmitted = "forms.response.submitted"
)

type FormCreated struct {
	Form *model.FormDefinition `json:"form"`
}

type FormToggled struct {
	FormID string `json:"form_id"`
	Active bool   `json:"active"`
}

type FormDeleted struct {
	FormID string `json:"form_id"`
}

// ResponseSubmitted carries ids only; response data stays in the store.
type ResponseSubmitted struct {
	FormID     string    `json:"form_id"`
	ResponseID string    `json:"response_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
