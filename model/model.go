package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type FieldDefinition struct {
	ID       string    `json:"id" yaml:"id"`
	Type     FieldType `json:"type" yaml:"type"`
	Label    string    `json:"label" yaml:"label"`
	Options  []string  `json:"options,omitempty" yaml:"options,omitempty"`
	Required bool      `json:"required" yaml:"required"`
}

// Variant resolves the stored type string into its closed variant.
func (f FieldDefinition) Variant() (Variant, error) {
	switch f.Type {
	case FieldText:
		return TextVariant{}, nil
	case FieldMultilineText:
		return MultilineTextVariant{}, nil
	case FieldSingleSelect:
		return SingleSelectVariant{Options: f.Options}, nil
	case FieldDate:
		return DateVariant{}, nil
	case FieldImageReference:
		return ImageReferenceVariant{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFieldType, f.Type)
}

type FormDefinition struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	CoverImage  *string           `json:"coverImage"`
	Fields      []FieldDefinition `json:"fields"`
	Active      bool              `json:"active"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// Field returns the field with the given id, if any.
func (d *FormDefinition) Field(id string) (FieldDefinition, bool) {
	for _, f := range d.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// Validate checks the structural invariants every persisted schema must hold.
func (d *FormDefinition) Validate() error {
	if d.Title == "" {
		return ErrTitleRequired
	}
	seen := make(map[string]bool, len(d.Fields))
	for i, f := range d.Fields {
		if f.ID == "" {
			return fmt.Errorf("%w: field #%d has no id", ErrInvalidSchema, i+1)
		}
		if seen[f.ID] {
			return fmt.Errorf("%w: duplicate field id %q", ErrInvalidSchema, f.ID)
		}
		seen[f.ID] = true

		if _, err := f.Variant(); err != nil {
			return err
		}
		if f.Type == FieldSingleSelect && !hasOption(f.Options) {
			return fmt.Errorf("%w: single-select field %q has no options", ErrInvalidSchema, f.ID)
		}
	}
	return nil
}

func hasOption(options []string) bool {
	for _, opt := range options {
		if strings.TrimSpace(opt) != "" {
			return true
		}
	}
	return false
}

type FormSummary struct {
	FormDefinition
	ResponseCount int `json:"responseCount"`
}

type FormResponse struct {
	ID        string            `json:"id"`
	FormID    string            `json:"formId"`
	Data      map[string]string `json:"data"`
	CreatedAt time.Time         `json:"createdAt"`
}

var (
	ErrTitleRequired    = errors.New("title is required")
	ErrInvalidSchema    = errors.New("invalid form schema")
	ErrUnknownFieldType = errors.New("unknown field type")
)
