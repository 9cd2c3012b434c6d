package forms

import (
	"context"
	"strings"
	"time"

	"github.com/mbolis/parish-forms/idgen"
	"github.com/mbolis/parish-forms/model"
)

type DraftState int

const (
	DraftEmpty DraftState = iota
	DraftEditing
	DraftSubmittable
	DraftFailed
)

func (s DraftState) String() string {
	switch s {
	case DraftEmpty:
		return "empty"
	case DraftEditing:
		return "editing"
	case DraftSubmittable:
		return "submittable"
	case DraftFailed:
		return "failed"
	}
	return "unknown"
}

// FormCreator is the part of the store a Draft needs to commit itself.
type FormCreator interface {
	CreateForm(ctx context.Context, def *model.FormDefinition) error
}

// Draft is an unsaved form schema being assembled by an administrator.
// Nothing is persisted until Submit.
type Draft struct {
	Title       string
	Description string
	CoverImage  *string
	Fields      []model.FieldDefinition

	failure error
}

// FieldPatch holds the changes for UpdateField. Nil members are left alone;
// there is no way to change a field's id.
type FieldPatch struct {
	Type     *model.FieldType
	Label    *string
	Required *bool
	Options  []string
}

func (d *Draft) State() DraftState {
	switch {
	case d.failure != nil:
		return DraftFailed
	case strings.TrimSpace(d.Title) != "":
		return DraftSubmittable
	case d.Description != "" || d.CoverImage != nil || len(d.Fields) > 0:
		return DraftEditing
	}
	return DraftEmpty
}

// Failure is the error of the last failed Submit, cleared by any edit.
func (d *Draft) Failure() error {
	return d.failure
}

func (d *Draft) SetTitle(title string) {
	d.failure = nil
	d.Title = title
}

func (d *Draft) SetDescription(description string) {
	d.failure = nil
	d.Description = description
}

func (d *Draft) SetCoverImage(url string) {
	d.failure = nil
	if url == "" {
		d.CoverImage = nil
		return
	}
	d.CoverImage = &url
}

// AddField appends a blank field of type t and returns its new id.
func (d *Draft) AddField(t model.FieldType) (string, error) {
	if _, err := (model.FieldDefinition{Type: t}).Variant(); err != nil {
		return "", err
	}
	id, err := idgen.Field()
	if err != nil {
		return "", err
	}

	f := model.FieldDefinition{ID: id, Type: t}
	if t == model.FieldSingleSelect {
		f.Options = []string{""}
	}
	d.failure = nil
	d.Fields = append(d.Fields, f)
	return id, nil
}

func (d *Draft) index(id string) int {
	for i := range d.Fields {
		if d.Fields[i].ID == id {
			return i
		}
	}
	return -1
}

// UpdateField merges p into the field with the given id. Unknown ids are
// ignored.
func (d *Draft) UpdateField(id string, p FieldPatch) error {
	i := d.index(id)
	if i < 0 {
		return nil
	}
	f := d.Fields[i]

	if p.Type != nil && *p.Type != f.Type {
		if _, err := (model.FieldDefinition{Type: *p.Type}).Variant(); err != nil {
			return err
		}
		f.Type = *p.Type
		if f.Type != model.FieldSingleSelect {
			f.Options = nil
		} else if len(f.Options) == 0 {
			f.Options = []string{""}
		}
	}
	if p.Label != nil {
		f.Label = *p.Label
	}
	if p.Required != nil {
		f.Required = *p.Required
	}
	if p.Options != nil && f.Type == model.FieldSingleSelect {
		f.Options = append([]string(nil), p.Options...)
		if len(f.Options) == 0 {
			f.Options = []string{""}
		}
	}

	d.failure = nil
	d.Fields[i] = f
	return nil
}

func (d *Draft) RemoveField(id string) {
	i := d.index(id)
	if i < 0 {
		return
	}
	d.failure = nil
	d.Fields = append(d.Fields[:i], d.Fields[i+1:]...)
}

// MoveField shifts a field by delta positions, clamped to the list bounds.
func (d *Draft) MoveField(id string, delta int) {
	i := d.index(id)
	if i < 0 || delta == 0 {
		return
	}
	j := i + delta
	if j < 0 {
		j = 0
	}
	if j > len(d.Fields)-1 {
		j = len(d.Fields) - 1
	}

	f := d.Fields[i]
	if j < i {
		copy(d.Fields[j+1:i+1], d.Fields[j:i])
	} else {
		copy(d.Fields[i:j], d.Fields[i+1:j+1])
	}
	d.Fields[j] = f
	d.failure = nil
}

func (d *Draft) selectField(fieldID string) *model.FieldDefinition {
	i := d.index(fieldID)
	if i < 0 || d.Fields[i].Type != model.FieldSingleSelect {
		return nil
	}
	return &d.Fields[i]
}

// AddOption appends an empty option slot to a single-select field.
func (d *Draft) AddOption(fieldID string) bool {
	f := d.selectField(fieldID)
	if f == nil {
		return false
	}
	d.failure = nil
	f.Options = append(f.Options, "")
	return true
}

func (d *Draft) UpdateOption(fieldID string, index int, value string) bool {
	f := d.selectField(fieldID)
	if f == nil || index < 0 || index >= len(f.Options) {
		return false
	}
	d.failure = nil
	f.Options[index] = value
	return true
}

// RemoveOption drops an option; the last remaining slot cannot be removed.
func (d *Draft) RemoveOption(fieldID string, index int) bool {
	f := d.selectField(fieldID)
	if f == nil || index < 0 || index >= len(f.Options) || len(f.Options) == 1 {
		return false
	}
	d.failure = nil
	f.Options = append(f.Options[:index], f.Options[index+1:]...)
	return true
}

func (d *Draft) Reset() {
	*d = Draft{}
}

// Submit persists the draft as a new active form. On success the draft is
// reset and the stored definition returned; on failure the draft is kept
// as is so the caller can retry.
func (d *Draft) Submit(ctx context.Context, store FormCreator, now time.Time) (*model.FormDefinition, error) {
	if strings.TrimSpace(d.Title) == "" {
		return nil, model.ErrTitleRequired
	}

	id, err := idgen.Form()
	if err != nil {
		d.failure = err
		return nil, err
	}

	fields := make([]model.FieldDefinition, len(d.Fields))
	for i, f := range d.Fields {
		// blank option slots are editor leftovers
		var options []string
		for _, opt := range f.Options {
			if strings.TrimSpace(opt) != "" {
				options = append(options, opt)
			}
		}
		f.Options = options
		fields[i] = f
	}

	def := &model.FormDefinition{
		ID:          id,
		Title:       strings.TrimSpace(d.Title),
		Description: d.Description,
		CoverImage:  d.CoverImage,
		Fields:      fields,
		Active:      true,
		CreatedAt:   now,
	}

	err = store.CreateForm(ctx, def)
	if err != nil {
		d.failure = err
		return nil, err
	}

	d.Reset()
	return def, nil
}
