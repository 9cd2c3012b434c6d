package forms

import (
	"github.com/mbolis/parish-forms/model"
)

// FormSpec is the declarative shape of a new form, as posted by the admin
// dashboard or read from a YAML file. It carries no ids: they are generated
// when the FormSpec is replayed into a Draft.
type FormSpec struct {
	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description" yaml:"description"`
	CoverImage  string      `json:"coverImage" yaml:"coverImage"`
	Fields      []FieldSpec `json:"fields" yaml:"fields"`
}

type FieldSpec struct {
	Type     model.FieldType `json:"type" yaml:"type"`
	Label    string          `json:"label" yaml:"label"`
	Required bool            `json:"required" yaml:"required"`
	Options  []string        `json:"options" yaml:"options"`
}

// Draft builds a Draft by replaying s through the Builder operations.
func (s FormSpec) Draft() (*Draft, error) {
	d := &Draft{}
	d.SetTitle(s.Title)
	d.SetDescription(s.Description)
	d.SetCoverImage(s.CoverImage)

	for _, fs := range s.Fields {
		id, err := d.AddField(fs.Type)
		if err != nil {
			return nil, err
		}
		label, required := fs.Label, fs.Required
		err = d.UpdateField(id, FieldPatch{
			Label:    &label,
			Required: &required,
			Options:  fs.Options,
		})
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}
