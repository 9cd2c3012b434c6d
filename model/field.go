package model

import (
	"net/url"
	"time"
)

type FieldType string

const (
	FieldText           FieldType = "text"
	FieldMultilineText  FieldType = "multiline-text"
	FieldSingleSelect   FieldType = "single-select"
	FieldDate           FieldType = "date"
	FieldImageReference FieldType = "image-reference"
)

// FieldTypes lists the closed set in display order.
var FieldTypes = []FieldType{
	FieldText,
	FieldMultilineText,
	FieldSingleSelect,
	FieldDate,
	FieldImageReference,
}

// Control names the input widget a renderer must produce for a field.
type Control string

const (
	ControlText     Control = "input-text"
	ControlTextarea Control = "textarea"
	ControlSelect   Control = "select"
	ControlDate     Control = "input-date"
	ControlImage    Control = "upload-image"
)

// DateLayout is the format of stored date values.
const DateLayout = "2006-01-02"

// Variant is implemented only by the types in this file. Adding a field type
// means adding a Variant here, which every render/validate site picks up
// through FieldDefinition.Variant.
type Variant interface {
	Type() FieldType
	Control() Control
	// Check validates the shape of a non-empty value.
	Check(value string) error

	variant()
}

type TextVariant struct{}

func (TextVariant) Type() FieldType { return FieldText }
func (TextVariant) Control() Control { return ControlText }
func (TextVariant) Check(value string) error { return nil }
func (TextVariant) variant() {}

type MultilineTextVariant struct{}

func (MultilineTextVariant) Type() FieldType { return FieldMultilineText }
func (MultilineTextVariant) Control() Control { return ControlTextarea }
func (MultilineTextVariant) Check(value string) error { return nil }
func (MultilineTextVariant) variant() {}

type SingleSelectVariant struct {
	Options []string
}

func (SingleSelectVariant) Type() FieldType { return FieldSingleSelect }
func (SingleSelectVariant) Control() Control { return ControlSelect }
func (v SingleSelectVariant) Check(value string) error {
	for _, opt := range v.Options {
		if opt == value {
			return nil
		}
	}
	return ErrNotAnOption
}
func (SingleSelectVariant) variant() {}

type DateVariant struct{}

func (DateVariant) Type() FieldType { return FieldDate }
func (DateVariant) Control() Control { return ControlDate }
func (DateVariant) Check(value string) error {
	if _, err := time.Parse(DateLayout, value); err != nil {
		return ErrInvalidDate
	}
	return nil
}
func (DateVariant) variant() {}

type ImageReferenceVariant struct{}

func (ImageReferenceVariant) Type() FieldType { return FieldImageReference }
func (ImageReferenceVariant) Control() Control { return ControlImage }
func (ImageReferenceVariant) Check(value string) error {
	u, err := url.Parse(value)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}
func (ImageReferenceVariant) variant() {}
