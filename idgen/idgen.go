// Package idgen generates short, URL-safe identifiers for forms and fields.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

const (
	FormPrefix  = "frm-"
	FieldPrefix = "fld-"
)

// Alphabet is the character set of the random part of an ID.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters, prefix excluded.
var Length = 12

func Form() (string, error) {
	return WithPrefix(FormPrefix)
}

func Field() (string, error) {
	return WithPrefix(FieldPrefix)
}

// WithPrefix returns a new random ID with the given prefix.
func WithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
