package service

import (
	"fmt"
	"net/mail"
)

// matchRule is a cross-field equality constraint: the value selected by
// confirm must equal the value selected by field. One rule type serves
// every confirm-this-field case instead of per-field bespoke checks.
type matchRule[T any] struct {
	field   func(T) string
	confirm func(T) string
	err     error
}

func fieldsMatch[T any](field, confirm func(T) string, err error) matchRule[T] {
	return matchRule[T]{field: field, confirm: confirm, err: err}
}

func (r matchRule[T]) Validate(in T) error {
	if r.field(in) != r.confirm(in) {
		return r.err
	}
	return nil
}

func validateEmailFormat(email string) error {
	if email == "" {
		return ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

func validatePasswordLength(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: minimum %d characters", ErrPasswordTooShort, minPasswordLength)
	}
	return nil
}
