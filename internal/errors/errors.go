package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ValidationError is returned when caller input is malformed or incomplete.
// Fields holds per-field messages keyed by the JSON field name.
type ValidationError struct {
	Msg    string
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Msg
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], ", ")))
	}
	return fmt.Sprintf("%s (%s)", e.Msg, strings.Join(parts, "; "))
}

func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}

func NewFieldError(field, msg string) error {
	return &ValidationError{Msg: msg, Fields: map[string][]string{field: {msg}}}
}

func IsValidationError(err error) bool {
	var validationError *ValidationError
	ok := errors.As(err, &validationError)
	return ok
}

func AsValidationError(err error) (*ValidationError, bool) {
	var validationError *ValidationError
	if errors.As(err, &validationError) {
		return validationError, true
	}
	return nil, false
}

// ValidationErrors collects field messages before they are turned into a single ValidationError.
type ValidationErrors struct {
	Fields map[string][]string
}

func (ve *ValidationErrors) Add(field, msg string) {
	if ve.Fields == nil {
		ve.Fields = make(map[string][]string)
	}
	ve.Fields[field] = append(ve.Fields[field], msg)
}

func (ve *ValidationErrors) Has(field string) bool {
	_, ok := ve.Fields[field]
	return ok
}

func (ve *ValidationErrors) Empty() bool {
	return len(ve.Fields) == 0
}

// Err returns nil when nothing was collected.
func (ve *ValidationErrors) Err(msg string) error {
	if ve.Empty() {
		return nil
	}
	return &ValidationError{Msg: msg, Fields: ve.Fields}
}

// NotFoundError is used both for missing rows and for rows owned by someone else.
type NotFoundError struct {
	Resource string
	Msg      string
}

func (e *NotFoundError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

// NewNotFoundMessage replaces the default "<resource> not found" text.
func NewNotFoundMessage(resource, msg string) error {
	return &NotFoundError{Resource: resource, Msg: msg}
}

func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// ConflictError reports duplicate unique identity details.
type ConflictError struct {
	Msg    string
	Fields map[string][]string
}

func (e *ConflictError) Error() string {
	return e.Msg
}

func NewConflictError(msg string, fields map[string]string) error {
	conflict := &ConflictError{Msg: msg}
	if len(fields) > 0 {
		conflict.Fields = make(map[string][]string, len(fields))
		for field, message := range fields {
			conflict.Fields[field] = []string{message}
		}
	}
	return conflict
}

func IsConflict(err error) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict)
}

func AsConflict(err error) (*ConflictError, bool) {
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return conflict, true
	}
	return nil, false
}

type UnauthorizedError struct {
	Msg string
}

func (e *UnauthorizedError) Error() string {
	return e.Msg
}

func NewUnauthorizedError(msg string) error {
	return &UnauthorizedError{Msg: msg}
}

func IsUnauthorized(err error) bool {
	var unauthorized *UnauthorizedError
	return errors.As(err, &unauthorized)
}
