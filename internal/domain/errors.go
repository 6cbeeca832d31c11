package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrTooManyRequests    = errors.New("too many requests")
	ErrCaptchaFailed      = errors.New("captcha verification failed")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrInvalidTransition  = errors.New("invalid transition")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// InvalidPayloadError lists every failing field of a request.
type InvalidPayloadError struct {
	Fields []FieldError
}

func (e *InvalidPayloadError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid payload: " + strings.Join(parts, "; ")
}

func (e *InvalidPayloadError) Add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

// Err returns nil when no field failed.
func (e *InvalidPayloadError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
