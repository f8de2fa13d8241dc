package core

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a local (client side) validation failure: no network call was made.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

// NewValidationErrorf is a shortcut for a ValidationError carrying a single message.
func NewValidationErrorf(msg string, flds ...FieldError) error {
	return &ValidationError{errors.New(msg), flds}
}

func (err ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	if len(err.Fields) > 0 {
		return err.Fields[0].Error
	}
	return ""
}

// IsValidationError reports whether the cause of err is a *ValidationError.
func IsValidationError(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

// TranslateValidationErrors converts validator errors into a ValidationError with translated field messages.
// Any other error is returned as is.
func TranslateValidationErrors(err error, translator ut.Translator) error {
	vErrs, ok := errors.Cause(err).(validator.ValidationErrors)
	if !ok {
		return err
	}
	flds := make([]FieldError, 0, len(vErrs))
	for _, vErr := range vErrs {
		flds = append(flds, FieldError{Field: vErr.Field(), Error: vErr.Translate(translator)})
	}
	return NewValidationError(nil, flds...)
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}

// userMessager is implemented by errors that carry a message meant for the end user.
type userMessager interface {
	UserMessage() string
}

// UserMessage returns the message to show the end user for err, or fallback when err carries none.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	switch origErr := errors.Cause(err).(type) {
	case *ValidationError:
		if msg := origErr.Error(); msg != "" {
			return msg
		}
	case userMessager:
		if msg := origErr.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}
