// Package apperr holds the error taxonomy shared by the cart, order and checkout
// packages. Handlers turn an *Error into an HTTP status and a user-facing message.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

type Kind int

const (
	KindRemote Kind = iota
	KindUnauthenticated
	KindValidation
	KindNotFound
	KindPrecondition
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindRemote:
		return "REMOTE"
	case KindUnauthenticated:
		return "UNAUTHENTICATED"
	case KindValidation:
		return "VALIDATION"
	case KindNotFound:
		return "NOT_FOUND"
	case KindPrecondition:
		return "FAILED_PRECONDITION"
	case KindForbidden:
		return "FORBIDDEN"
	default:
		return "UNKNOWN"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Precondition(message string) *Error {
	return &Error{Kind: KindPrecondition, Message: message}
}

func Preconditionf(format string, args ...any) *Error {
	return &Error{Kind: KindPrecondition, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func Remote(message string, cause error) *Error {
	return &Error{Kind: KindRemote, Message: message, Cause: cause}
}

// KindOf reports the kind of the first *Error in err's chain.
// Errors outside the taxonomy count as remote failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindRemote
}

func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// UserMessage is the text shown to the shopper. Causes are left out so transport
// details never reach the UI.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "Something went wrong, please try again"
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindPrecondition:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusBadGateway
	}
}

// FromValidator turns validator errors into a validation error whose message names the
// first offending field.
func FromValidator(err error) *Error {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) || len(vErrs) == 0 {
		return &Error{Kind: KindValidation, Message: "Invalid input", Cause: err}
	}
	vErr := vErrs[0]
	var msg string
	switch vErr.Tag() {
	case "required":
		msg = vErr.Field() + " value missing"
	case "min":
		msg = vErr.Field() + " value is less than " + vErr.Param()
	case "max":
		msg = vErr.Field() + " value is more than " + vErr.Param()
	case "oneof":
		msg = vErr.Field() + " must be one of " + vErr.Param()
	default:
		msg = vErr.Field() + " is invalid"
	}
	return &Error{Kind: KindValidation, Message: msg, Cause: err}
}
