// Package apperr classifies failures so the HTTP layer can map them to a status code
// and a caller-safe message.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindForbidden
	KindNotFound
	KindConflict
	KindUpload
	KindCompression
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUpload:
		return "upload"
	case KindCompression:
		return "compression"
	case KindStorage:
		return "storage"
	default:
		return "internal"
	}
}

// Error carries a Kind, a message that is safe to show to clients for 4xx kinds,
// and the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String() + " error"
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newf(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func Validation(format string, args ...any) *Error {
	return newf(KindValidation, nil, format, args...)
}

func Auth(format string, args ...any) *Error {
	return newf(KindAuth, nil, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return newf(KindForbidden, nil, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, nil, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newf(KindConflict, nil, format, args...)
}

func Upload(err error, format string, args ...any) *Error {
	return newf(KindUpload, err, format, args...)
}

func Compression(err error, format string, args ...any) *Error {
	return newf(KindCompression, err, format, args...)
}

func Storage(err error, format string, args ...any) *Error {
	return newf(KindStorage, err, format, args...)
}

func Internal(err error, format string, args ...any) *Error {
	return newf(KindInternal, err, format, args...)
}

// KindOf reports the kind of the first *Error in err's chain. gorm.ErrRecordNotFound
// counts as KindNotFound; anything unclassified is KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return KindNotFound
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Status maps err to an HTTP status code.
func Status(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text shown to API clients. Server-side failures get a
// generic message so storage and database details never leak.
func PublicMessage(err error) string {
	if Status(err) >= http.StatusInternalServerError {
		switch KindOf(err) {
		case KindUpload, KindCompression, KindStorage:
			return "Failed to process uploaded images"
		default:
			return "Internal server error"
		}
	}
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "Record not found"
	}
	return err.Error()
}
