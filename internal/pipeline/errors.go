package pipeline

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies pipeline failures.
type Kind string

const (
	KindIngestion  Kind = "ingestion"
	KindValidation Kind = "validation"
	KindExtraction Kind = "extraction"
	KindGeneration Kind = "generation"
	KindPackaging  Kind = "packaging"
)

// Error is a user-visible failure: an HTTP status plus a readable detail.
// Err keeps the underlying cause for logs and errors.Is.
type Error struct {
	Kind   Kind
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

func fail(kind Kind, status int, detail string, err error) *Error {
	return &Error{Kind: kind, Status: status, Detail: detail, Err: err}
}

func notFound(detail string) *Error {
	return fail(KindValidation, http.StatusNotFound, detail, nil)
}

func badRequest(kind Kind, detail string, err error) *Error {
	return fail(kind, http.StatusBadRequest, detail, err)
}

// Describe maps any error to a status and detail. Errors that are not a
// *Error become 500 with the error text as detail.
func Describe(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Status, pe.Detail
	}
	return http.StatusInternalServerError, "Unexpected error: " + err.Error()
}
