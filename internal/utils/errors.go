package utils

import (
	"errors"
	"fmt"
)

// Kind classifies an AppError so the boundary can map failures to responses.
type Kind int

const (
	// KindInternal marks unexpected numerical or runtime failures.
	KindInternal Kind = iota
	// KindData marks malformed client input (empty, duplicate-dated, negative).
	KindData
	// KindFit marks a model that could not be fit to the training series.
	KindFit
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindFit:
		return "fit"
	default:
		return "internal"
	}
}

// AppError wraps an operation, classification, human-facing message, and
// underlying error.
type AppError struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// DataError constructs an AppError for malformed input.
func DataError(op, msg string, err error) error {
	return &AppError{Kind: KindData, Op: op, Msg: msg, Err: err}
}

// FitError constructs an AppError for a model-fitting failure.
func FitError(op, msg string, err error) error {
	return &AppError{Kind: KindFit, Op: op, Msg: msg, Err: err}
}

// InternalError constructs an AppError for unexpected failures.
func InternalError(op, msg string, err error) error {
	return &AppError{Kind: KindInternal, Op: op, Msg: msg, Err: err}
}

// KindOf extracts the classification from err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var app *AppError
	if errors.As(err, &app) {
		return app.Kind
	}
	return KindInternal
}
