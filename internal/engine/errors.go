package engine

// # Error Codes Reference
//
// Every error a run can record is classified into a category with a stable
// code that appears in logs and the report:
//
//	SHAPE001 - Record has too few columns to be a layer
//	FIELD001 - A column value could not be converted
//	VAL001   - The layer reports a fault or has an invalid number
//	IO001    - The layer document or its directories could not be written
//	FETCH001 - The layer image could not be downloaded
//	SETUP001 - The output root could not be prepared; the run did not start
//	ERR000   - Anything else

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/fakeprinter/internal/layer"
	"github.com/JonMunkholm/fakeprinter/internal/materialize"
)

var (
	// ErrEnded is the termination reason when the operator ends the print.
	ErrEnded = errors.New("print ended by operator")

	// ErrCancelled is the termination reason when cancellation was requested.
	ErrCancelled = errors.New("cancellation requested")
)

// SetupError reports a failure to prepare a run. Nothing is processed after one.
type SetupError struct {
	Op   string
	Path string
	Err  error
}

func (e *SetupError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("setup: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("setup: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// Category groups errors for counting and reporting.
type Category struct {
	Code  string
	Label string
}

var (
	CategoryShape      = Category{Code: "SHAPE001", Label: "shape"}
	CategoryField      = Category{Code: "FIELD001", Label: "field"}
	CategoryValidation = Category{Code: "VAL001", Label: "validation"}
	CategoryIO         = Category{Code: "IO001", Label: "io"}
	CategoryFetch      = Category{Code: "FETCH001", Label: "fetch"}
	CategorySetup      = Category{Code: "SETUP001", Label: "setup"}
	CategoryUnknown    = Category{Code: "ERR000", Label: "other"}
)

// classifiers are checked in order; the first match wins.
var classifiers = []struct {
	category Category
	match    func(error) bool
}{
	{CategoryShape, isType[*layer.ShapeError]},
	{CategoryField, isType[*layer.FieldError]},
	{CategoryValidation, isType[*layer.Rejection]},
	{CategoryIO, isType[*materialize.IOError]},
	{CategoryFetch, isType[*materialize.FetchError]},
	{CategorySetup, isType[*SetupError]},
}

func isType[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

// Classify returns the category of err.
func Classify(err error) Category {
	for _, c := range classifiers {
		if c.match(err) {
			return c.category
		}
	}
	return CategoryUnknown
}

// Reason returns the short text under which err is counted in the error
// reason histogram.
func Reason(err error) string {
	var (
		shape *layer.ShapeError
		field *layer.FieldError
		rej   *layer.Rejection
		ioErr *materialize.IOError
		fetch *materialize.FetchError
	)
	switch {
	case errors.As(err, &shape):
		return "missing columns"
	case errors.As(err, &field):
		return "invalid " + field.Name
	case errors.As(err, &rej):
		if rej.Fault != "" {
			return rej.Fault
		}
		return rej.Reason
	case errors.As(err, &ioErr):
		return ioErr.Op + " failed"
	case errors.As(err, &fetch):
		return "image download failed"
	}
	return err.Error()
}
