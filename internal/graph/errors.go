package graph

import (
	"errors"
	"fmt"
)

// The service surfaces three recoverable error kinds. Each carries a human
// readable description plus, where known, the originating file and line.
// Anything else coming out of the service is treated as an internal error
// by callers.

// TransformError reports a failure while transforming a source file
// (syntax error, bad plugin output).
type TransformError struct {
	Description string
	Filename    string
	LineNumber  int
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform error in %s:%d: %s", e.Filename, e.LineNumber, e.Description)
}

// NotFoundError reports that a requested file does not exist.
type NotFoundError struct {
	Description string
	Filename    string
	LineNumber  int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.Description)
}

// UnableToResolveError reports that an import specifier could not be
// resolved to a module.
type UnableToResolveError struct {
	Description string
	Filename    string
	LineNumber  int
}

func (e *UnableToResolveError) Error() string {
	return fmt.Sprintf("unable to resolve from %s:%d: %s", e.Filename, e.LineNumber, e.Description)
}

// ErrorKind names the closed set of recoverable service error kinds as they
// appear on the wire.
type ErrorKind string

const (
	KindTransform       ErrorKind = "TransformError"
	KindNotFound        ErrorKind = "NotFoundError"
	KindUnableToResolve ErrorKind = "UnableToResolveError"
	KindInternal        ErrorKind = "InternalError"
)

// Classify maps err onto the closed error taxonomy. It returns the kind,
// the description and location to report, and whether err was one of the
// recoverable service kinds. Unknown errors classify as KindInternal with
// ok == false; callers must not forward their detail to clients.
func Classify(err error) (kind ErrorKind, description, filename string, line int, ok bool) {
	var te *TransformError
	if errors.As(err, &te) {
		return KindTransform, te.Description, te.Filename, te.LineNumber, true
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return KindNotFound, nf.Description, nf.Filename, nf.LineNumber, true
	}
	var ur *UnableToResolveError
	if errors.As(err, &ur) {
		return KindUnableToResolve, ur.Description, ur.Filename, ur.LineNumber, true
	}
	return KindInternal, "", "", 0, false
}
