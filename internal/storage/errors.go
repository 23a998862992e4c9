package storage

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies backend failures.
type ErrorKind string

const (
	KindTimeout             ErrorKind = "timeout"
	KindTransportFailure    ErrorKind = "transport_failure"
	KindConstraintViolation ErrorKind = "constraint_violation"
)

// ErrNoRows is wrapped when an update matched no row.
var ErrNoRows = errors.New("no rows matched")

// Error is returned by every Store implementation.
type Error struct {
	Kind  ErrorKind
	Op    string
	Table Table
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s %s: %s: %v", e.Op, e.Table, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a storage error of an explicit kind.
func NewError(kind ErrorKind, op string, table Table, err error) *Error {
	return &Error{Kind: kind, Op: op, Table: table, Err: err}
}

// Wrap classifies err into a *Error. Existing *Error values pass through.
// Deadline and network timeouts become KindTimeout; everything else is a
// transport failure unless the adapter already said otherwise.
func Wrap(op string, table Table, err error) error {
	if err == nil {
		return nil
	}

	var sErr *Error
	if errors.As(err, &sErr) {
		return err
	}

	if IsTimeout(err) {
		return NewError(KindTimeout, op, table, err)
	}
	return NewError(KindTransportFailure, op, table, err)
}

// IsTimeout reports whether err is a deadline or network timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// KindOf returns the kind of a storage error, or "" if err is not one.
func KindOf(err error) ErrorKind {
	var sErr *Error
	if errors.As(err, &sErr) {
		return sErr.Kind
	}
	return ""
}

// IsConstraintViolation reports whether err is a unique/constraint failure.
func IsConstraintViolation(err error) bool {
	return KindOf(err) == KindConstraintViolation
}
