// Package apperr carries the error taxonomy shared by every service boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Kind string

const (
	KindNotFound        Kind = "NOT_FOUND"
	KindInvalidArgument Kind = "INVALID_ARGUMENT"
	KindInvalidState    Kind = "INVALID_STATE"
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindUnavailable     Kind = "UNAVAILABLE"
	KindConflict        Kind = "CONFLICT"
	KindInternal        Kind = "INTERNAL"
)

// ParseKind recognizes the wire form of a kind.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindNotFound, KindInvalidArgument, KindInvalidState, KindUnauthenticated,
		KindUnavailable, KindConflict, KindInternal:
		return k, true
	}
	return "", false
}

// Error is a classified failure. Msg is safe to show to callers.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, msg string) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func NotFound(format string, args ...any) error {
	return Errorf(KindNotFound, format, args...)
}

func InvalidArgument(format string, args ...any) error {
	return Errorf(KindInvalidArgument, format, args...)
}

func Unavailable(err error, msg string) error {
	return Wrap(KindUnavailable, err, msg)
}

// KindOf reports the kind of the first *Error in err's chain, INTERNAL otherwise.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the caller-facing text of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "internal error"
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindInvalidState, KindConflict:
		return http.StatusConflict
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// FromHTTPStatus is the fallback used when a peer answered without an error payload.
func FromHTTPStatus(code int) Kind {
	switch {
	case code == http.StatusNotFound:
		return KindNotFound
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return KindInvalidArgument
	case code == http.StatusConflict:
		return KindInvalidState
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return KindUnauthenticated
	case code == http.StatusGatewayTimeout || code == http.StatusServiceUnavailable ||
		code == http.StatusBadGateway || code == http.StatusTooManyRequests:
		return KindUnavailable
	default:
		return KindInternal
	}
}

func GRPCCode(kind Kind) codes.Code {
	switch kind {
	case KindNotFound:
		return codes.NotFound
	case KindInvalidArgument:
		return codes.InvalidArgument
	case KindInvalidState:
		return codes.FailedPrecondition
	case KindConflict:
		return codes.Aborted
	case KindUnauthenticated:
		return codes.Unauthenticated
	case KindUnavailable:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// ToGRPC converts err into a gRPC status error.
func ToGRPC(err error) error {
	if err == nil {
		return nil
	}
	return status.Error(GRPCCode(KindOf(err)), Message(err))
}

// FromGRPC classifies an error returned by a gRPC client call.
func FromGRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return Unavailable(err, "rpc failed")
	}
	var kind Kind
	switch st.Code() {
	case codes.NotFound:
		kind = KindNotFound
	case codes.InvalidArgument:
		kind = KindInvalidArgument
	case codes.FailedPrecondition:
		kind = KindInvalidState
	case codes.Aborted, codes.AlreadyExists:
		kind = KindConflict
	case codes.Unauthenticated, codes.PermissionDenied:
		kind = KindUnauthenticated
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled, codes.ResourceExhausted:
		kind = KindUnavailable
	default:
		kind = KindInternal
	}
	return Wrap(kind, err, st.Message())
}
