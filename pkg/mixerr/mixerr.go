// Package mixerr defines the small, closed set of error kinds the mixer and
// its protocol surface to callers. Every error the mixer itself reports is
// one of these kinds; an error returned by a MutateMixer closure is passed
// through unchanged. Callers distinguish kinds with errors.Is against the
// package's sentinel values or with errors.As against *Error.
package mixerr

import (
	"errors"
	"fmt"
)

// Kind is a closed taxonomy of mixer failure categories.
type Kind int

const (
	// InvalidArgument means a request's parameters are malformed (a
	// negative duration, an inverted interval, a zero track id).
	InvalidArgument Kind = iota
	// TrackNotFound means a request referenced a TrackID the mixer has no
	// record of, or whose stream has already been removed.
	TrackNotFound
	// QueueFull means a bounded FIFO rejected a request because it was
	// already at capacity; only critical requests ever surface this.
	QueueFull
	// StreamExhausted means a pull was attempted against a stream past
	// its placed interval or past data its decoder can still produce.
	StreamExhausted
	// ProgrammerError means an invariant the mixer itself is responsible
	// for upholding was violated (a pool accounting mismatch, a tree
	// lookup returning no node for a live global index); it should never
	// be observed and indicates a defect in the mixer, not its caller.
	ProgrammerError
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case TrackNotFound:
		return "track_not_found"
	case QueueFull:
		return "queue_full"
	case StreamExhausted:
		return "stream_exhausted"
	case ProgrammerError:
		return "programmer_error"
	default:
		return "unknown"
	}
}

// Error pairs a Kind with a human-readable message; an offending track id,
// where there is one, appears only in the message text. It implements
// errors.Is against the package's
// sentinel Kind-wrapping values so callers can branch on category without
// string matching.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("mixerr: %s: %s", e.Kind, e.Message)
}

func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Kind == e.Kind
	}
	return false
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrInvalidArgument = &Error{Kind: InvalidArgument, Message: "invalid argument"}
	ErrTrackNotFound   = &Error{Kind: TrackNotFound, Message: "track not found"}
	ErrQueueFull       = &Error{Kind: QueueFull, Message: "queue full"}
	ErrStreamExhausted = &Error{Kind: StreamExhausted, Message: "stream exhausted"}
	ErrProgrammerError = &Error{Kind: ProgrammerError, Message: "programmer error"}
)

// KindOf extracts the Kind from err if it is (or wraps) a *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
