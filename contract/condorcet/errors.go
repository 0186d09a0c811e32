package condorcet

import "errors"

var (
	// ErrInvalidVote covers every malformed ranking. The more specific errors below wrap it.
	ErrInvalidVote = errors.New("invalid vote")
	// ErrArithmetic is returned when a margin or power figure would leave the 128 bit power range
	// or go below zero.
	ErrArithmetic = errors.New("arithmetic error")
	// ErrNoCandidates is returned for a matrix or tally with zero candidates.
	ErrNoCandidates = errors.New("at least one candidate is required")
	// ErrInvalidThreshold rejects percentages outside (0, 1].
	ErrInvalidThreshold = errors.New("invalid threshold")
	// ErrInvalidDuration rejects zero voting periods.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrDecode is returned by the binary codec on truncated or corrupted records.
	ErrDecode = errors.New("decode error")

	ErrVoteLength              = wrap(ErrInvalidVote, "ranking length does not match candidate count")
	ErrCandidateOutOfRange     = wrap(ErrInvalidVote, "candidate index out of range")
	ErrDuplicateCandidate      = wrap(ErrInvalidVote, "candidate ranked more than once")
	ErrPowerExceedsOutstanding = wrap(ErrArithmetic, "vote power exceeds outstanding power")
)

type wrappedError struct {
	parent error
	msg    string
}

func (e *wrappedError) Error() string { return e.parent.Error() + ": " + e.msg }

func (e *wrappedError) Unwrap() error { return e.parent }

// wrap builds a sentinel that still matches its parent with errors.Is.
func wrap(parent error, msg string) error {
	return &wrappedError{parent: parent, msg: msg}
}
