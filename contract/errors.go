package contract

import "errors"

var (
	ErrNotInstantiated     = errors.New("contract is not instantiated")
	ErrAlreadyInstantiated = errors.New("contract is already instantiated")
	ErrInvalidConfig       = errors.New("invalid config")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrProposalNotFound    = errors.New("proposal not found")
	ErrTooFewChoices       = errors.New("a ranked proposal needs at least two choices")
	ErrNotOpen             = errors.New("proposal is not open")
	ErrAlreadyVoted        = errors.New("already voted")
	ErrZeroVotingPower     = errors.New("zero voting power")
	ErrNotPassed           = errors.New("proposal has not passed")
	ErrNotRejected         = errors.New("only rejected proposals can be closed")
	ErrMinVotingPeriod     = errors.New("min voting period has not elapsed")
	ErrInvalidPayload      = errors.New("invalid payload")
	ErrDispatch            = errors.New("dispatch failed")
)
