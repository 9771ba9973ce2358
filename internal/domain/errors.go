package domain

import "errors"

var (
	ErrEmptyDocument     = errors.New("document text is empty")
	ErrInvalidRole       = errors.New("invalid speaker role")
	ErrUnknownSkill      = errors.New("unknown skill")
	ErrUnknownProvider   = errors.New("unknown evidence producer provider")
	ErrInvalidTimestamp  = errors.New("invalid timestamp format")
	ErrNoSentences       = errors.New("no sentences available")
	ErrProducerExhausted = errors.New("all evidence producers failed")
)
