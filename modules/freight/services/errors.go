package services

import "github.com/go-faster/errors"

var (
	// ErrPermissionDenied is returned when a status requester is neither
	// the task owner nor a configured operator.
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnknownDecision  = errors.New("unknown mapping decision")
)
