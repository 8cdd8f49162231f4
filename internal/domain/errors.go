package domain

import "errors"

var (
	// ErrRunNotStarted is returned when a record is appended to a run that
	// has no status update yet.
	ErrRunNotStarted = errors.New("status update not started")

	// ErrUnrecognizedRecordType is returned when a wire record carries an
	// unknown or missing "type" tag.
	ErrUnrecognizedRecordType = errors.New("unrecognized status record type")

	// ErrBackendUnavailable is returned when the context a store backend
	// depends on (for example an active session) is missing.
	ErrBackendUnavailable = errors.New("status backend unavailable")
)
