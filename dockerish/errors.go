package dockerish

import "errors"

// ErrMalformedEvent is returned when a raw event lacks one of its mandatory fields
var ErrMalformedEvent = errors.New("malformed event")

// ErrUnexpectedField is returned when a raw event carries a field the normalizer does not know
var ErrUnexpectedField = errors.New("unexpected field")

// ErrUnknownEvent is returned when registering a handler for a name outside the vocabulary
var ErrUnknownEvent = errors.New("unknown event name")

// ErrNilHandler is returned when registering a nil handler
var ErrNilHandler = errors.New("nil handler")

// ErrNotFound is returned by an Engine lookup when the resource no longer exists
var ErrNotFound = errors.New("resource not found")

// ErrAlreadyRunning is returned by Run on a dispatcher that was already started
var ErrAlreadyRunning = errors.New("dispatcher already running")

// ErrQuery wraps the last error of an event window query that exhausted its retries
var ErrQuery = errors.New("event query failed")

// ErrHandler wraps an error returned by a registered handler
var ErrHandler = errors.New("handler failed")
