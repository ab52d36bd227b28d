package model

import (
	"errors"
	"fmt"
)

// MalformedEventError reports a raw feed record missing required
// fields. The caller drops the record and logs it; ingestion of
// subsequent records continues.
type MalformedEventError struct {
	Feed   string
	Reason string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed %s event: %s", e.Feed, e.Reason)
}

// ErrUnknownIdentity is returned for a clear signal naming an identity
// that was never seen. Callers treat it as a no-op.
var ErrUnknownIdentity = errors.New("clear signal for unknown alert identity")

// ErrNoEnabledCards means the configured deck leaves the scheduler
// nothing to rotate. Fatal at startup.
var ErrNoEnabledCards = errors.New("no enabled cards configured")
