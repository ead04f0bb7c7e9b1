package errors

import (
	"fmt"
	"strings"
)

var (
	ErrStoreUnavailable       = fmt.Errorf("store unavailable")
	ErrThreadNotFound         = fmt.Errorf("thread not found")
	ErrValidationFailed       = fmt.Errorf("validation failed")
	ErrUnregisteredRecipients = fmt.Errorf("unregistered recipients")
	ErrUserAlreadyExists      = fmt.Errorf("user already exists")
	ErrPartialDelete          = fmt.Errorf("partial delete")
)

// UnregisteredRecipientsError carries the complete set of offending
// identities so the caller can report all of them at once.
type UnregisteredRecipientsError struct {
	Offending []string
}

func (e *UnregisteredRecipientsError) Error() string {
	return fmt.Sprintf("unregistered recipients: %s", strings.Join(e.Offending, ", "))
}

func (e *UnregisteredRecipientsError) Unwrap() error {
	return ErrUnregisteredRecipients
}

// PartialDeleteError reports a two-phase thread deletion that did not fully
// complete. The store has no multi-document transaction, so the remaining
// state is inconsistent but recoverable: retrying the delete is safe.
type PartialDeleteError struct {
	ThreadID      string
	ThreadDeleted bool
	Err           error
}

func (e *PartialDeleteError) Error() string {
	phase := "messages"
	if e.ThreadDeleted {
		phase = "thread record"
	}
	return fmt.Sprintf("partial delete of thread %s (%s phase): %v", e.ThreadID, phase, e.Err)
}

func (e *PartialDeleteError) Unwrap() []error {
	return []error{ErrPartialDelete, e.Err}
}
