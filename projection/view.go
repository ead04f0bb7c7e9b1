// Package projection builds local read models from observed snapshots.
// Each view replaces its state wholesale on every snapshot, mirroring the
// full-reload delivery policy of the sync engine. Does not emit events or
// interact with UI directly.
package projection

import (
	"context"
	"sync"

	"flashchat/contract"
	"flashchat/domain"
)

// ThreadListView holds the latest thread list for one user.
type ThreadListView struct {
	mu      sync.RWMutex
	threads []domain.Thread
}

func NewThreadListView() *ThreadListView {
	return &ThreadListView{}
}

func (v *ThreadListView) Consume(_ context.Context, snapshot contract.ThreadSnapshot) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.threads = snapshot.Threads
	return nil
}

// Threads returns the last delivered list, most recent activity first.
func (v *ThreadListView) Threads() []domain.Thread {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.threads
}

// ConversationView holds the latest state of one open thread.
type ConversationView struct {
	mu       sync.RWMutex
	messages []domain.Message
	deleted  bool
	readOnly bool
}

func NewConversationView() *ConversationView {
	return &ConversationView{}
}

func (v *ConversationView) Consume(_ context.Context, snapshot contract.MessageSnapshot) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.messages = snapshot.Messages
	v.deleted = snapshot.ThreadDeleted
	v.readOnly = len(snapshot.UnregisteredRecipients) > 0
	return nil
}

// Messages returns the last delivered log, ascending by (date, id).
func (v *ConversationView) Messages() []domain.Message {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.messages
}

// Deleted reports that the thread disappeared from the store.
func (v *ConversationView) Deleted() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.deleted
}

// ReadOnly reports that at least one recipient is no longer registered, so
// no new messages should be sent on the thread.
func (v *ConversationView) ReadOnly() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.readOnly
}
