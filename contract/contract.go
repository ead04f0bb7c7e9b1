//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"

	"flashchat/domain"
)

// ThreadSnapshot is one full replacement of a user's thread list, ordered
// descending by last activity. Consumers swap their view wholesale rather
// than patching it; stale partial state is never observable.
type ThreadSnapshot struct {
	Threads []domain.Thread
}

// MessageSnapshot is one full replacement of a thread's ordered message log.
type MessageSnapshot struct {
	ThreadID string
	// Messages ascending by (date, id). Nil when ThreadDeleted.
	Messages []domain.Message
	// ThreadDeleted reports that the thread disappeared from the store,
	// typically deleted from another client session.
	ThreadDeleted bool
	// UnregisteredRecipients lists participants that have dropped out of the
	// registration directory since the thread was created. A non-empty list
	// means the thread should be treated as read-only.
	UnregisteredRecipients []string
}

type ThreadSink interface {
	Consume(ctx context.Context, snapshot ThreadSnapshot) error
}

type MessageSink interface {
	Consume(ctx context.Context, snapshot MessageSnapshot) error
}
