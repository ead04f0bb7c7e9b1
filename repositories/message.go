//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"flashchat/domain"
	apperrors "flashchat/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	Append(threadID, sender, body string, at time.Time) (domain.Message, error)
	Find(threadID, messageID string) (domain.Message, bool, error)
	Delete(threadID, messageID string) error
	DeleteAllFor(threadID string) error
	ListFor(threadID string) ([]domain.Message, error)
}

// MessageRepository owns message records, scoped by thread id. A message has
// no existence outside its thread.
type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) IMessageRepository {
	return &MessageRepository{db: db, log: log}
}

// DiskBubble is the stored form of a message bubble.
type DiskBubble struct {
	ID     string    `json:"id"`
	Sender string    `json:"sender"`
	Body   string    `json:"body"`
	Date   time.Time `json:"date"`
}

// BubblePrefix scopes one thread's message log.
func BubblePrefix(threadID string) []byte {
	return []byte("bubble:" + threadID + ":")
}

// bubbleKey is formatted as "bubble:{thread_id}:{timestamp_padded}:{id}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  2. Break timestamp ties deterministically on the store-assigned id.
func bubbleKey(threadID string, at time.Time, id string) []byte {
	return []byte(fmt.Sprintf("bubble:%s:%019d:%s", threadID, at.UnixNano(), id))
}

// Append persists a new bubble and returns it with its store-assigned id.
func (m *MessageRepository) Append(threadID, sender, body string, at time.Time) (domain.Message, error) {
	disk := DiskBubble{
		ID:     uuid.NewString(),
		Sender: sender,
		Body:   body,
		Date:   at.UTC(),
	}
	data, err := json.Marshal(disk)
	if err != nil {
		return domain.Message{}, fmt.Errorf("marshal failed: %w", err)
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(bubbleKey(threadID, disk.Date, disk.ID), data)
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("appending message: %w: %w", apperrors.ErrStoreUnavailable, err)
	}
	return toMessage(disk), nil
}

// Find locates a bubble by id within a thread.
func (m *MessageRepository) Find(threadID, messageID string) (domain.Message, bool, error) {
	var found bool
	var disk DiskBubble
	prefix := BubblePrefix(threadID)
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			if !strings.HasSuffix(string(item.Key()), ":"+messageID) {
				continue
			}
			found = true
			return item.Value(func(val []byte) error {
				return json.Unmarshal(val, &disk)
			})
		}
		return nil
	})
	if err != nil {
		return domain.Message{}, false, fmt.Errorf("finding message %s: %w: %w", messageID, apperrors.ErrStoreUnavailable, err)
	}
	return toMessage(disk), found, nil
}

// Delete removes a single bubble. Deleting a bubble that no longer exists is
// a no-op: concurrent deletions from another client session are expected.
func (m *MessageRepository) Delete(threadID, messageID string) error {
	prefix := BubblePrefix(threadID)
	err := m.db.Update(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			if strings.HasSuffix(string(key), ":"+messageID) {
				return txn.Delete(key)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting message %s: %w: %w", messageID, apperrors.ErrStoreUnavailable, err)
	}
	return nil
}

// DeleteAllFor removes every bubble of a thread, one record at a time.
func (m *MessageRepository) DeleteAllFor(threadID string) error {
	prefix := BubblePrefix(threadID)
	err := m.db.Update(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()
		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting messages of thread %s: %w: %w", threadID, apperrors.ErrStoreUnavailable, err)
	}
	return nil
}

// ListFor returns a thread's bubbles ordered ascending by (date, id).
// The key layout already yields that order from the prefix scan; the decoded
// set is sorted again to keep the contract independent of the layout.
// A record that fails to decode is skipped and logged.
func (m *MessageRepository) ListFor(threadID string) ([]domain.Message, error) {
	var messages []domain.Message
	prefix := BubblePrefix(threadID)
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var disk DiskBubble
				if err := json.Unmarshal(val, &disk); err != nil {
					m.log.Warn("skipping malformed message record", "key", string(item.Key()), "error", err)
					return nil
				}
				messages = append(messages, toMessage(disk))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing messages of thread %s: %w: %w", threadID, apperrors.ErrStoreUnavailable, err)
	}
	domain.SortMessages(messages)
	return messages, nil
}

func toMessage(disk DiskBubble) domain.Message {
	return domain.Message{
		ID:     disk.ID,
		Sender: disk.Sender,
		Body:   disk.Body,
		Date:   disk.Date,
	}
}
