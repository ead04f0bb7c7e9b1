//go:generate go run go.uber.org/mock/mockgen -source=thread.go -destination=../mocks/mock_thread_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"flashchat/domain"
	apperrors "flashchat/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ThreadPrefix scopes the threads collection.
const ThreadPrefix = "thread:"

type IThreadRepository interface {
	Create(recipients []string, sender string, date time.Time) (domain.Thread, error)
	Get(id string) (domain.Thread, error)
	ListAll() ([]domain.Thread, error)
	ListFor(identity string) ([]domain.Thread, error)
	Touch(id string, date time.Time) error
	Delete(id string) error
}

// ThreadRepository owns thread metadata records. Message records live under
// their own keys (see MessageRepository); a thread document only carries the
// participant set, the creating sender and the last-activity timestamp.
type ThreadRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewThreadRepository(db *badger.DB, log *slog.Logger) IThreadRepository {
	return &ThreadRepository{db: db, log: log}
}

// DiskThread is the stored form of a thread document.
type DiskThread struct {
	ID         string    `json:"id"`
	Recipients []string  `json:"recipients"`
	Sender     string    `json:"sender"`
	Date       time.Time `json:"date"`
}

func threadKey(id string) []byte {
	return []byte(ThreadPrefix + id)
}

func (t *ThreadRepository) Create(recipients []string, sender string, date time.Time) (domain.Thread, error) {
	disk := DiskThread{
		ID:         uuid.NewString(),
		Recipients: recipients,
		Sender:     sender,
		Date:       date.UTC(),
	}
	data, err := json.Marshal(disk)
	if err != nil {
		return domain.Thread{}, fmt.Errorf("marshal failed: %w", err)
	}
	err = t.db.Update(func(txn *badger.Txn) error {
		return txn.Set(threadKey(disk.ID), data)
	})
	if err != nil {
		return domain.Thread{}, fmt.Errorf("creating thread: %w: %w", apperrors.ErrStoreUnavailable, err)
	}
	return toThread(disk), nil
}

func (t *ThreadRepository) Get(id string) (domain.Thread, error) {
	var disk DiskThread
	err := t.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(threadKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &disk)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Thread{}, fmt.Errorf("thread %s: %w", id, apperrors.ErrThreadNotFound)
	}
	if err != nil {
		return domain.Thread{}, fmt.Errorf("loading thread %s: %w: %w", id, apperrors.ErrStoreUnavailable, err)
	}
	return toThread(disk), nil
}

// ListAll returns every thread document. A record that fails to decode is
// skipped and logged; a single malformed document must not block the rest.
func (t *ThreadRepository) ListAll() ([]domain.Thread, error) {
	var threads []domain.Thread
	prefix := []byte(ThreadPrefix)
	err := t.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var disk DiskThread
				if err := json.Unmarshal(val, &disk); err != nil {
					t.log.Warn("skipping malformed thread record", "key", string(item.Key()), "error", err)
					return nil
				}
				threads = append(threads, toThread(disk))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing threads: %w: %w", apperrors.ErrStoreUnavailable, err)
	}
	return threads, nil
}

// ListFor returns threads whose participant set contains identity.
func (t *ThreadRepository) ListFor(identity string) ([]domain.Thread, error) {
	threads, err := t.ListAll()
	if err != nil {
		return nil, err
	}
	return lo.Filter(threads, func(thread domain.Thread, _ int) bool {
		return thread.Has(identity)
	}), nil
}

// Touch bumps the last-activity timestamp of a thread.
func (t *ThreadRepository) Touch(id string, date time.Time) error {
	err := t.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(threadKey(id))
		if err != nil {
			return err
		}
		var disk DiskThread
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &disk)
		}); err != nil {
			return err
		}
		disk.Date = date.UTC()
		data, err := json.Marshal(disk)
		if err != nil {
			return err
		}
		return txn.Set(threadKey(id), data)
	})
	if err == badger.ErrKeyNotFound {
		return fmt.Errorf("thread %s: %w", id, apperrors.ErrThreadNotFound)
	}
	if err != nil {
		return fmt.Errorf("touching thread %s: %w: %w", id, apperrors.ErrStoreUnavailable, err)
	}
	return nil
}

// Delete removes the thread document. Deleting an absent thread is a no-op.
func (t *ThreadRepository) Delete(id string) error {
	err := t.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(threadKey(id))
	})
	if err != nil {
		return fmt.Errorf("deleting thread %s: %w: %w", id, apperrors.ErrStoreUnavailable, err)
	}
	return nil
}

func toThread(disk DiskThread) domain.Thread {
	return domain.Thread{
		ID:         disk.ID,
		Recipients: disk.Recipients,
		Sender:     disk.Sender,
		Date:       disk.Date,
	}
}
