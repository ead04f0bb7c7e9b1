//go:generate go run go.uber.org/mock/mockgen -source=directory.go -destination=../mocks/mock_directory_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	apperrors "flashchat/errors"

	"github.com/dgraph-io/badger/v4"
)

// UserPrefix scopes the registration directory collection.
const UserPrefix = "user:"

type IDirectoryRepository interface {
	IsRegistered(email string) (bool, error)
	EnsureRegistered(email string) error
	RemoveRegistration(email string) error
}

// DirectoryRepository maps user identities (emails) to registration status.
// An identity is registered iff a directory entry exists for it.
type DirectoryRepository struct {
	db *badger.DB
}

func NewDirectoryRepository(db *badger.DB) IDirectoryRepository {
	return &DirectoryRepository{db: db}
}

// DiskUser is the stored form of a directory entry.
type DiskUser struct {
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func userKey(email string) []byte {
	return []byte(UserPrefix + email)
}

func (d *DirectoryRepository) IsRegistered(email string) (bool, error) {
	registered := false
	err := d.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(userKey(email))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		registered = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("registration lookup for %s: %w: %w", email, apperrors.ErrStoreUnavailable, err)
	}
	return registered, nil
}

// EnsureRegistered creates the directory entry if absent. The check and the
// create run in one local transaction, but two separate processes can still
// both observe "absent" and both insert; the entry content is identical
// either way, so the duplicate window is accepted.
func (d *DirectoryRepository) EnsureRegistered(email string) error {
	err := d.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(userKey(email)); err == nil {
			return nil
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		data, err := json.Marshal(DiskUser{Email: email, CreatedAt: time.Now().UTC()})
		if err != nil {
			return err
		}
		return txn.Set(userKey(email), data)
	})
	if err != nil {
		return fmt.Errorf("registering %s: %w: %w", email, apperrors.ErrStoreUnavailable, err)
	}
	return nil
}

// RemoveRegistration deletes the directory entry only. Threads and messages
// authored by the identity are left untouched.
func (d *DirectoryRepository) RemoveRegistration(email string) error {
	err := d.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(userKey(email))
	})
	if err != nil {
		return fmt.Errorf("removing registration of %s: %w: %w", email, apperrors.ErrStoreUnavailable, err)
	}
	return nil
}
