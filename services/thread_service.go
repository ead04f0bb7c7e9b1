//go:generate go run go.uber.org/mock/mockgen -source=thread_service.go -destination=../mocks/mock_thread_service.go -package=mocks
package services

import (
	"log/slog"
	"time"

	"flashchat/domain"
	apperrors "flashchat/errors"
	"flashchat/repositories"
)

type IThreadService interface {
	FindOrCreate(recipients []string, sender string) (domain.Thread, bool, error)
	ListFor(identity string) ([]domain.Thread, error)
	Delete(threadID string) error
}

// ThreadService owns thread identity and deduplication: one thread per
// participant set, compared order-independently.
type ThreadService struct {
	log       *slog.Logger
	threads   repositories.IThreadRepository
	messages  repositories.IMessageRepository
	validator IRecipientValidator
	now       func() time.Time
}

func NewThreadService(log *slog.Logger, threads repositories.IThreadRepository,
	messages repositories.IMessageRepository, validator IRecipientValidator) *ThreadService {
	return &ThreadService{
		log:       log,
		threads:   threads,
		messages:  messages,
		validator: validator,
		now:       time.Now,
	}
}

// FindOrCreate resolves the thread for the given participant set, creating
// it when no existing thread matches. The boolean reports whether a new
// thread was created.
//
// Two clients racing on a never-before-seen participant set can still end up
// with duplicate threads; closing that window needs a store-level uniqueness
// constraint the store does not offer.
func (s *ThreadService) FindOrCreate(recipients []string, sender string) (domain.Thread, bool, error) {
	participants := domain.ParticipantSet(recipients, sender)

	outcome, err := s.validator.Validate(participants)
	if err != nil {
		return domain.Thread{}, false, err
	}
	if !outcome.AllRegistered() {
		return domain.Thread{}, false, &apperrors.UnregisteredRecipientsError{Offending: outcome.Offending}
	}

	existing, err := s.threads.ListAll()
	if err != nil {
		return domain.Thread{}, false, err
	}
	for _, thread := range existing {
		if thread.SameConversation(participants) {
			return thread, false, nil
		}
	}

	created, err := s.threads.Create(participants, sender, s.now())
	if err != nil {
		return domain.Thread{}, false, err
	}
	s.log.Info("thread created", "thread", created.ID, "participants", len(participants))
	return created, true, nil
}

// ListFor returns the identity's threads ordered by recency, most recent
// first.
func (s *ThreadService) ListFor(identity string) ([]domain.Thread, error) {
	threads, err := s.threads.ListFor(identity)
	if err != nil {
		return nil, err
	}
	domain.SortThreadsByActivity(threads)
	return threads, nil
}

// Delete removes a thread and all of its messages, children first, since the
// store has no cascading delete. A failure in either phase is reported as a
// partial delete; the remaining state is recoverable by retrying.
func (s *ThreadService) Delete(threadID string) error {
	if err := s.messages.DeleteAllFor(threadID); err != nil {
		return &apperrors.PartialDeleteError{ThreadID: threadID, ThreadDeleted: false, Err: err}
	}
	if err := s.threads.Delete(threadID); err != nil {
		return &apperrors.PartialDeleteError{ThreadID: threadID, ThreadDeleted: true, Err: err}
	}
	s.log.Info("thread deleted", "thread", threadID)
	return nil
}
