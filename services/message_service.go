//go:generate go run go.uber.org/mock/mockgen -source=message_service.go -destination=../mocks/mock_message_service.go -package=mocks
package services

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"flashchat/domain"
	apperrors "flashchat/errors"
	"flashchat/repositories"
)

// DefaultEchoDelay is the product-defined pause before a self-chat thread
// receives its synthetic reply.
const DefaultEchoDelay = 2 * time.Second

type IMessageService interface {
	Append(threadID, sender, body string, at time.Time) (domain.Message, error)
	Delete(threadID, messageID, requester string) error
}

// MessageService appends to and deletes from per-thread message logs.
// Every successful append bumps the parent thread's last-activity timestamp.
type MessageService struct {
	log       *slog.Logger
	threads   repositories.IThreadRepository
	messages  repositories.IMessageRepository
	echoDelay time.Duration
	now       func() time.Time
}

func NewMessageService(log *slog.Logger, threads repositories.IThreadRepository,
	messages repositories.IMessageRepository, echoDelay time.Duration) *MessageService {
	if echoDelay <= 0 {
		echoDelay = DefaultEchoDelay
	}
	return &MessageService{
		log:       log,
		threads:   threads,
		messages:  messages,
		echoDelay: echoDelay,
		now:       time.Now,
	}
}

// Append stores a new message in the thread's log. The thread must exist,
// the body must be non-empty and the sender must be a current participant.
//
// On a self-chat thread, a successful append schedules one synthetic reply
// after the configured delay: same body, empty sender. That echo is a
// product behavior carried over as-is, not a bug.
func (s *MessageService) Append(threadID, sender, body string, at time.Time) (domain.Message, error) {
	thread, err := s.threads.Get(threadID)
	if err != nil {
		return domain.Message{}, err
	}
	if strings.TrimSpace(body) == "" {
		return domain.Message{}, fmt.Errorf("empty body: %w", apperrors.ErrValidationFailed)
	}
	if !thread.Has(sender) {
		return domain.Message{}, fmt.Errorf("sender %s is not a participant of thread %s: %w",
			sender, threadID, apperrors.ErrValidationFailed)
	}

	message, err := s.messages.Append(threadID, sender, body, at)
	if err != nil {
		return domain.Message{}, err
	}
	if err := s.threads.Touch(threadID, at); err != nil {
		return domain.Message{}, err
	}

	if thread.IsSelfChat() {
		s.scheduleEcho(threadID, body)
	}
	return message, nil
}

func (s *MessageService) scheduleEcho(threadID, body string) {
	time.AfterFunc(s.echoDelay, func() {
		at := s.now()
		if _, err := s.messages.Append(threadID, domain.EchoSender, body, at); err != nil {
			s.log.Warn("self-chat echo failed", "thread", threadID, "error", err)
			return
		}
		if err := s.threads.Touch(threadID, at); err != nil {
			s.log.Warn("self-chat echo touch failed", "thread", threadID, "error", err)
		}
	})
}

// Delete removes a single message. Only its sender may delete it; deleting a
// message that no longer exists is a no-op, because concurrent deletions
// from another client session are expected.
func (s *MessageService) Delete(threadID, messageID, requester string) error {
	message, found, err := s.messages.Find(threadID, messageID)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	if message.Sender != requester {
		return fmt.Errorf("only the sender may delete a message: %w", apperrors.ErrValidationFailed)
	}
	return s.messages.Delete(threadID, messageID)
}
