// Package runtime drives live synchronization between the document store
// and the presentation layer. It translates raw change notifications into
// ordered, typed, full-replacement snapshots and is the sole path by which
// updates reach consumers. It contains no business rules of its own.
package runtime

import (
	"context"
	"errors"
	"log/slog"

	"flashchat/contract"
	"flashchat/domain"
	apperrors "flashchat/errors"
	"flashchat/repositories"
	"flashchat/services"
	"flashchat/store"

	"github.com/dgraph-io/badger/v4"
)

// Session carries the identity a subscription runs under. It is passed
// explicitly so the engine holds no ambient per-user state.
type Session struct {
	User string
}

type Engine struct {
	log       *slog.Logger
	db        *badger.DB
	threads   repositories.IThreadRepository
	messages  repositories.IMessageRepository
	validator services.IRecipientValidator
}

func NewEngine(log *slog.Logger, db *badger.DB, threads repositories.IThreadRepository,
	messages repositories.IMessageRepository, validator services.IRecipientValidator) *Engine {
	return &Engine{
		log:       log,
		db:        db,
		threads:   threads,
		messages:  messages,
		validator: validator,
	}
}

// SubscribeThreads delivers the session user's thread list, most recent
// first: one initial snapshot right away, then one full reload per observed
// change to the threads collection. All emissions for the subscription run
// on a single goroutine, so the consumer never sees interleaved updates.
func (e *Engine) SubscribeThreads(ctx context.Context, session Session, sink contract.ThreadSink) *Subscription {
	subCtx, cancel := context.WithCancel(ctx)
	sub := newSubscription(cancel)
	ticks := store.Watch(subCtx, e.db, e.log, []byte(repositories.ThreadPrefix))

	go func() {
		defer close(sub.done)
		e.emitThreads(subCtx, session, sub, sink)
		for range ticks {
			e.emitThreads(subCtx, session, sub, sink)
		}
	}()
	return sub
}

func (e *Engine) emitThreads(ctx context.Context, session Session, sub *Subscription, sink contract.ThreadSink) {
	if !sub.Active() {
		return
	}
	threads, err := e.threads.ListFor(session.User)
	if err != nil {
		e.log.Warn("thread reload failed", "user", session.User, "error", err)
		return
	}
	domain.SortThreadsByActivity(threads)
	if !sub.Active() {
		return
	}
	if err := sink.Consume(ctx, contract.ThreadSnapshot{Threads: threads}); err != nil {
		e.log.Warn("thread sink rejected snapshot", "user", session.User, "error", err)
	}
}

// SubscribeMessages delivers one thread's ordered message log. The feed
// watches the thread's bubbles and the threads collection itself, so a
// thread deleted from another session surfaces as a ThreadDeleted snapshot
// instead of silence. Each snapshot also re-checks the registration status
// of the thread's recipients; a directory failure during that check degrades
// to an empty offending list rather than blocking message delivery.
func (e *Engine) SubscribeMessages(ctx context.Context, session Session, threadID string, sink contract.MessageSink) *Subscription {
	subCtx, cancel := context.WithCancel(ctx)
	sub := newSubscription(cancel)
	bubbleTicks := store.Watch(subCtx, e.db, e.log, repositories.BubblePrefix(threadID))
	threadTicks := store.Watch(subCtx, e.db, e.log, []byte(repositories.ThreadPrefix))

	go func() {
		defer close(sub.done)
		e.emitMessages(subCtx, sub, threadID, sink)
		for bubbleTicks != nil || threadTicks != nil {
			select {
			case _, ok := <-bubbleTicks:
				if !ok {
					bubbleTicks = nil
					continue
				}
			case _, ok := <-threadTicks:
				if !ok {
					threadTicks = nil
					continue
				}
			}
			e.emitMessages(subCtx, sub, threadID, sink)
		}
	}()
	return sub
}

func (e *Engine) emitMessages(ctx context.Context, sub *Subscription, threadID string, sink contract.MessageSink) {
	if !sub.Active() {
		return
	}
	thread, err := e.threads.Get(threadID)
	if errors.Is(err, apperrors.ErrThreadNotFound) {
		e.deliver(ctx, sub, sink, contract.MessageSnapshot{ThreadID: threadID, ThreadDeleted: true})
		return
	}
	if err != nil {
		e.log.Warn("thread reload failed", "thread", threadID, "error", err)
		return
	}

	messages, err := e.messages.ListFor(threadID)
	if err != nil {
		e.log.Warn("message reload failed", "thread", threadID, "error", err)
		return
	}

	var offending []string
	outcome, err := e.validator.Validate(thread.Recipients)
	if err != nil {
		e.log.Warn("recipient status check failed", "thread", threadID, "error", err)
	} else {
		offending = outcome.Offending
	}

	e.deliver(ctx, sub, sink, contract.MessageSnapshot{
		ThreadID:               threadID,
		Messages:               messages,
		UnregisteredRecipients: offending,
	})
}

func (e *Engine) deliver(ctx context.Context, sub *Subscription, sink contract.MessageSink, snapshot contract.MessageSnapshot) {
	if !sub.Active() {
		return
	}
	if err := sink.Consume(ctx, snapshot); err != nil {
		e.log.Warn("message sink rejected snapshot", "thread", snapshot.ThreadID, "error", err)
	}
}
