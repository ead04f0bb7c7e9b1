package runtime

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"flashchat/contract"
	"flashchat/repositories"
	"flashchat/services"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

type threadCapture struct {
	mu        sync.Mutex
	snapshots []contract.ThreadSnapshot
}

func (c *threadCapture) Consume(_ context.Context, snapshot contract.ThreadSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots = append(c.snapshots, snapshot)
	return nil
}

func (c *threadCapture) latest() (contract.ThreadSnapshot, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.snapshots) == 0 {
		return contract.ThreadSnapshot{}, 0
	}
	return c.snapshots[len(c.snapshots)-1], len(c.snapshots)
}

type messageCapture struct {
	mu        sync.Mutex
	snapshots []contract.MessageSnapshot
}

func (c *messageCapture) Consume(_ context.Context, snapshot contract.MessageSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots = append(c.snapshots, snapshot)
	return nil
}

func (c *messageCapture) latest() (contract.MessageSnapshot, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.snapshots) == 0 {
		return contract.MessageSnapshot{}, 0
	}
	return c.snapshots[len(c.snapshots)-1], len(c.snapshots)
}

type engineFixture struct {
	db        *badger.DB
	directory repositories.IDirectoryRepository
	threads   *services.ThreadService
	messages  *services.MessageService
	engine    *Engine
}

func newEngineFixture(t *testing.T, registered ...string) engineFixture {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.Default()
	directory := repositories.NewDirectoryRepository(db)
	threadsRepo := repositories.NewThreadRepository(db, log)
	messagesRepo := repositories.NewMessageRepository(db, log)
	for _, email := range registered {
		require.NoError(t, directory.EnsureRegistered(email))
	}
	validator := services.NewRecipientValidator(directory)
	return engineFixture{
		db:        db,
		directory: directory,
		threads:   services.NewThreadService(log, threadsRepo, messagesRepo, validator),
		messages:  services.NewMessageService(log, threadsRepo, messagesRepo, 10*time.Millisecond),
		engine:    NewEngine(log, db, threadsRepo, messagesRepo, validator),
	}
}

func TestSubscribeThreads_Initial_Snapshot(t *testing.T) {
	req := require.New(t)
	f := newEngineFixture(t, "alice@x.com", "bob@x.com")
	thread, _, err := f.threads.FindOrCreate([]string{"bob@x.com"}, "alice@x.com")
	req.NoError(err)

	sink := &threadCapture{}
	sub := f.engine.SubscribeThreads(context.Background(), Session{User: "alice@x.com"}, sink)
	defer sub.Close()

	req.Eventually(func() bool {
		_, count := sink.latest()
		return count >= 1
	}, 5*time.Second, 10*time.Millisecond)

	snapshot, _ := sink.latest()
	req.Len(snapshot.Threads, 1)
	req.Equal(thread.ID, snapshot.Threads[0].ID)
}

func TestSubscribeThreads_Observes_New_Threads(t *testing.T) {
	req := require.New(t)
	f := newEngineFixture(t, "alice@x.com", "bob@x.com", "clara@x.com")

	sink := &threadCapture{}
	sub := f.engine.SubscribeThreads(context.Background(), Session{User: "alice@x.com"}, sink)
	defer sub.Close()

	req.Eventually(func() bool {
		_, count := sink.latest()
		return count >= 1
	}, 5*time.Second, 10*time.Millisecond)

	// Badger registers subscribers asynchronously; let the watch settle
	// before the first write so no change event is missed.
	time.Sleep(50 * time.Millisecond)

	// When threads are created while the subscription is live
	older, _, err := f.threads.FindOrCreate([]string{"bob@x.com"}, "alice@x.com")
	req.NoError(err)
	_, err = f.messages.Append(older.ID, "alice@x.com", "hi", time.Now())
	req.NoError(err)
	newer, _, err := f.threads.FindOrCreate([]string{"clara@x.com"}, "alice@x.com")
	req.NoError(err)
	_, err = f.messages.Append(newer.ID, "alice@x.com", "hello", time.Now().Add(time.Minute))
	req.NoError(err)

	// Then the feed converges on both, most recent activity first
	req.Eventually(func() bool {
		snapshot, _ := sink.latest()
		return len(snapshot.Threads) == 2 &&
			snapshot.Threads[0].ID == newer.ID &&
			snapshot.Threads[1].ID == older.ID
	}, 5*time.Second, 10*time.Millisecond)
}

func TestSubscribeMessages_Delivers_Appends_In_Order(t *testing.T) {
	req := require.New(t)
	f := newEngineFixture(t, "alice@x.com", "bob@x.com")
	thread, _, err := f.threads.FindOrCreate([]string{"bob@x.com"}, "alice@x.com")
	req.NoError(err)
	at := time.Now().UTC()

	sink := &messageCapture{}
	sub := f.engine.SubscribeMessages(context.Background(), Session{User: "alice@x.com"}, thread.ID, sink)
	defer sub.Close()
	time.Sleep(50 * time.Millisecond)

	_, err = f.messages.Append(thread.ID, "alice@x.com", "hi", at)
	req.NoError(err)
	_, err = f.messages.Append(thread.ID, "bob@x.com", "yo", at.Add(time.Second))
	req.NoError(err)

	req.Eventually(func() bool {
		snapshot, _ := sink.latest()
		return len(snapshot.Messages) == 2
	}, 5*time.Second, 10*time.Millisecond)

	snapshot, _ := sink.latest()
	req.Equal("hi", snapshot.Messages[0].Body)
	req.Equal("yo", snapshot.Messages[1].Body)
	req.Empty(snapshot.UnregisteredRecipients)
	req.False(snapshot.ThreadDeleted)
}

func TestSubscribeMessages_Flags_Unregistered_Recipient(t *testing.T) {
	req := require.New(t)
	f := newEngineFixture(t, "alice@x.com", "bob@x.com")
	thread, _, err := f.threads.FindOrCreate([]string{"bob@x.com"}, "alice@x.com")
	req.NoError(err)

	sink := &messageCapture{}
	sub := f.engine.SubscribeMessages(context.Background(), Session{User: "alice@x.com"}, thread.ID, sink)
	defer sub.Close()
	time.Sleep(50 * time.Millisecond)

	// When a participant drops out of the registration directory
	req.NoError(f.directory.RemoveRegistration("bob@x.com"))
	_, err = f.messages.Append(thread.ID, "alice@x.com", "anyone there?", time.Now())
	req.NoError(err)

	req.Eventually(func() bool {
		snapshot, _ := sink.latest()
		return len(snapshot.UnregisteredRecipients) == 1 &&
			snapshot.UnregisteredRecipients[0] == "bob@x.com"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestSubscribeMessages_Reports_Thread_Deleted_Elsewhere(t *testing.T) {
	req := require.New(t)
	f := newEngineFixture(t, "alice@x.com", "bob@x.com")
	thread, _, err := f.threads.FindOrCreate([]string{"bob@x.com"}, "alice@x.com")
	req.NoError(err)
	_, err = f.messages.Append(thread.ID, "alice@x.com", "hi", time.Now())
	req.NoError(err)

	sink := &messageCapture{}
	sub := f.engine.SubscribeMessages(context.Background(), Session{User: "alice@x.com"}, thread.ID, sink)
	defer sub.Close()

	req.Eventually(func() bool {
		snapshot, _ := sink.latest()
		return len(snapshot.Messages) == 1
	}, 5*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	// When the thread is deleted, as if from another client session
	req.NoError(f.threads.Delete(thread.ID))

	req.Eventually(func() bool {
		snapshot, _ := sink.latest()
		return snapshot.ThreadDeleted
	}, 5*time.Second, 10*time.Millisecond)
}

func TestSubscription_Close_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	f := newEngineFixture(t, "alice@x.com", "bob@x.com")

	sink := &threadCapture{}
	sub := f.engine.SubscribeThreads(context.Background(), Session{User: "alice@x.com"}, sink)

	sub.Close()
	sub.Close()

	select {
	case <-sub.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("subscription goroutine did not stop after Close")
	}
	req.False(sub.Active())
}

func TestSubscription_No_Emissions_After_Close(t *testing.T) {
	req := require.New(t)
	f := newEngineFixture(t, "alice@x.com", "bob@x.com")

	sink := &threadCapture{}
	sub := f.engine.SubscribeThreads(context.Background(), Session{User: "alice@x.com"}, sink)
	req.Eventually(func() bool {
		_, count := sink.latest()
		return count >= 1
	}, 5*time.Second, 10*time.Millisecond)

	sub.Close()
	<-sub.Done()
	_, countAtClose := sink.latest()

	// Writes after teardown must not reach the sink
	_, _, err := f.threads.FindOrCreate([]string{"bob@x.com"}, "alice@x.com")
	req.NoError(err)
	time.Sleep(100 * time.Millisecond)

	_, countAfter := sink.latest()
	req.Equal(countAtClose, countAfter)
}

func TestSubscription_Closed_Mid_Reload_Drops_The_Snapshot(t *testing.T) {
	req := require.New(t)
	f := newEngineFixture(t, "alice@x.com", "bob@x.com")
	_, _, err := f.threads.FindOrCreate([]string{"bob@x.com"}, "alice@x.com")
	req.NoError(err)

	// Given a subscription that closes while a reload is already in flight
	sink := &threadCapture{}
	sub := newSubscription(func() {})
	sub.Close()

	f.engine.emitThreads(context.Background(), Session{User: "alice@x.com"}, sub, sink)

	// Then the stale snapshot never reaches the sink
	_, count := sink.latest()
	req.Zero(count)
}
