// Package sink provides ready-made snapshot consumers.
package sink

import (
	"context"
	"log/slog"

	"flashchat/contract"
)

// LogSink writes a one-line summary of every snapshot it receives. Useful
// as a stand-in presentation layer and for debugging live feeds.
type LogSink struct {
	Log *slog.Logger
}

func NewLogSink(log *slog.Logger) *LogSink {
	return &LogSink{Log: log}
}

func (s *LogSink) Consume(_ context.Context, snapshot contract.ThreadSnapshot) error {
	s.Log.Info("thread list updated", "threads", len(snapshot.Threads))
	for _, thread := range snapshot.Threads {
		s.Log.Debug("thread", "id", thread.ID, "recipients", thread.Recipients, "last_activity", thread.Date)
	}
	return nil
}
