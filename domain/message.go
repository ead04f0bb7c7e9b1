// Package domain contains core concepts of the chat system.
// This file defines message bubbles and their ordering rules.
// Messages are immutable once created; only deletion is allowed.
package domain

import (
	"sort"
	"time"
)

// Message is one bubble in a thread's log. The ID is assigned by the store
// and doubles as the tie-break key for equal timestamps.
type Message struct {
	ID     string
	Sender string
	Body   string
	Date   time.Time
}

// EchoSender marks the synthetic reply bubble produced on self-chat threads.
const EchoSender = ""

// SortMessages orders messages ascending by (date, id). The id tie-break
// keeps the order deterministic when two messages share a timestamp.
func SortMessages(messages []Message) {
	sort.Slice(messages, func(i, j int) bool {
		if messages[i].Date.Equal(messages[j].Date) {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].Date.Before(messages[j].Date)
	})
}
