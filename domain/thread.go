package domain

import (
	"sort"
	"time"

	"github.com/samber/lo"
)

// Thread is a conversation identified by its exact participant set.
// Date is the last-activity timestamp, bumped on every appended message.
type Thread struct {
	ID         string
	Recipients []string
	Sender     string
	Date       time.Time
	Bubbles    []Message
}

// Has reports whether identity is a participant of the thread.
func (t Thread) Has(identity string) bool {
	return lo.Contains(t.Recipients, identity)
}

// IsSelfChat reports whether the thread is the canonical message-to-self
// form: the sender duplicated exactly twice.
func (t Thread) IsSelfChat() bool {
	return len(t.Recipients) == 2 && t.Recipients[0] == t.Recipients[1]
}

// SortThreadsByActivity orders threads descending by last activity.
func SortThreadsByActivity(threads []Thread) {
	sort.Slice(threads, func(i, j int) bool {
		return threads[i].Date.After(threads[j].Date)
	})
}

// SameConversation reports whether the thread covers the given participant
// set, compared order-independently.
func (t Thread) SameConversation(participants []string) bool {
	return SameParticipants(t.Recipients, participants)
}
