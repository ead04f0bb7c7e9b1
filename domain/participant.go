// Package domain contains core concepts of the chat system.
// This file defines participant-set rules: canonicalization of a recipient
// list into a thread's participant set, and order-independent equality.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"slices"
	"strings"

	"github.com/samber/lo"
)

// ParseRecipients splits a space-separated recipient string into a
// deduplicated list, dropping empty entries.
func ParseRecipients(input string) []string {
	fields := strings.Fields(input)
	return lo.Uniq(fields)
}

// ParticipantSet builds the canonical participant set for a new thread:
// the deduplicated recipients plus the sender. The one case that keeps a
// duplicate is the message-to-self thread, represented as the sender twice.
func ParticipantSet(recipients []string, sender string) []string {
	participants := lo.Uniq(recipients)
	if len(participants) == 1 && participants[0] == sender {
		return []string{sender, sender}
	}
	if !lo.Contains(participants, sender) {
		participants = append(participants, sender)
	}
	return participants
}

// SameParticipants compares two participant sets order-independently,
// duplicates included. [a, b] and [b, a] are the same conversation;
// [a, a] and [a] are not.
func SameParticipants(a, b []string) bool {
	sortedA := slices.Clone(a)
	sortedB := slices.Clone(b)
	slices.Sort(sortedA)
	slices.Sort(sortedB)
	return slices.Equal(sortedA, sortedB)
}
