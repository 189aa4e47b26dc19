// Package notify delivers onboarding notifications for created users and persons.
//
// Notifications are best effort: a failed send is logged and counted, and never
// fails the operation that produced the records.
package notify

import (
	"context"
)

// Message kinds.
const (
	KindUser   = "user"
	KindPerson = "person"
)

// Attribute names carried by messages.
const (
	AttrName     = "Name"
	AttrAddress  = "Address"
	AttrUsername = "Username"
	AttrPassword = "Password"
	AttrPersonID = "PersonId"
	AttrZone     = "Zone"
	AttrRoom     = "Room"
)

// Message is one notification to one contact address.
type Message struct {
	Kind string `json:"kind"`
	// GroupID is shared by every message of a batch.
	GroupID string `json:"groupId"`
	// DedupID identifies the record the message is about.
	DedupID    string            `json:"dedupId"`
	Address    string            `json:"address"`
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Batch is the set of messages produced by one create or import.
type Batch struct {
	ID       string
	Messages []Message
}

// Notifier sends a single message.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// redacted returns the attributes safe for logging.
func (m Message) redacted() map[string]string {
	out := make(map[string]string, len(m.Attributes))
	for k, v := range m.Attributes {
		if k == AttrPassword {
			v = "***"
		}
		out[k] = v
	}

	return out
}
