package domain

import "time"

// Content types the daemon attaches to conversation interactions.
const (
	TypeText     = "text/plain"
	TypeTransfer = "application/data-transfer+json"
	TypeMerge    = "merge"
	TypeMember   = "member"
)

// Message is a single conversation interaction as delivered by the daemon.
// The daemon sends a flat string map; this is the closed field set the
// router consumes. Body is rewritten in place when a leading command token
// is stripped, so command handlers see only the remainder.
type Message struct {
	Type        string
	Author      string
	Body        string
	ID          string
	FileID      string
	DisplayName string
}

// FromFields builds a Message from the daemon's wire map.
func FromFields(fields map[string]string) *Message {
	return &Message{
		Type:        fields["type"],
		Author:      fields["author"],
		Body:        fields["body"],
		ID:          fields["id"],
		FileID:      fields["fileId"],
		DisplayName: fields["displayName"],
	}
}

// Event is one inbound daemon signal: a message that arrived in a
// conversation on one of the local accounts.
type Event struct {
	Account      string
	Conversation string
	Message      *Message
	Received     time.Time
}
