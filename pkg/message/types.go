// Package message defines the conversation record shared by the store, the
// reply pipeline, and the session loop.
package message

import (
	"fmt"
	"time"
)

// Origin tells whether a message was typed by a person or produced by the
// reply pipeline.
type Origin string

const (
	// OriginHuman marks inbound messages from a user identity.
	OriginHuman Origin = "human"
	// OriginGenerated marks replies produced by the pipeline.
	OriginGenerated Origin = "generated"
)

// Valid reports whether o is one of the known origins.
func (o Origin) Valid() bool {
	return o == OriginHuman || o == OriginGenerated
}

// String implements fmt.Stringer.
func (o Origin) String() string {
	return string(o)
}

// Message is a single entry in a user's conversation history.
// Values are immutable once created; the store hands out copies.
type Message struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	DisplayName string    `json:"display_name"`
	Content     string    `json:"content"`
	Origin      Origin    `json:"origin"`
}

// IsGenerated reports whether the message came from the reply pipeline.
func (m Message) IsGenerated() bool {
	return m.Origin == OriginGenerated
}

// String renders the message for debug output.
func (m Message) String() string {
	return fmt.Sprintf("[%s] %s (%s): %s", m.Timestamp.Format(time.TimeOnly), m.DisplayName, m.Origin, m.Content)
}
