package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// MessagePostedEvent is emitted after a send_message has been normalized.
// Consumers persist it; delivery to sockets never waits on it.
type MessagePostedEvent struct {
	ConnID    string    `json:"conn_id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Room      string    `json:"room"`
	Timestamp time.Time `json:"timestamp"`
}

// Event definitions for the chat domain.
var (
	MessagePostedV1 = helper.EventDefinition[MessagePostedEvent](
		"chat",
		"MessagePosted",
		"v1",
	)
)
