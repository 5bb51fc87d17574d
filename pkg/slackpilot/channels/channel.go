// Package channels defines the interfaces and types for SlackPilot
// communication channels. Each channel implements the Channel interface to
// receive and send messages in a unified way.
package channels

import (
	"context"
	"errors"
	"time"
)

// Channel defines the interface that every communication channel must implement.
type Channel interface {
	// Name returns the channel identifier (e.g. "slack").
	Name() string

	// Connect establishes the connection to the messaging platform.
	Connect(ctx context.Context) error

	// Disconnect gracefully closes the connection.
	Disconnect() error

	// Send posts a message and returns the platform message ID, so the
	// message can be edited later (placeholder flow).
	Send(ctx context.Context, to string, message *OutgoingMessage) (string, error)

	// Receive returns a Go channel that emits incoming messages.
	Receive() <-chan *IncomingMessage

	// IsConnected returns true if the channel is connected.
	IsConnected() bool

	// Health returns the channel health status.
	Health() HealthStatus
}

// Editor extends Channel with in-place message editing. Channels that can
// rewrite an already-posted message implement this interface; the bot uses
// it to replace the loading placeholder with the generated answer.
type Editor interface {
	Channel

	// Edit replaces the content of a previously sent message.
	Edit(ctx context.Context, chatID, messageID, content string) error
}

// IncomingMessage represents a message received from any channel.
type IncomingMessage struct {
	// ID is the unique message identifier in the source channel.
	ID string

	// Channel identifies the source channel (e.g. "slack").
	Channel string

	// From is the sender identifier on the platform.
	From string

	// ChatID is the conversation (channel or DM) identifier.
	ChatID string

	// ThreadID identifies the thread this message belongs to, if any.
	// For Slack this is the parent message timestamp.
	ThreadID string

	// IsDirect indicates a direct (one-to-one) conversation with the bot.
	IsDirect bool

	// Content is the text content, with any bot mention already stripped.
	Content string

	// Timestamp is when the message was sent.
	Timestamp time.Time

	// Metadata contains additional channel-specific data.
	Metadata map[string]any
}

// OutgoingMessage represents a message to be sent through a channel.
type OutgoingMessage struct {
	// Content is the text content of the message.
	Content string

	// ThreadID posts the message inside a thread when set.
	ThreadID string
}

// HealthStatus reports channel connection health.
type HealthStatus struct {
	Connected     bool
	LastMessageAt time.Time
	ErrorCount    int
}

// ErrChannelDisconnected is returned when an operation requires an active
// connection and the channel is not connected.
var ErrChannelDisconnected = errors.New("channel is not connected")
