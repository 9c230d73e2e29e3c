package chat

import (
	"encoding/json"
	"time"
)

// Event names on the live channel. The client submits sendMessage; the
// server pushes receiveMessage to the recipient's connections, messageSent
// back to the sender as the durability acknowledgment, and error to the
// originating connection.
const (
	EventSendMessage    = "sendMessage"
	EventReceiveMessage = "receiveMessage"
	EventMessageSent    = "messageSent"
	EventError          = "error"
)

// Envelope is the wire frame for inbound events.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Event is an outbound event before marshaling.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// SendRequest is the client's sendMessage payload.
type SendRequest struct {
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

// UserRef is the public profile triple used on the wire. For live
// connections it is the claims snapshot bound at handshake time.
type UserRef struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	UserName string `json:"userName"`
}

// MessagePayload is the persisted message as both parties see it.
type MessagePayload struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    UserRef   `json:"sender"`
	CreatedAt time.Time `json:"createdAt"`
}

// DeliverPayload is pushed to the recipient's connections.
type DeliverPayload struct {
	ThreadID string         `json:"threadId"`
	Message  MessagePayload `json:"message"`
	SenderID string         `json:"senderId"`
}

// AckPayload is echoed back to the sender after a successful append.
type AckPayload struct {
	ThreadID string         `json:"threadId"`
	Message  MessagePayload `json:"message"`
}

// ErrorPayload is sent to the originating connection on any failure after
// connect.
type ErrorPayload struct {
	Message string `json:"message"`
}
