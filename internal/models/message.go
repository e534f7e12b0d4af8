package models

import (
	"time"
)

// TimestampLayout is the display format of Message.Timestamp (hour:minute, 24h)
const TimestampLayout = "15:04"

// Message represents a chat message in a conversation log.
// Timestamp is display-only; ordering is the order of the log.
type Message struct {
	ID             string `json:"id"`
	Sender         string `json:"sender"`
	SenderName     string `json:"senderName"`
	Text           string `json:"text"`
	Timestamp      string `json:"timestamp"`
	ConversationID string `json:"conversationId"`
}

// MessageRequest is the structure for message creation requests
type MessageRequest struct {
	Text string `json:"text"`
}

// Conversation is a chat visible to the identity that created it.
// Members is stored but not used for access control, and LastMessage is only set at creation.
type Conversation struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CreatedBy   string    `json:"createdBy"`
	Members     []string  `json:"members"`
	CreatedAt   time.Time `json:"createdAt"`
	LastMessage string    `json:"lastMessage"`
}

// ConversationRequest is the structure for conversation creation requests
type ConversationRequest struct {
	Name string `json:"name"`
}
