package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ammar1510/chatflow/internal/database"
	"github.com/ammar1510/chatflow/internal/models"
	"github.com/ammar1510/chatflow/internal/realtime"
)

// MessageLog is the working log of the selected conversation
type MessageLog struct {
	records        *database.Records
	transport      realtime.Transport
	conversationID string
	messages       []models.Message
	now            func() time.Time
}

func NewMessageLog(records *database.Records) *MessageLog {
	return &MessageLog{
		records:   records,
		transport: realtime.Nop{},
		messages:  []models.Message{},
		now:       time.Now,
	}
}

// SetTransport sets where sent messages are announced. nil means nowhere.
func (l *MessageLog) SetTransport(t realtime.Transport) {
	if t == nil {
		t = realtime.Nop{}
	}
	l.transport = t
}

// LoadForConversation replaces the working log with the stored one
func (l *MessageLog) LoadForConversation(conversationID string) []models.Message {
	l.conversationID = conversationID
	l.messages = l.records.Messages(conversationID)
	return l.Messages()
}

// Messages returns a copy of the working log
func (l *MessageLog) Messages() []models.Message {
	out := make([]models.Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// ConversationID is the conversation the working log belongs to
func (l *MessageLog) ConversationID() string {
	return l.conversationID
}

// NewMessage builds a message from identity for the selected conversation
func (l *MessageLog) NewMessage(identity models.Identity, text string) models.Message {
	return models.Message{
		ID:             uuid.NewString(),
		Sender:         identity.ID,
		SenderName:     identity.Username,
		Text:           strings.TrimSpace(text),
		Timestamp:      l.now().Format(models.TimestampLayout),
		ConversationID: l.conversationID,
	}
}

// Append adds msg to the working log, stores the full log and emits
// message:send. ErrNoActiveConversation and ErrEmptyMessage leave
// everything untouched.
func (l *MessageLog) Append(msg models.Message) error {
	if l.conversationID == "" {
		return ErrNoActiveConversation
	}
	if strings.TrimSpace(msg.Text) == "" {
		return ErrEmptyMessage
	}
	msg.ConversationID = l.conversationID

	if err := l.store(msg); err != nil {
		return err
	}
	l.transport.Emit(realtime.EventMessageSend, msg)
	return nil
}

// Send builds and appends a message in one step
func (l *MessageLog) Send(identity models.Identity, text string) (models.Message, error) {
	msg := l.NewMessage(identity, text)
	if err := l.Append(msg); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// ApplyInbound appends a message received from the transport when it
// belongs to the selected conversation. Anything else is dropped.
func (l *MessageLog) ApplyInbound(msg models.Message) bool {
	if l.conversationID == "" || msg.ConversationID != l.conversationID {
		log.Debug("Dropping inbound message for conversation %q", msg.ConversationID)
		return false
	}
	if err := l.store(msg); err != nil {
		log.Warn("Failed to store inbound message %s: %v", msg.ID, err)
		return false
	}
	return true
}

// Reset empties the working log and clears the selection
func (l *MessageLog) Reset() {
	l.conversationID = ""
	l.messages = []models.Message{}
}

func (l *MessageLog) store(msg models.Message) error {
	next := append(l.Messages(), msg)
	if err := l.records.SaveMessages(l.conversationID, next); err != nil {
		return err
	}
	l.messages = next
	return nil
}
