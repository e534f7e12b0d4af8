// Package chat holds the conversation list of the signed-in identity and
// the working message log of the selected conversation.
//
// Neither store is safe for concurrent use; the application serialises
// access to them.
package chat

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ammar1510/chatflow/internal/database"
	"github.com/ammar1510/chatflow/internal/logger"
	"github.com/ammar1510/chatflow/internal/models"
)

var (
	ErrEmptyName            = errors.New("conversation name is required")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrEmptyMessage         = errors.New("message text is empty")
	ErrNoActiveConversation = errors.New("no conversation selected")
)

var log = logger.New("chat")

// Conversations is the conversation list visible to one identity
type Conversations struct {
	records *database.Records
	log     *MessageLog
	owner   string
	list    []models.Conversation
	active  *models.Conversation
	now     func() time.Time
}

func NewConversations(records *database.Records, messages *MessageLog) *Conversations {
	return &Conversations{
		records: records,
		log:     messages,
		list:    []models.Conversation{},
		now:     time.Now,
	}
}

// LoadForIdentity replaces the working list with the one stored for identityID
func (c *Conversations) LoadForIdentity(identityID string) []models.Conversation {
	c.owner = identityID
	c.active = nil
	c.list = c.records.Conversations(identityID)
	log.Debug("Loaded %d conversations for %s", len(c.list), identityID)
	return c.List()
}

// List returns a copy of the working list
func (c *Conversations) List() []models.Conversation {
	out := make([]models.Conversation, len(c.list))
	copy(out, c.list)
	return out
}

// Create adds a conversation owned by identity and stores the whole list
// under that identity's key. Members starts as the creator alone.
func (c *Conversations) Create(identity models.Identity, name string) (models.Conversation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Conversation{}, ErrEmptyName
	}

	if c.owner != identity.ID {
		c.LoadForIdentity(identity.ID)
	}

	conv := models.Conversation{
		ID:          uuid.NewString(),
		Name:        name,
		CreatedBy:   identity.ID,
		Members:     []string{identity.ID},
		CreatedAt:   c.now().UTC(),
		LastMessage: "",
	}

	next := append(c.List(), conv)
	if err := c.records.SaveConversations(identity.ID, next); err != nil {
		return models.Conversation{}, err
	}
	c.list = next

	log.Info("Created conversation %q (%s) for %s", conv.Name, conv.ID, identity.Username)
	return conv, nil
}

// Select makes conv the active conversation and loads its message log
func (c *Conversations) Select(conv models.Conversation) []models.Message {
	selected := conv
	c.active = &selected
	return c.log.LoadForConversation(conv.ID)
}

// SelectByID selects a conversation from the working list
func (c *Conversations) SelectByID(id string) (models.Conversation, []models.Message, error) {
	for _, conv := range c.list {
		if conv.ID == id {
			return conv, c.Select(conv), nil
		}
	}
	return models.Conversation{}, nil, ErrConversationNotFound
}

// Active returns the selected conversation
func (c *Conversations) Active() (models.Conversation, bool) {
	if c.active == nil {
		return models.Conversation{}, false
	}
	return *c.active, true
}

// Reset forgets the working list, the selection and the message log
func (c *Conversations) Reset() {
	c.owner = ""
	c.active = nil
	c.list = []models.Conversation{}
	c.log.Reset()
}
