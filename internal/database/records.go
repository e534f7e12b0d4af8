package database

import (
	"encoding/json"
	"errors"

	"github.com/ammar1510/chatflow/internal/logger"
	"github.com/ammar1510/chatflow/internal/metrics"
	"github.com/ammar1510/chatflow/internal/models"
)

// Record keys. The names match data written by earlier clients and must not change.
const (
	UsersKey            = "users"
	SessionKey          = "userSession"
	FriendRequestsKey   = "friendRequests"
	ConversationsPrefix = "conversations_"
	MessagesPrefix      = "messages_"
)

var log = logger.New("database")

// ConversationsKey is the partition key of an identity's conversation list
func ConversationsKey(identityID string) string {
	return ConversationsPrefix + identityID
}

// MessagesKey is the partition key of a conversation's message log
func MessagesKey(conversationID string) string {
	return MessagesPrefix + conversationID
}

// Records reads and writes the typed records kept in a KV.
// A missing or undecodable record reads as an empty value; every
// write replaces the whole record.
type Records struct {
	kv KV
}

func NewRecords(kv KV) *Records {
	return &Records{kv: kv}
}

// load decodes key into dst and reports whether a usable value was found
func (r *Records) load(key, kind string, dst interface{}) bool {
	metrics.StoreReads.WithLabelValues(kind).Inc()

	raw, err := r.kv.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false
	}
	if err != nil {
		log.Warn("Failed to read %s, using empty value: %v", key, err)
		return false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		metrics.StoreCorrupt.WithLabelValues(kind).Inc()
		log.Warn("Corrupt record %s, using empty value: %v", key, err)
		return false
	}
	return true
}

func (r *Records) save(key, kind string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	metrics.StoreWrites.WithLabelValues(kind, "set").Inc()
	if err := r.kv.Set(key, raw); err != nil {
		log.Error("Failed to write %s: %v", key, err)
		return err
	}
	log.Debug("Wrote %s (%d bytes)", key, len(raw))
	return nil
}

func (r *Records) remove(key, kind string) error {
	metrics.StoreWrites.WithLabelValues(kind, "remove").Inc()
	if err := r.kv.Remove(key); err != nil {
		log.Error("Failed to remove %s: %v", key, err)
		return err
	}
	return nil
}

// Users returns the user registry
func (r *Records) Users() []models.UserRecord {
	var users []models.UserRecord
	if !r.load(UsersKey, "users", &users) || users == nil {
		return []models.UserRecord{}
	}
	return users
}

func (r *Records) SaveUsers(users []models.UserRecord) error {
	return r.save(UsersKey, "users", users)
}

// Session returns the persisted identity, if any
func (r *Records) Session() (*models.Identity, bool) {
	var id *models.Identity
	if !r.load(SessionKey, "session", &id) || id == nil || id.ID == "" {
		return nil, false
	}
	return id, true
}

func (r *Records) SaveSession(id models.Identity) error {
	return r.save(SessionKey, "session", id)
}

func (r *Records) ClearSession() error {
	return r.remove(SessionKey, "session")
}

// FriendRequests returns the whole friend request ledger
func (r *Records) FriendRequests() []models.FriendRequest {
	var requests []models.FriendRequest
	if !r.load(FriendRequestsKey, "friend_requests", &requests) || requests == nil {
		return []models.FriendRequest{}
	}
	for i := range requests {
		requests[i].Status = models.RequestPending
	}
	return requests
}

func (r *Records) SaveFriendRequests(requests []models.FriendRequest) error {
	return r.save(FriendRequestsKey, "friend_requests", requests)
}

// Conversations returns the conversation list stored for an identity
func (r *Records) Conversations(identityID string) []models.Conversation {
	var convs []models.Conversation
	if !r.load(ConversationsKey(identityID), "conversations", &convs) || convs == nil {
		return []models.Conversation{}
	}
	return convs
}

func (r *Records) SaveConversations(identityID string, convs []models.Conversation) error {
	return r.save(ConversationsKey(identityID), "conversations", convs)
}

// Messages returns the message log stored for a conversation
func (r *Records) Messages(conversationID string) []models.Message {
	var msgs []models.Message
	if !r.load(MessagesKey(conversationID), "messages", &msgs) || msgs == nil {
		return []models.Message{}
	}
	return msgs
}

func (r *Records) SaveMessages(conversationID string, msgs []models.Message) error {
	return r.save(MessagesKey(conversationID), "messages", msgs)
}
