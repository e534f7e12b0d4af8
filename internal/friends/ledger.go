// Package friends keeps the friend request ledger and the friend set of
// the signed-in identity.
//
// The ledger is shared by every identity using the same storage: any
// viewer sees, accepts and rejects every pending request.
package friends

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
	ErrRequestNotFound = errors.New("friend request not found")
	ErrAlreadyFriends  = errors.New("already in your friends list")
	ErrMissingUser     = errors.New("user id is required")
)

var log = logger.New("friends")

// Ledger is the list of pending friend requests
type Ledger struct {
	records  *database.Records
	requests []models.FriendRequest
	now      func() time.Time
}

// NewLedger loads the ledger from storage
func NewLedger(records *database.Records) *Ledger {
	return &Ledger{
		records:  records,
		requests: records.FriendRequests(),
		now:      time.Now,
	}
}

// Pending returns a copy of every request in the ledger
func (l *Ledger) Pending() []models.FriendRequest {
	out := make([]models.FriendRequest, len(l.requests))
	copy(out, l.requests)
	return out
}

// SendRequest records a pending request from one user to another
func (l *Ledger) SendRequest(from, to string) (models.FriendRequest, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" || to == "" {
		return models.FriendRequest{}, ErrMissingUser
	}

	req := models.FriendRequest{
		ID:        models.RequestID(uuid.NewString()),
		From:      from,
		To:        to,
		Timestamp: l.now().UTC(),
		Status:    models.RequestPending,
	}

	if err := l.replace(append(l.Pending(), req)); err != nil {
		return models.FriendRequest{}, err
	}
	log.Info("Friend request sent from %s to %s", from, to)
	return req, nil
}

// Accept removes every request sent by fromID and adds fromID to friends.
// It returns the removed requests marked accepted.
func (l *Ledger) Accept(fromID string, friends *FriendSet) ([]models.FriendRequest, error) {
	fromID = strings.TrimSpace(fromID)
	if fromID == "" {
		return nil, ErrMissingUser
	}

	var kept, accepted []models.FriendRequest
	for _, r := range l.requests {
		if r.From == fromID {
			r.Status = models.RequestAccepted
			accepted = append(accepted, r)
			continue
		}
		kept = append(kept, r)
	}

	if err := l.replace(kept); err != nil {
		return nil, err
	}
	if friends != nil {
		friends.Add(fromID)
	}
	log.Info("Accepted %d request(s) from %s", len(accepted), fromID)
	return accepted, nil
}

// Reject removes exactly the request with the given id
func (l *Ledger) Reject(id models.RequestID) (models.FriendRequest, error) {
	idx := -1
	for i, r := range l.requests {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.FriendRequest{}, ErrRequestNotFound
	}

	rejected := l.requests[idx]
	rejected.Status = models.RequestRejected

	next := append(l.Pending()[:idx], l.requests[idx+1:]...)
	if err := l.replace(next); err != nil {
		return models.FriendRequest{}, err
	}
	log.Info("Rejected friend request %s", id)
	return rejected, nil
}

// AddFriend adds userID to friends and sends it a request from the
// signed-in identity.
func (l *Ledger) AddFriend(self, userID string, friends *FriendSet) (models.FriendRequest, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.FriendRequest{}, ErrMissingUser
	}
	if friends.Contains(userID) {
		return models.FriendRequest{}, ErrAlreadyFriends
	}

	req, err := l.SendRequest(self, userID)
	if err != nil {
		return models.FriendRequest{}, err
	}
	friends.Add(userID)
	return req, nil
}

// Reload replaces the in-memory ledger with the stored one
func (l *Ledger) Reload() {
	l.requests = l.records.FriendRequests()
}

func (l *Ledger) replace(next []models.FriendRequest) error {
	if next == nil {
		next = []models.FriendRequest{}
	}
	if err := l.records.SaveFriendRequests(next); err != nil {
		return err
	}
	l.requests = next
	return nil
}
