package models

import (
	"encoding/json"
	"strconv"
	"time"
)

// RequestStatus is the lifecycle state of a friend request
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// RequestID identifies a friend request. Older records used random
// floating point numbers, which decode into their decimal text.
type RequestID string

// UnmarshalJSON accepts both string and numeric ids
func (id *RequestID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = RequestID(s)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*id = RequestID(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}

// userRef is a user id that older records may hold as a JSON number
type userRef string

func (u *userRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*u = userRef(s)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*u = userRef(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

// FriendRequest is an entry of the friend request ledger
type FriendRequest struct {
	ID        RequestID     `json:"id"`
	From      string        `json:"from"`
	To        string        `json:"to"`
	Timestamp time.Time     `json:"timestamp"`
	Status    RequestStatus `json:"-"`
}

// UnmarshalJSON accepts numeric from and to ids as written by older clients
func (r *FriendRequest) UnmarshalJSON(data []byte) error {
	type plain FriendRequest
	var raw struct {
		plain
		From userRef `json:"from"`
		To   userRef `json:"to"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = FriendRequest(raw.plain)
	r.From = string(raw.From)
	r.To = string(raw.To)
	return nil
}

// FriendRequestInput is the body of request, accept and add-friend calls
type FriendRequestInput struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}
