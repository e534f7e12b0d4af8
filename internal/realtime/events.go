// Package realtime is the best-effort notification channel between a
// chat client and the relay. Emit never blocks and nothing is
// acknowledged, retried or replayed.
package realtime

import (
	"encoding/json"
	"strings"
)

// Event names on the wire
const (
	EventUserJoin       = "user:join"
	EventUserStatus     = "user:status"
	EventMessageSend    = "message:send"
	EventMessageReceive = "message:receive"
	EventError          = "error"
)

// Envelope is one event on the wire
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinPayload is sent with user:join right after connecting
type JoinPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// StatusPayload is carried by user:status
type StatusPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Status   string `json:"status"`
}

// ErrorPayload is carried by error
type ErrorPayload struct {
	Error string `json:"error"`
}

// Encode builds the wire form of an event
func Encode(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

// Decode splits a frame into envelopes. Several envelopes may share one
// frame, separated by newlines.
func Decode(frame []byte) ([]Envelope, error) {
	var out []Envelope
	for _, line := range strings.Split(string(frame), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var env Envelope
		if err := json.Unmarshal([]byte(line), &env); err != nil {
			return out, err
		}
		out = append(out, env)
	}
	return out, nil
}
