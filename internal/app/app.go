// Package app ties the stores together for one signed-in identity and
// serialises every operation, including inbound realtime events, behind a
// single lock.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/ammar1510/chatflow/internal/auth"
	"github.com/ammar1510/chatflow/internal/chat"
	"github.com/ammar1510/chatflow/internal/database"
	"github.com/ammar1510/chatflow/internal/directory"
	"github.com/ammar1510/chatflow/internal/friends"
	"github.com/ammar1510/chatflow/internal/logger"
	"github.com/ammar1510/chatflow/internal/models"
	"github.com/ammar1510/chatflow/internal/realtime"
)

var ErrNotSignedIn = errors.New("not signed in")

var log = logger.New("app")

// Dialer opens a realtime transport for id. Inbound events go to handler.
type Dialer func(ctx context.Context, id models.Identity, handler realtime.Handler) (realtime.Transport, error)

// RelayDialer dials the relay at url with a freshly signed handshake token
func RelayDialer(url string) Dialer {
	return func(ctx context.Context, id models.Identity, handler realtime.Handler) (realtime.Transport, error) {
		token, _, err := auth.GenerateToken(&id)
		if err != nil {
			return nil, err
		}
		return realtime.Dial(ctx, url, token, id, handler)
	}
}

// Options configures New. Directory and Dial may be nil.
type Options struct {
	Records     *database.Records
	Directory   *directory.Client
	Dial        Dialer
	DialTimeout time.Duration
}

// App is the chat client state for whoever is signed in
type App struct {
	mu sync.Mutex

	records       *database.Records
	sessions      *auth.SessionManager
	conversations *chat.Conversations
	messages      *chat.MessageLog
	ledger        *friends.Ledger
	friends       *friends.FriendSet

	directory   *directory.Client
	dial        Dialer
	dialTimeout time.Duration
	transport   realtime.Transport
	generation  int

	background sync.WaitGroup
}

func New(opts Options) *App {
	messages := chat.NewMessageLog(opts.Records)
	timeout := opts.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &App{
		records:       opts.Records,
		sessions:      auth.NewSessionManager(opts.Records),
		conversations: chat.NewConversations(opts.Records, messages),
		messages:      messages,
		ledger:        friends.NewLedger(opts.Records),
		friends:       friends.NewFriendSet(),
		directory:     opts.Directory,
		dial:          opts.Dial,
		dialTimeout:   timeout,
		transport:     realtime.Nop{},
	}
}

// Init restores the persisted session, if any, and connects for it
func (a *App) Init(ctx context.Context) (*models.Identity, bool) {
	a.mu.Lock()
	id, ok := a.sessions.Restore()
	if !ok {
		a.mu.Unlock()
		log.Info("No saved session")
		return nil, false
	}
	a.switchTo(*id)
	gen := a.generation
	a.mu.Unlock()

	a.connect(ctx, *id, gen)
	return id, true
}

// Current returns the signed-in identity
func (a *App) Current() (models.Identity, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sessions.Current()
}

func (a *App) Login(ctx context.Context, username, password string) (*models.Identity, error) {
	a.mu.Lock()
	id, err := a.sessions.Login(username, password)
	if err != nil {
		a.mu.Unlock()
		log.Warn("Login failed for %q: %v", username, err)
		return nil, err
	}
	a.switchTo(*id)
	gen := a.generation
	a.mu.Unlock()

	log.Info("Logged in as %s", id.Username)
	a.connect(ctx, *id, gen)
	return id, nil
}

func (a *App) Register(ctx context.Context, reg models.UserRegistration) (*models.Identity, error) {
	a.mu.Lock()
	id, err := a.sessions.Register(reg.Username, reg.Email, reg.Password, reg.ConfirmPassword)
	if err != nil {
		a.mu.Unlock()
		log.Warn("Registration failed for %q: %v", reg.Username, err)
		return nil, err
	}
	record, found := a.userRecord(id.ID)
	a.switchTo(*id)
	gen := a.generation
	a.mu.Unlock()

	if found && a.directory != nil {
		a.background.Add(1)
		go func() {
			defer a.background.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if saved := a.directory.SaveUser(ctx, record); saved != nil {
				log.Debug("Mirrored %s to the directory as %s", record.Username, saved.ID)
			}
		}()
	}

	a.connect(ctx, *id, gen)
	return id, nil
}

// Logout clears all working state, the session record and the transport
func (a *App) Logout() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.reset()
	transport := a.transport
	a.transport = realtime.Nop{}
	a.messages.SetTransport(nil)

	err := a.sessions.Logout(transport)
	log.Info("Logged out")
	return err
}

// Dispose disconnects the transport and waits for background work
func (a *App) Dispose() {
	a.mu.Lock()
	a.generation++
	a.transport.Disconnect()
	a.transport = realtime.Nop{}
	a.messages.SetTransport(nil)
	a.mu.Unlock()

	a.background.Wait()
}

// Conversations lists the conversations stored for the signed-in identity
func (a *App) Conversations() ([]models.Conversation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.sessions.Current(); !ok {
		return nil, ErrNotSignedIn
	}
	return a.conversations.List(), nil
}

// CreateConversation creates a conversation and selects it
func (a *App) CreateConversation(name string) (models.Conversation, []models.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id, ok := a.sessions.Current()
	if !ok {
		return models.Conversation{}, nil, ErrNotSignedIn
	}

	conv, err := a.conversations.Create(id, name)
	if err != nil {
		return models.Conversation{}, nil, err
	}
	return conv, a.conversations.Select(conv), nil
}

func (a *App) SelectConversation(conversationID string) (models.Conversation, []models.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.sessions.Current(); !ok {
		return models.Conversation{}, nil, ErrNotSignedIn
	}
	return a.conversations.SelectByID(conversationID)
}

// Messages returns the selected conversation and its working log
func (a *App) Messages() (models.Conversation, []models.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.sessions.Current(); !ok {
		return models.Conversation{}, nil, ErrNotSignedIn
	}
	conv, ok := a.conversations.Active()
	if !ok {
		return models.Conversation{}, []models.Message{}, chat.ErrNoActiveConversation
	}
	return conv, a.messages.Messages(), nil
}

// SendMessage appends text from the signed-in identity to the selected
// conversation and announces it on the transport.
func (a *App) SendMessage(text string) (models.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id, ok := a.sessions.Current()
	if !ok {
		return models.Message{}, ErrNotSignedIn
	}
	return a.messages.Send(id, text)
}

// SearchUsers asks the directory for users whose name contains term.
// The signed-in identity is never part of the result.
func (a *App) SearchUsers(ctx context.Context, term string) ([]models.DirectoryUser, error) {
	id, ok := a.Current()
	if !ok {
		return nil, ErrNotSignedIn
	}
	if a.directory == nil {
		return []models.DirectoryUser{}, nil
	}
	return directory.Search(a.directory.Users(ctx), term, id.ID), nil
}

func (a *App) Friends() ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.sessions.Current(); !ok {
		return nil, ErrNotSignedIn
	}
	return a.friends.List(), nil
}

// AddFriend adds userID to the friend set and records a request to it
func (a *App) AddFriend(userID string) (models.FriendRequest, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id, ok := a.sessions.Current()
	if !ok {
		return models.FriendRequest{}, ErrNotSignedIn
	}
	return a.ledger.AddFriend(id.ID, userID, a.friends)
}

// RemoveFriend reports whether userID was a friend
func (a *App) RemoveFriend(userID string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.sessions.Current(); !ok {
		return false, ErrNotSignedIn
	}
	return a.friends.Remove(userID), nil
}

func (a *App) PendingRequests() ([]models.FriendRequest, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.sessions.Current(); !ok {
		return nil, ErrNotSignedIn
	}
	return a.ledger.Pending(), nil
}

// SendFriendRequest records a request. An empty from means the signed-in
// identity.
func (a *App) SendFriendRequest(from, to string) (models.FriendRequest, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id, ok := a.sessions.Current()
	if !ok {
		return models.FriendRequest{}, ErrNotSignedIn
	}
	if from == "" {
		from = id.ID
	}
	return a.ledger.SendRequest(from, to)
}

func (a *App) AcceptRequest(fromID string) ([]models.FriendRequest, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.sessions.Current(); !ok {
		return nil, ErrNotSignedIn
	}
	return a.ledger.Accept(fromID, a.friends)
}

func (a *App) RejectRequest(id models.RequestID) (models.FriendRequest, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.sessions.Current(); !ok {
		return models.FriendRequest{}, ErrNotSignedIn
	}
	return a.ledger.Reject(id)
}

// switchTo drops the previous identity's working state and loads id's
// conversations. Callers hold the lock.
func (a *App) switchTo(id models.Identity) {
	a.reset()
	a.transport.Disconnect()
	a.transport = realtime.Nop{}
	a.messages.SetTransport(nil)
	a.ledger.Reload()
	a.conversations.LoadForIdentity(id.ID)
}

func (a *App) reset() {
	a.generation++
	a.conversations.Reset()
	a.friends.Clear()
}

// connect dials outside the lock and installs the transport unless the
// identity changed meanwhile.
func (a *App) connect(ctx context.Context, id models.Identity, gen int) {
	if a.dial == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, a.dialTimeout)
	defer cancel()

	transport, err := a.dial(ctx, id, func(env realtime.Envelope) {
		a.handleInbound(gen, env)
	})
	if err != nil {
		log.Warn("Realtime unavailable for %s: %v", id.Username, err)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.generation != gen {
		transport.Disconnect()
		return
	}
	a.transport = transport
	a.messages.SetTransport(transport)
}

func (a *App) handleInbound(gen int, env realtime.Envelope) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.generation != gen {
		return
	}

	switch env.Event {
	case realtime.EventMessageReceive:
		var msg models.Message
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			log.Warn("Malformed message:receive: %v", err)
			return
		}
		if a.messages.ApplyInbound(msg) {
			log.Debug("Received message %s from %s", msg.ID, msg.SenderName)
		}
	case realtime.EventUserStatus:
		var status realtime.StatusPayload
		if err := json.Unmarshal(env.Data, &status); err == nil {
			log.Info("User %s is %s", status.Username, status.Status)
		}
	case realtime.EventError:
		var e realtime.ErrorPayload
		if err := json.Unmarshal(env.Data, &e); err == nil {
			log.Warn("Relay error: %s", e.Error)
		}
	default:
		log.Debug("Ignoring event %s", env.Event)
	}
}

func (a *App) userRecord(id string) (models.UserRecord, bool) {
	for _, u := range a.records.Users() {
		if u.ID == id {
			return u, true
		}
	}
	return models.UserRecord{}, false
}
