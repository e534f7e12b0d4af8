package auth

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/ammar1510/chatflow/internal/database"
	"github.com/ammar1510/chatflow/internal/models"
)

var (
	ErrMissingFields    = errors.New("please fill in all fields")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrUserNotFound     = errors.New("user not found")
	ErrWrongPassword    = errors.New("incorrect password")
	ErrUsernameTaken    = errors.New("username already exists")
)

// Disconnecter is the part of the realtime transport logout needs
type Disconnecter interface {
	Disconnect()
}

// SessionManager owns the current identity and the persisted session record
type SessionManager struct {
	records *database.Records
	current *models.Identity
	newID   func() string
}

func NewSessionManager(records *database.Records) *SessionManager {
	return &SessionManager{
		records: records,
		newID:   func() string { return uuid.NewString() },
	}
}

// Current returns a copy of the active identity
func (s *SessionManager) Current() (models.Identity, bool) {
	if s.current == nil {
		return models.Identity{}, false
	}
	return *s.current, true
}

// Restore makes the persisted session, if any, the active identity
func (s *SessionManager) Restore() (*models.Identity, bool) {
	id, ok := s.records.Session()
	if !ok {
		s.current = nil
		return nil, false
	}
	s.current = id
	log.Info("Restored session for %s", id.Username)

	out := *id
	return &out, true
}

// Login checks the credentials against the registry and starts a session
func (s *SessionManager) Login(username, password string) (*models.Identity, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, ErrMissingFields
	}

	user, ok := findUser(s.records.Users(), username)
	if !ok {
		return nil, ErrUserNotFound
	}
	if user.Password != password {
		return nil, ErrWrongPassword
	}

	return s.begin(user.Identity())
}

// Register adds a user to the registry and starts a session for it
func (s *SessionManager) Register(username, email, password, confirmPassword string) (*models.Identity, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	confirmPassword = strings.TrimSpace(confirmPassword)

	if username == "" || email == "" || password == "" || confirmPassword == "" {
		return nil, ErrMissingFields
	}
	if password != confirmPassword {
		return nil, ErrPasswordMismatch
	}

	users := s.records.Users()
	if _, taken := findUser(users, username); taken {
		return nil, ErrUsernameTaken
	}

	user := models.UserRecord{
		ID:       s.newID(),
		Username: username,
		Email:    email,
		Password: password,
	}
	if err := s.records.SaveUsers(append(users, user)); err != nil {
		return nil, err
	}
	log.Info("Registered user %s (%s)", user.Username, user.ID)

	return s.begin(user.Identity())
}

// Logout ends the session and asks the transport, if any, to disconnect
func (s *SessionManager) Logout(transport Disconnecter) error {
	s.current = nil
	err := s.records.ClearSession()
	if transport != nil {
		transport.Disconnect()
	}
	return err
}

func (s *SessionManager) begin(id models.Identity) (*models.Identity, error) {
	if err := s.records.SaveSession(id); err != nil {
		return nil, err
	}
	s.current = &id

	out := id
	return &out, nil
}

func findUser(users []models.UserRecord, username string) (models.UserRecord, bool) {
	for _, u := range users {
		if u.Username == username {
			return u, true
		}
	}
	return models.UserRecord{}, false
}
