package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammar1510/chatflow/internal/database"
)

type fakeTransport struct {
	disconnects int
}

func (f *fakeTransport) Disconnect() { f.disconnects++ }

func setupSession(t *testing.T) (*SessionManager, *database.Records) {
	t.Helper()
	records := database.NewRecords(database.NewMemoryDB())
	return NewSessionManager(records), records
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name     string
		username string
		email    string
		password string
		confirm  string
		wantErr  error
	}{
		{"valid registration", "alice", "alice@example.com", "pw1", "pw1", nil},
		{"missing username", "  ", "alice@example.com", "pw1", "pw1", ErrMissingFields},
		{"missing email", "alice", "", "pw1", "pw1", ErrMissingFields},
		{"missing confirmation", "alice", "alice@example.com", "pw1", "", ErrMissingFields},
		{"password mismatch", "alice", "alice@example.com", "pw1", "pw2", ErrPasswordMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm, records := setupSession(t)

			id, err := sm.Register(tt.username, tt.email, tt.password, tt.confirm)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, id)
				assert.Empty(t, records.Users())
				_, ok := records.Session()
				assert.False(t, ok)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "alice", id.Username)
			assert.NotEmpty(t, id.ID)

			session, ok := records.Session()
			require.True(t, ok)
			assert.Equal(t, *id, *session)
		})
	}
}

func TestRegisterScenario(t *testing.T) {
	sm, records := setupSession(t)

	alice, err := sm.Register("alice", "alice@example.com", "pw1", "pw1")
	require.NoError(t, err)
	bob, err := sm.Register("bob", "bob@example.com", "pw2", "pw2")
	require.NoError(t, err)
	assert.NotEqual(t, alice.ID, bob.ID)

	_, err = sm.Register("alice", "other@example.com", "pw3", "pw3")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	users := records.Users()
	require.Len(t, users, 2)
	assert.Equal(t, "pw1", users[0].Password)

	// the failed registration left bob signed in
	current, ok := sm.Current()
	require.True(t, ok)
	assert.Equal(t, bob.ID, current.ID)
}

func TestLogin(t *testing.T) {
	sm, records := setupSession(t)
	registered, err := sm.Register("alice", "alice@example.com", "pw1", "pw1")
	require.NoError(t, err)
	require.NoError(t, sm.Logout(nil))

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"valid credentials", "alice", "pw1", nil},
		{"trimmed credentials", " alice ", " pw1", nil},
		{"unknown user", "carol", "pw1", ErrUserNotFound},
		{"wrong password", "alice", "nope", ErrWrongPassword},
		{"empty password", "alice", "", ErrMissingFields},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, records.ClearSession())

			id, err := sm.Login(tt.username, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, id)
				_, ok := records.Session()
				assert.False(t, ok, "no session may be persisted")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, registered.ID, id.ID)
			session, ok := records.Session()
			require.True(t, ok)
			assert.Equal(t, registered.ID, session.ID)
		})
	}
}

func TestRestoreAndLogout(t *testing.T) {
	records := database.NewRecords(database.NewMemoryDB())
	first := NewSessionManager(records)

	_, ok := first.Restore()
	assert.False(t, ok)

	alice, err := first.Register("alice", "alice@example.com", "pw1", "pw1")
	require.NoError(t, err)

	// a new manager over the same storage sees the session
	second := NewSessionManager(records)
	restored, ok := second.Restore()
	require.True(t, ok)
	assert.Equal(t, *alice, *restored)

	transport := &fakeTransport{}
	require.NoError(t, second.Logout(transport))
	assert.Equal(t, 1, transport.disconnects)

	_, ok = second.Current()
	assert.False(t, ok)
	_, ok = NewSessionManager(records).Restore()
	assert.False(t, ok)
}
