package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammar1510/chatflow/internal/auth"
	"github.com/ammar1510/chatflow/internal/chat"
	"github.com/ammar1510/chatflow/internal/database"
	"github.com/ammar1510/chatflow/internal/directory"
	"github.com/ammar1510/chatflow/internal/friends"
	"github.com/ammar1510/chatflow/internal/models"
	"github.com/ammar1510/chatflow/internal/realtime"
	"github.com/ammar1510/chatflow/internal/websocket"
)

// fakeTransport records emitted events and keeps the inbound handler
type fakeTransport struct {
	mu           sync.Mutex
	id           models.Identity
	handler      realtime.Handler
	events       []string
	disconnected bool
}

func (f *fakeTransport) Emit(event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeTransport) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected = true
}

func (f *fakeTransport) deliver(t *testing.T, event string, payload interface{}) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	f.handler(realtime.Envelope{Event: event, Data: data})
}

type fakeDialer struct {
	mu     sync.Mutex
	dialed []*fakeTransport
	err    error
}

func (d *fakeDialer) dial(_ context.Context, id models.Identity, handler realtime.Handler) (realtime.Transport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	tr := &fakeTransport{id: id, handler: handler}
	d.dialed = append(d.dialed, tr)
	return tr, nil
}

func (d *fakeDialer) last(t *testing.T) *fakeTransport {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	require.NotEmpty(t, d.dialed)
	return d.dialed[len(d.dialed)-1]
}

func setupApp(t *testing.T) (*App, *fakeDialer, *database.Records) {
	t.Helper()
	records := database.NewRecords(database.NewMemoryDB())
	dialer := &fakeDialer{}
	a := New(Options{Records: records, Dial: dialer.dial})
	t.Cleanup(a.Dispose)
	return a, dialer, records
}

func register(t *testing.T, a *App, username string) models.Identity {
	t.Helper()
	id, err := a.Register(context.Background(), models.UserRegistration{
		Username:        username,
		Email:           username + "@example.com",
		Password:        "pw",
		ConfirmPassword: "pw",
	})
	require.NoError(t, err)
	return *id
}

func TestOperationsRequireSession(t *testing.T) {
	a, _, _ := setupApp(t)

	_, err := a.Conversations()
	assert.ErrorIs(t, err, ErrNotSignedIn)
	_, _, err = a.CreateConversation("General")
	assert.ErrorIs(t, err, ErrNotSignedIn)
	_, err = a.SendMessage("hi")
	assert.ErrorIs(t, err, ErrNotSignedIn)
	_, err = a.Friends()
	assert.ErrorIs(t, err, ErrNotSignedIn)
	_, err = a.SearchUsers(context.Background(), "a")
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestInitRestoresSession(t *testing.T) {
	records := database.NewRecords(database.NewMemoryDB())
	alice := models.Identity{ID: "u-alice", Username: "alice"}
	require.NoError(t, records.SaveSession(alice))
	require.NoError(t, records.SaveConversations(alice.ID, []models.Conversation{{ID: "c1", Name: "General", CreatedBy: alice.ID}}))

	dialer := &fakeDialer{}
	a := New(Options{Records: records, Dial: dialer.dial})
	defer a.Dispose()

	id, ok := a.Init(context.Background())
	require.True(t, ok)
	assert.Equal(t, alice, *id)

	convs, err := a.Conversations()
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, "General", convs[0].Name)
	assert.Equal(t, alice, dialer.last(t).id)
}

func TestInitWithoutSession(t *testing.T) {
	a, dialer, _ := setupApp(t)

	_, ok := a.Init(context.Background())
	assert.False(t, ok)
	assert.Empty(t, dialer.dialed)
}

func TestSendAndReceive(t *testing.T) {
	a, dialer, records := setupApp(t)
	alice := register(t, a, "alice")
	tr := dialer.last(t)

	conv, msgs, err := a.CreateConversation("General")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	msg, err := a.SendMessage("  hello ")
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Text)
	assert.Equal(t, alice.ID, msg.Sender)
	assert.Equal(t, conv.ID, msg.ConversationID)
	assert.Equal(t, []string{realtime.EventMessageSend}, tr.events)

	tr.deliver(t, realtime.EventMessageReceive, models.Message{
		ID: "m2", Sender: "u-bob", SenderName: "bob", Text: "hey", Timestamp: "10:01", ConversationID: conv.ID,
	})
	tr.deliver(t, realtime.EventMessageReceive, models.Message{
		ID: "m3", Sender: "u-bob", SenderName: "bob", Text: "elsewhere", Timestamp: "10:02", ConversationID: "other",
	})
	tr.deliver(t, realtime.EventUserStatus, realtime.StatusPayload{UserID: "u-bob", Username: "bob", Status: "online"})

	_, log, err := a.Messages()
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, "hey", log[1].Text)
	assert.Len(t, records.Messages(conv.ID), 2)
	assert.Empty(t, records.Messages("other"))
}

func TestSendWithoutSelection(t *testing.T) {
	a, dialer, _ := setupApp(t)
	register(t, a, "alice")

	_, err := a.SendMessage("hello")
	assert.ErrorIs(t, err, chat.ErrNoActiveConversation)

	_, _, err = a.Messages()
	assert.ErrorIs(t, err, chat.ErrNoActiveConversation)
	assert.Empty(t, dialer.last(t).events)
}

func TestIdentitySwitchResetsState(t *testing.T) {
	a, dialer, _ := setupApp(t)
	register(t, a, "alice")
	first := dialer.last(t)

	conv, _, err := a.CreateConversation("General")
	require.NoError(t, err)
	_, err = a.AddFriend("u-carol")
	require.NoError(t, err)

	bob := register(t, a, "bob")
	assert.True(t, first.disconnected)

	current, ok := a.Current()
	require.True(t, ok)
	assert.Equal(t, bob, current)

	convs, err := a.Conversations()
	require.NoError(t, err)
	assert.Empty(t, convs)
	friendList, err := a.Friends()
	require.NoError(t, err)
	assert.Empty(t, friendList)

	// events from the old connection no longer land anywhere
	first.deliver(t, realtime.EventMessageReceive, models.Message{ID: "x", Text: "late", ConversationID: conv.ID})
	_, _, err = a.Messages()
	assert.ErrorIs(t, err, chat.ErrNoActiveConversation)
}

func TestLogout(t *testing.T) {
	a, dialer, records := setupApp(t)
	register(t, a, "alice")
	tr := dialer.last(t)
	_, _, err := a.CreateConversation("General")
	require.NoError(t, err)

	require.NoError(t, a.Logout())

	assert.True(t, tr.disconnected)
	_, ok := a.Current()
	assert.False(t, ok)
	_, ok = records.Session()
	assert.False(t, ok)

	_, err = a.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	convs, err := a.Conversations()
	require.NoError(t, err)
	assert.Len(t, convs, 1, "conversations survive logout")
}

func TestLoginErrors(t *testing.T) {
	a, _, _ := setupApp(t)
	register(t, a, "alice")
	require.NoError(t, a.Logout())

	_, err := a.Login(context.Background(), "nobody", "pw")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
	_, err = a.Login(context.Background(), "alice", "nope")
	assert.ErrorIs(t, err, auth.ErrWrongPassword)
	_, err = a.Login(context.Background(), "", "")
	assert.ErrorIs(t, err, auth.ErrMissingFields)
}

func TestDialFailureFallsBack(t *testing.T) {
	a, dialer, _ := setupApp(t)
	dialer.err = errors.New("connection refused")

	register(t, a, "alice")
	_, _, err := a.CreateConversation("General")
	require.NoError(t, err)

	_, err = a.SendMessage("offline but stored")
	assert.NoError(t, err)
}

func TestFriendOperations(t *testing.T) {
	a, _, _ := setupApp(t)
	alice := register(t, a, "alice")

	req, err := a.AddFriend("u-bob")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, req.From)
	assert.Equal(t, "u-bob", req.To)

	_, err = a.AddFriend("u-bob")
	assert.ErrorIs(t, err, friends.ErrAlreadyFriends)

	_, err = a.SendFriendRequest("u-carol", alice.ID)
	require.NoError(t, err)
	rejectMe, err := a.SendFriendRequest("", "u-dave")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, rejectMe.From)

	pending, err := a.PendingRequests()
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	accepted, err := a.AcceptRequest("u-carol")
	require.NoError(t, err)
	assert.Len(t, accepted, 1)

	_, err = a.RejectRequest(rejectMe.ID)
	require.NoError(t, err)
	_, err = a.RejectRequest("missing")
	assert.ErrorIs(t, err, friends.ErrRequestNotFound)

	list, err := a.Friends()
	require.NoError(t, err)
	assert.Equal(t, []string{"u-bob", "u-carol"}, list)

	removed, err := a.RemoveFriend("u-bob")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = a.RemoveFriend("u-bob")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestDirectoryMirrorAndSearch(t *testing.T) {
	var mu sync.Mutex
	var posted []map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var body map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&body)
			mu.Lock()
			posted = append(posted, body)
			mu.Unlock()
			_ = json.NewEncoder(w).Encode(body)
		default:
			w.Write([]byte(`[{"id":"u-bob","username":"Bobby"},{"id":7,"name":"bobcat"},{"id":"u-carol","username":"carol"}]`))
		}
	}))
	defer server.Close()

	records := database.NewRecords(database.NewMemoryDB())
	a := New(Options{Records: records, Directory: directory.New(server.URL, server.Client())})

	_, err := a.Register(context.Background(), models.UserRegistration{
		Username: "alice", Email: "a@example.com", Password: "pw", ConfirmPassword: "pw",
	})
	require.NoError(t, err)

	users, err := a.SearchUsers(context.Background(), "BOB")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Bobby", users[0].Username)
	assert.Equal(t, "7", users[1].ID)

	a.Dispose()
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, posted, 1)
	assert.Equal(t, "alice", posted[0]["username"])
}

func TestRelayRoundTrip(t *testing.T) {
	auth.InitJWTKey([]byte("test-secret-key-for-app-tests"))
	gin.SetMode(gin.TestMode)

	manager := websocket.NewManager()
	go manager.Run()
	router := gin.New()
	router.GET("/ws", manager.HandleWebSocket)
	server := httptest.NewServer(router)
	defer server.Close()

	relayURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	records := database.NewRecords(database.NewMemoryDB())

	aliceApp := New(Options{Records: records, Dial: RelayDialer(relayURL)})
	defer aliceApp.Dispose()
	register(t, aliceApp, "alice")
	conv, _, err := aliceApp.CreateConversation("General")
	require.NoError(t, err)

	// bob shares storage with alice, as two browser tabs would
	bobApp := New(Options{Records: records, Dial: RelayDialer(relayURL)})
	defer bobApp.Dispose()
	register(t, bobApp, "bob")
	_, _, err = bobApp.SelectConversation(conv.ID)
	assert.ErrorIs(t, err, chat.ErrConversationNotFound, "conversations are partitioned by creator")

	require.Eventually(t, func() bool { return manager.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, bobApp.Logout())
	require.Eventually(t, func() bool { return manager.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	_, err = bobApp.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	_, _, err = bobApp.SelectConversation(conv.ID)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return manager.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	_, err = aliceApp.SendMessage("over the wire")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, msgs, err := bobApp.Messages()
		return err == nil && len(msgs) >= 1 && msgs[len(msgs)-1].Text == "over the wire"
	}, 2*time.Second, 20*time.Millisecond)
}
