// Package directory talks to the optional remote user directory. Every
// call is best-effort: failures are logged and turn into empty results.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/valyala/fastjson"

	"github.com/ammar1510/chatflow/internal/logger"
	"github.com/ammar1510/chatflow/internal/models"
)

var log = logger.New("directory")

// Client reads and writes <base>/users
type Client struct {
	base   string
	http   *http.Client
	parser fastjson.ParserPool
}

func New(base string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: httpClient,
	}
}

// Users fetches every user the directory lists
func (c *Client) Users(ctx context.Context) []models.DirectoryUser {
	body, err := c.do(ctx, http.MethodGet, nil)
	if err != nil {
		log.Error("Failed to fetch users: %v", err)
		return []models.DirectoryUser{}
	}

	users, err := c.parseUsers(body)
	if err != nil {
		log.Error("Failed to fetch users: %v", err)
		return []models.DirectoryUser{}
	}
	return users
}

// SaveUser posts a user record and returns what the directory echoed,
// or nil when it could not be saved.
func (c *Client) SaveUser(ctx context.Context, user models.UserRecord) *models.DirectoryUser {
	payload, err := json.Marshal(user)
	if err != nil {
		log.Error("Failed to save user: %v", err)
		return nil
	}

	body, err := c.do(ctx, http.MethodPost, payload)
	if err != nil {
		log.Error("Failed to save user: %v", err)
		return nil
	}

	p := c.parser.Get()
	defer c.parser.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil || v.Type() != fastjson.TypeObject {
		log.Error("Failed to save user: unexpected response")
		return nil
	}
	saved, ok := userFromValue(v)
	if !ok {
		saved = models.DirectoryUser{ID: user.ID, Username: user.Username, Email: user.Email}
	}
	return &saved
}

// Search returns users whose name contains term, ignoring case, leaving out excludeID
func Search(users []models.DirectoryUser, term, excludeID string) []models.DirectoryUser {
	term = strings.ToLower(strings.TrimSpace(term))
	out := []models.DirectoryUser{}
	if term == "" {
		return out
	}
	for _, u := range users {
		if u.ID == excludeID {
			continue
		}
		if strings.Contains(strings.ToLower(u.Username), term) {
			out = append(out, u)
		}
	}
	return out
}

func (c *Client) do(ctx context.Context, method string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+"/users", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: status %d", method, req.URL.Path, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
}

func (c *Client) parseUsers(body []byte) ([]models.DirectoryUser, error) {
	p := c.parser.Get()
	defer c.parser.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, err
	}
	items, err := v.Array()
	if err != nil {
		return nil, err
	}

	users := make([]models.DirectoryUser, 0, len(items))
	for _, item := range items {
		if u, ok := userFromValue(item); ok {
			users = append(users, u)
		}
	}
	return users, nil
}

// userFromValue accepts string or numeric ids and either "username" or "name"
func userFromValue(v *fastjson.Value) (models.DirectoryUser, bool) {
	if v == nil || v.Type() != fastjson.TypeObject {
		return models.DirectoryUser{}, false
	}

	var u models.DirectoryUser
	switch id := v.Get("id"); {
	case id == nil:
	case id.Type() == fastjson.TypeString:
		u.ID = string(id.GetStringBytes())
	case id.Type() == fastjson.TypeNumber:
		u.ID = strconv.FormatFloat(id.GetFloat64(), 'f', -1, 64)
	}

	u.Username = string(v.GetStringBytes("username"))
	if u.Username == "" {
		u.Username = string(v.GetStringBytes("name"))
	}
	u.Email = string(v.GetStringBytes("email"))

	if u.ID == "" || u.Username == "" {
		return models.DirectoryUser{}, false
	}
	return u, true
}
