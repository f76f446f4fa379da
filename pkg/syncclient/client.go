package syncclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Stream names accepted by Sync.
const (
	StreamNotifications = "notifications"
	StreamMessages      = "messages"
	StreamPosts         = "posts"
)

// Client calls the polling endpoints of the Circle API on behalf of one user.
type Client struct {
	baseURL    string
	userID     uint
	httpClient *http.Client
	token      string
	userHeader string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client, which has a 10s timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBearerToken authenticates with a JWT whose subject is the user id.
func WithBearerToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTrustedHeader sends the user id in header, for deployments behind an
// authenticating proxy.
func WithTrustedHeader(header string) Option {
	return func(c *Client) { c.userHeader = header }
}

// New returns a client for userID against baseURL (e.g. http://localhost:8375).
func New(baseURL string, userID uint, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		userID:     userID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UserID is the user this client polls for.
func (c *Client) UserID() uint { return c.userID }

// Sync fetches the named streams (all of them when none are named) after the
// given watermarks in one call. Rows the server is still settling are left
// out, and Batch.Next stops short of them.
func (c *Client) Sync(ctx context.Context, after Watermarks, limit int, streams ...string) (*Batch, error) {
	q := url.Values{}
	q.Set("notifications_after", strconv.FormatUint(uint64(after.Notifications), 10))
	q.Set("messages_after", strconv.FormatUint(uint64(after.Messages), 10))
	q.Set("posts_after", strconv.FormatUint(uint64(after.Posts), 10))
	if len(streams) > 0 {
		q.Set("streams", strings.Join(streams, ","))
	}
	setLimit(q, limit)

	var batch Batch
	if err := c.get(ctx, fmt.Sprintf("/api/sync/%d", c.userID), q, &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

// NotificationStream polls the notification stream through Sync.
func (c *Client) NotificationStream(limit int) FetchFunc[Notification] {
	return func(ctx context.Context, after uint) ([]Notification, uint, error) {
		b, err := c.Sync(ctx, Watermarks{Notifications: after}, limit, StreamNotifications)
		if err != nil {
			return nil, 0, err
		}
		return b.Notifications, b.Next.Notifications, nil
	}
}

// MessageStream polls every message the user sent or received through Sync.
func (c *Client) MessageStream(limit int) FetchFunc[Message] {
	return func(ctx context.Context, after uint) ([]Message, uint, error) {
		b, err := c.Sync(ctx, Watermarks{Messages: after}, limit, StreamMessages)
		if err != nil {
			return nil, 0, err
		}
		return b.Messages, b.Next.Messages, nil
	}
}

// PostStream polls the feed through Sync.
func (c *Client) PostStream(limit int) FetchFunc[Post] {
	return func(ctx context.Context, after uint) ([]Post, uint, error) {
		b, err := c.Sync(ctx, Watermarks{Posts: after}, limit, StreamPosts)
		if err != nil {
			return nil, 0, err
		}
		return b.Posts, b.Next.Posts, nil
	}
}

// Notifications lists the user's notifications with id > after. The list
// endpoints do not hold back unsettled rows; pollers should use
// NotificationStream.
func (c *Client) Notifications(ctx context.Context, after uint, limit int) ([]Notification, error) {
	var out []Notification
	err := c.get(ctx, fmt.Sprintf("/api/notifications/%d", c.userID), windowQuery(after, limit), &out)
	return out, err
}

// Conversation lists messages between the user and partnerID with id > after.
func (c *Client) Conversation(ctx context.Context, partnerID, after uint, limit int) ([]Message, error) {
	var out []Message
	err := c.get(ctx, fmt.Sprintf("/api/messages/conversation/%d/%d", c.userID, partnerID), windowQuery(after, limit), &out)
	return out, err
}

// Feed lists posts with id > after.
func (c *Client) Feed(ctx context.Context, after uint, limit int) ([]Post, error) {
	var out []Post
	err := c.get(ctx, "/api/posts", windowQuery(after, limit), &out)
	return out, err
}

// UnreadNotificationCount returns the live unread notification count.
func (c *Client) UnreadNotificationCount(ctx context.Context) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	err := c.get(ctx, fmt.Sprintf("/api/notifications/%d/unread-count", c.userID), nil, &out)
	return out.Count, err
}

func windowQuery(after uint, limit int) url.Values {
	q := url.Values{}
	q.Set("after_id", strconv.FormatUint(uint64(after), 10))
	setLimit(q, limit)
	return q
}

func setLimit(q url.Values, limit int) {
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.userHeader != "" {
		req.Header.Set(c.userHeader, strconv.FormatUint(uint64(c.userID), 10))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(body, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
