package syncclient

import "time"

// Notification mirrors a row from GET /api/notifications/:userId.
type Notification struct {
	ID         uint       `json:"id"`
	UserID     uint       `json:"user_id"`
	FromUserID *uint      `json:"from_user_id,omitempty"`
	Type       string     `json:"type"`
	Message    string     `json:"message"`
	PostID     *uint      `json:"post_id,omitempty"`
	CommentID  *uint      `json:"comment_id,omitempty"`
	IsRead     bool       `json:"is_read"`
	CreatedAt  time.Time  `json:"created_at"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
}

// GetID implements Identified.
func (n Notification) GetID() uint { return n.ID }

// Message is one direct message.
type Message struct {
	ID         uint       `json:"id"`
	SenderID   uint       `json:"sender_id"`
	ReceiverID uint       `json:"receiver_id"`
	Content    string     `json:"content"`
	IsRead     bool       `json:"is_read"`
	CreatedAt  time.Time  `json:"created_at"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
}

// GetID implements Identified.
func (m Message) GetID() uint { return m.ID }

// Post is one feed entry.
type Post struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// GetID implements Identified.
func (p Post) GetID() uint { return p.ID }

// Watermarks are the per-stream positions sent to and returned by /sync.
type Watermarks struct {
	Notifications uint `json:"notifications"`
	Messages      uint `json:"messages"`
	Posts         uint `json:"posts"`
}

// PollIntervals are the server's recommended cadences in seconds.
type PollIntervals struct {
	Notifications int `json:"notifications"`
	Feed          int `json:"feed"`
	Chat          int `json:"chat"`
}

// Batch is one /sync response.
type Batch struct {
	Notifications       []Notification `json:"notifications"`
	Messages            []Message      `json:"messages"`
	Posts               []Post         `json:"posts"`
	Next                Watermarks     `json:"next"`
	UnreadNotifications int64          `json:"unread_notifications"`
	UnreadMessages      int64          `json:"unread_messages"`
	PollIntervals       PollIntervals  `json:"poll_intervals"`
	ServerTime          time.Time      `json:"server_time"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Code    string `json:"code"`
	Reason  string `json:"reason"`
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return e.Reason + ": " + e.Message
	}
	return e.Message
}
