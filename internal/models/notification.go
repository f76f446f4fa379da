package models

import "time"

// NotificationType names the event that produced a notification.
type NotificationType string

const (
	NotificationFriendRequestSent     NotificationType = "friend_request_sent"
	NotificationFriendRequestAccepted NotificationType = "friend_request_accepted"
	NotificationMessageSent           NotificationType = "message_sent"
	NotificationPostCommented         NotificationType = "post_commented"
)

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationFriendRequestSent, NotificationFriendRequestAccepted,
		NotificationMessageSent, NotificationPostCommented:
		return true
	}
	return false
}

// Notification is addressed to exactly one user. Rows are immutable except
// for the read state, and ReadAt is set exactly when IsRead is true.
type Notification struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	UserID     uint             `gorm:"not null;index:idx_notifications_user_read,priority:1;check:chk_notifications_not_self,from_user_id IS NULL OR from_user_id <> user_id" json:"user_id"`
	FromUserID *uint            `json:"from_user_id,omitempty"`
	Type       NotificationType `gorm:"type:varchar(32);not null" json:"type"`
	Message    string           `gorm:"type:text;not null" json:"message"`
	PostID     *uint            `json:"post_id,omitempty"`
	CommentID  *uint            `json:"comment_id,omitempty"`
	IsRead     bool             `gorm:"not null;default:false;index:idx_notifications_user_read,priority:2" json:"is_read"`
	CreatedAt  time.Time        `json:"created_at"`
	ReadAt     *time.Time       `gorm:"check:chk_notifications_read_state,(is_read = true AND read_at IS NOT NULL) OR (is_read = false AND read_at IS NULL)" json:"read_at,omitempty"`
}

// TableName specifies the table name for GORM
func (Notification) TableName() string {
	return "notifications"
}

// GetID lets notifications flow through watermark pollers.
func (n Notification) GetID() uint { return n.ID }
