package models

import "time"

// Message is a direct message between two users.
type Message struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	SenderID   uint       `gorm:"not null;index;check:chk_messages_not_self,sender_id <> receiver_id" json:"sender_id"`
	ReceiverID uint       `gorm:"not null;index:idx_messages_receiver_read,priority:1" json:"receiver_id"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	IsRead     bool       `gorm:"not null;default:false;index:idx_messages_receiver_read,priority:2" json:"is_read"`
	CreatedAt  time.Time  `json:"created_at"`
	ReadAt     *time.Time `gorm:"check:chk_messages_read_state,(is_read = true AND read_at IS NOT NULL) OR (is_read = false AND read_at IS NULL)" json:"read_at,omitempty"`
}

// TableName specifies the table name for GORM
func (Message) TableName() string {
	return "messages"
}

// GetID lets messages flow through watermark pollers.
func (m Message) GetID() uint { return m.ID }

// ConversationSummary is one row of a user's inbox: the partner, the latest
// message exchanged with them and how many of their messages are unread.
type ConversationSummary struct {
	Partner     UserSummary `json:"partner"`
	LastMessage Message     `json:"last_message"`
	UnreadCount int64       `json:"unread_count"`
}
