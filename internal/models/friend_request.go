package models

import (
	"time"

	"gorm.io/gorm"
)

// FriendRequestStatus is the lifecycle state of a friend request.
type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestRejected FriendRequestStatus = "rejected"
)

// FriendRequest is a directed proposal of friendship. At most one pending
// request exists per unordered pair; UserLow/UserHigh back that index.
type FriendRequest struct {
	ID         uint                `gorm:"primaryKey" json:"id"`
	SenderID   uint                `gorm:"not null;index;check:chk_friend_requests_not_self,sender_id <> receiver_id" json:"sender_id"`
	ReceiverID uint                `gorm:"not null;index" json:"receiver_id"`
	UserLow    uint                `gorm:"not null;uniqueIndex:idx_friend_requests_pending_pair,where:status = 'pending'" json:"-"`
	UserHigh   uint                `gorm:"not null;uniqueIndex:idx_friend_requests_pending_pair,where:status = 'pending'" json:"-"`
	Status     FriendRequestStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`

	Sender   *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Receiver *User `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
}

// TableName specifies the table name for GORM
func (FriendRequest) TableName() string {
	return "friend_requests"
}

// BeforeSave keeps the canonical pair columns in step with sender/receiver.
func (r *FriendRequest) BeforeSave(_ *gorm.DB) error {
	r.UserLow, r.UserHigh = r.SenderID, r.ReceiverID
	if r.UserLow > r.UserHigh {
		r.UserLow, r.UserHigh = r.UserHigh, r.UserLow
	}
	return nil
}

// IsPending reports whether the request can still transition.
func (r *FriendRequest) IsPending() bool {
	return r.Status == FriendRequestPending
}
