package models

import (
	"fmt"
	"time"
)

// FriendPair is an unordered pair of users in canonical (low, high) order.
// The zero value is not a valid pair; build one with NewFriendPair.
type FriendPair struct {
	Low  uint
	High uint
}

// NewFriendPair canonicalizes (a, b) so that Low < High. It rejects a == b.
func NewFriendPair(a, b uint) (FriendPair, error) {
	if a == b {
		return FriendPair{}, NewValidationErrorWithReason(ReasonSelfRequest,
			fmt.Sprintf("user %d cannot be paired with itself", a))
	}
	if a > b {
		a, b = b, a
	}
	return FriendPair{Low: a, High: b}, nil
}

// Contains reports whether userID is one side of the pair.
func (p FriendPair) Contains(userID uint) bool {
	return p.Low == userID || p.High == userID
}

// Other returns the side of the pair that is not userID.
func (p FriendPair) Other(userID uint) uint {
	if p.Low == userID {
		return p.High
	}
	return p.Low
}

// Friendship is a mutual friendship stored once per unordered pair.
type Friendship struct {
	UserID1   uint      `gorm:"column:user_id_1;primaryKey;autoIncrement:false;check:chk_friendships_order,user_id_1 < user_id_2" json:"user_id_1"`
	UserID2   uint      `gorm:"column:user_id_2;primaryKey;autoIncrement:false;index" json:"user_id_2"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Friendship) TableName() string {
	return "friendships"
}

// NewFriendship builds the stored row for a canonical pair.
func NewFriendship(p FriendPair) *Friendship {
	return &Friendship{UserID1: p.Low, UserID2: p.High}
}

// Pair returns the canonical pair of the row.
func (f Friendship) Pair() FriendPair {
	return FriendPair{Low: f.UserID1, High: f.UserID2}
}
