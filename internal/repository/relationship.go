package repository

import (
	"context"

	"circle/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RelationshipStore persists friendships and follows. Friendships are keyed
// by the canonical pair so (a, b) and (b, a) address the same row.
type RelationshipStore interface {
	CreateFriendship(ctx context.Context, pair models.FriendPair) error
	RemoveFriendship(ctx context.Context, pair models.FriendPair) (bool, error)
	AreFriends(ctx context.Context, pair models.FriendPair) (bool, error)
	ListFriends(ctx context.Context, userID uint) ([]models.UserSummary, error)

	Follow(ctx context.Context, followerID, followingID uint) error
	Unfollow(ctx context.Context, followerID, followingID uint) (bool, error)
	IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error)
	ListFollowers(ctx context.Context, userID uint) ([]models.UserSummary, error)
	ListFollowing(ctx context.Context, userID uint) ([]models.UserSummary, error)

	WithTx(tx *gorm.DB) RelationshipStore
}

type relationshipStore struct {
	db *gorm.DB
}

// NewRelationshipStore creates a new relationship store
func NewRelationshipStore(db *gorm.DB) RelationshipStore {
	return &relationshipStore{db: db}
}

func (r *relationshipStore) WithTx(tx *gorm.DB) RelationshipStore {
	return &relationshipStore{db: tx}
}

// CreateFriendship inserts the pair; an existing row is left untouched.
func (r *relationshipStore) CreateFriendship(ctx context.Context, pair models.FriendPair) error {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(models.NewFriendship(pair)).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// RemoveFriendship deletes the pair and reports whether a row existed.
func (r *relationshipStore) RemoveFriendship(ctx context.Context, pair models.FriendPair) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id_1 = ? AND user_id_2 = ?", pair.Low, pair.High).
		Delete(&models.Friendship{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *relationshipStore) AreFriends(ctx context.Context, pair models.FriendPair) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Friendship{}).
		Where("user_id_1 = ? AND user_id_2 = ?", pair.Low, pair.High).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *relationshipStore) ListFriends(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	friends := make([]models.UserSummary, 0)
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("users.id, users.username, users.avatar").
		Joins("JOIN friendships f ON (f.user_id_1 = ? AND f.user_id_2 = users.id) OR (f.user_id_2 = ? AND f.user_id_1 = users.id)",
			userID, userID).
		Order("users.id ASC").
		Scan(&friends).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return friends, nil
}

func (r *relationshipStore) Follow(ctx context.Context, followerID, followingID uint) error {
	if followerID == followingID {
		return models.NewValidationErrorWithReason(models.ReasonSelfFollow, "Cannot follow yourself")
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Follow{FollowerID: followerID, FollowingID: followingID}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *relationshipStore) Unfollow(ctx context.Context, followerID, followingID uint) (bool, error) {
	if followerID == followingID {
		return false, models.NewValidationErrorWithReason(models.ReasonSelfFollow, "Cannot unfollow yourself")
	}
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *relationshipStore) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *relationshipStore) ListFollowers(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	return r.listFollowEdge(ctx, "f.follower_id = users.id", "f.following_id = ?", userID)
}

func (r *relationshipStore) ListFollowing(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	return r.listFollowEdge(ctx, "f.following_id = users.id", "f.follower_id = ?", userID)
}

func (r *relationshipStore) listFollowEdge(ctx context.Context, join, where string, userID uint) ([]models.UserSummary, error) {
	users := make([]models.UserSummary, 0)
	if err := readDB(r.db).WithContext(ctx).
		Model(&models.User{}).
		Select("users.id, users.username, users.avatar").
		Joins("JOIN follows f ON "+join).
		Where(where, userID).
		Order("users.id ASC").
		Scan(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
