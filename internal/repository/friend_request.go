package repository

import (
	"context"
	"errors"
	"time"

	"circle/internal/database"
	"circle/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FriendRequestRepository persists friend requests. Every status change is a
// conditional update on the expected current status; callers inspect the
// affected row count to detect a lost race.
type FriendRequestRepository interface {
	GetByID(ctx context.Context, id uint) (*models.FriendRequest, error)
	FindPending(ctx context.Context, pair models.FriendPair) (*models.FriendRequest, error)
	FindLatestRejected(ctx context.Context, pair models.FriendPair) (*models.FriendRequest, error)
	InsertPending(ctx context.Context, req *models.FriendRequest) (bool, error)
	Revive(ctx context.Context, id, senderID, receiverID uint) (bool, error)
	Transition(ctx context.Context, id uint, from, to models.FriendRequestStatus) (bool, error)
	ListIncomingPending(ctx context.Context, userID uint) ([]models.FriendRequest, error)
	ListOutgoingPending(ctx context.Context, userID uint) ([]models.FriendRequest, error)
	WithTx(tx *gorm.DB) FriendRequestRepository
}

type friendRequestRepository struct {
	db *gorm.DB
}

// NewFriendRequestRepository creates a new friend request repository
func NewFriendRequestRepository(db *gorm.DB) FriendRequestRepository {
	return &friendRequestRepository{db: db}
}

func (r *friendRequestRepository) WithTx(tx *gorm.DB) FriendRequestRepository {
	return &friendRequestRepository{db: tx}
}

func (r *friendRequestRepository) GetByID(ctx context.Context, id uint) (*models.FriendRequest, error) {
	var req models.FriendRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("FriendRequest", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}

// FindPending returns the pending request for the pair, or nil.
func (r *friendRequestRepository) FindPending(ctx context.Context, pair models.FriendPair) (*models.FriendRequest, error) {
	return r.findByStatus(ctx, pair, models.FriendRequestPending)
}

// FindLatestRejected returns the most recent rejected request for the pair, or nil.
func (r *friendRequestRepository) FindLatestRejected(ctx context.Context, pair models.FriendPair) (*models.FriendRequest, error) {
	return r.findByStatus(ctx, pair, models.FriendRequestRejected)
}

func (r *friendRequestRepository) findByStatus(ctx context.Context, pair models.FriendPair, status models.FriendRequestStatus) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("user_low = ? AND user_high = ? AND status = ?", pair.Low, pair.High, status).
		Order("id DESC").
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}

// InsertPending inserts req as pending. It returns false when the pair
// already has a pending request.
func (r *friendRequestRepository) InsertPending(ctx context.Context, req *models.FriendRequest) (bool, error) {
	req.Status = models.FriendRequestPending
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(req)
	if res.Error != nil {
		if database.IsUniqueViolation(res.Error) {
			return false, nil
		}
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Revive flips a rejected request back to pending with a possibly new
// direction. It returns false if the row is no longer rejected, or if
// another pending request for the pair appeared in the meantime.
func (r *friendRequestRepository) Revive(ctx context.Context, id, senderID, receiverID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.FriendRequest{}).
		Where("id = ? AND status = ?", id, models.FriendRequestRejected).
		UpdateColumns(map[string]interface{}{
			"sender_id":   senderID,
			"receiver_id": receiverID,
			"status":      models.FriendRequestPending,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		if database.IsUniqueViolation(res.Error) {
			return false, nil
		}
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Transition moves the request from one status to another and reports
// whether this call performed the change.
func (r *friendRequestRepository) Transition(ctx context.Context, id uint, from, to models.FriendRequestStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.FriendRequest{}).
		Where("id = ? AND status = ?", id, from).
		UpdateColumns(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *friendRequestRepository) ListIncomingPending(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return r.listPending(ctx, "receiver_id = ?", userID)
}

func (r *friendRequestRepository) ListOutgoingPending(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return r.listPending(ctx, "sender_id = ?", userID)
}

func (r *friendRequestRepository) listPending(ctx context.Context, where string, userID uint) ([]models.FriendRequest, error) {
	requests := make([]models.FriendRequest, 0)
	if err := r.db.WithContext(ctx).
		Where(where, userID).
		Where("status = ?", models.FriendRequestPending).
		Preload("Sender").
		Preload("Receiver").
		Order("id ASC").
		Find(&requests).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return requests, nil
}
