package repository

import (
	"context"
	"errors"
	"time"

	"circle/internal/models"

	"gorm.io/gorm"
)

// MessageRepository defines the interface for direct message data operations
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	Delete(ctx context.Context, id uint) error
	Conversation(ctx context.Context, userA, userB, afterID uint, limit int) ([]models.Message, error)
	Conversations(ctx context.Context, userID uint) ([]models.ConversationSummary, error)
	ListForUser(ctx context.Context, userID, afterID uint, limit int) ([]models.Message, error)
	MarkRead(ctx context.Context, ids []uint, receiverID uint) (int64, error)
	MarkConversationRead(ctx context.Context, senderID, receiverID uint) (int64, error)
	CountUnread(ctx context.Context, receiverID uint) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var msg models.Message
	if err := r.db.WithContext(ctx).First(&msg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Message", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &msg, nil
}

func (r *messageRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Message{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Conversation returns messages exchanged between the two users, ascending.
func (r *messageRepository) Conversation(ctx context.Context, userA, userB, afterID uint, limit int) ([]models.Message, error) {
	q := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userA, userB, userB, userA)
	rows, err := ascendingWindow[models.Message](q, "id", afterID, limit)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}

// ListForUser returns every message sent or received by userID, ascending.
func (r *messageRepository) ListForUser(ctx context.Context, userID, afterID uint, limit int) ([]models.Message, error) {
	q := r.db.WithContext(ctx).Where("sender_id = ? OR receiver_id = ?", userID, userID)
	rows, err := ascendingWindow[models.Message](q, "id", afterID, limit)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}

const latestPerPartnerSQL = `
SELECT m.* FROM messages m
JOIN (
	SELECT CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END AS partner_id, MAX(id) AS last_id
	FROM messages
	WHERE sender_id = ? OR receiver_id = ?
	GROUP BY CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END
) latest ON latest.last_id = m.id
ORDER BY m.id DESC`

// Conversations returns one summary per partner, most recent first.
func (r *messageRepository) Conversations(ctx context.Context, userID uint) ([]models.ConversationSummary, error) {
	db := r.db.WithContext(ctx)

	var latest []models.Message
	if err := db.Raw(latestPerPartnerSQL, userID, userID, userID, userID).Scan(&latest).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	summaries := make([]models.ConversationSummary, 0, len(latest))
	if len(latest) == 0 {
		return summaries, nil
	}

	partnerIDs := make([]uint, 0, len(latest))
	for _, m := range latest {
		partnerIDs = append(partnerIDs, partnerOf(m, userID))
	}

	var partners []models.User
	if err := db.Where("id IN ?", partnerIDs).Find(&partners).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	byID := make(map[uint]models.User, len(partners))
	for _, u := range partners {
		byID[u.ID] = u
	}

	type unreadRow struct {
		SenderID uint
		Count    int64
	}
	var unread []unreadRow
	if err := db.Model(&models.Message{}).
		Select("sender_id, COUNT(*) AS count").
		Where("receiver_id = ? AND is_read = ?", userID, false).
		Group("sender_id").
		Scan(&unread).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	unreadBy := make(map[uint]int64, len(unread))
	for _, u := range unread {
		unreadBy[u.SenderID] = u.Count
	}

	for _, m := range latest {
		pid := partnerOf(m, userID)
		partner, ok := byID[pid]
		if !ok {
			partner = models.User{ID: pid}
		}
		summaries = append(summaries, models.ConversationSummary{
			Partner:     partner.Summary(),
			LastMessage: m,
			UnreadCount: unreadBy[pid],
		})
	}
	return summaries, nil
}

func partnerOf(m models.Message, userID uint) uint {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// MarkRead flips the given messages to read, but only those addressed to receiverID.
func (r *messageRepository) MarkRead(ctx context.Context, ids []uint, receiverID uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("id IN ? AND receiver_id = ? AND is_read = ?", ids, receiverID, false).
		UpdateColumns(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

// MarkConversationRead flips every unread message from senderID to receiverID.
func (r *messageRepository) MarkConversationRead(ctx context.Context, senderID, receiverID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", senderID, receiverID, false).
		UpdateColumns(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *messageRepository) CountUnread(ctx context.Context, receiverID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("receiver_id = ? AND is_read = ?", receiverID, false).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
