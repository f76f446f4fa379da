package service

import (
	"context"

	"circle/internal/models"
	"circle/internal/observability"
	"circle/internal/repository"
)

const (
	readTargetNotification = "notification"
	readTargetMessage      = "message"
)

// ReadStateService marks notifications and messages read and counts what is
// still unread. Counts always come from the rows themselves.
type ReadStateService struct {
	notifications repository.NotificationRepository
	messages      repository.MessageRepository
}

// NewReadStateService returns a new ReadStateService.
func NewReadStateService(notifications repository.NotificationRepository, messages repository.MessageRepository) *ReadStateService {
	return &ReadStateService{notifications: notifications, messages: messages}
}

// ListNotifications returns userID's notifications with id > afterID, ascending.
func (s *ReadStateService) ListNotifications(ctx context.Context, userID, afterID uint, limit int) ([]models.Notification, error) {
	return s.notifications.ListForUser(ctx, userID, afterID, limit)
}

// MarkNotificationRead marks one notification read. Only its recipient may
// do so; repeating the call changes nothing.
func (s *ReadStateService) MarkNotificationRead(ctx context.Context, actorID, notificationID uint) (int64, error) {
	n, err := s.notifications.GetByID(ctx, notificationID)
	if err != nil {
		return 0, err
	}
	if n.UserID != actorID {
		return 0, models.NewForbiddenError("You can only mark your own notifications as read")
	}
	changed, err := s.notifications.MarkRead(ctx, notificationID, actorID)
	if err != nil {
		return 0, err
	}
	observability.ReadMarks.WithLabelValues(readTargetNotification).Add(float64(changed))
	return changed, nil
}

func (s *ReadStateService) MarkAllNotificationsRead(ctx context.Context, userID uint) (int64, error) {
	changed, err := s.notifications.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	observability.ReadMarks.WithLabelValues(readTargetNotification).Add(float64(changed))
	return changed, nil
}

func (s *ReadStateService) UnreadNotificationCount(ctx context.Context, userID uint) (int64, error) {
	return s.notifications.CountUnread(ctx, userID)
}

// MarkMessagesRead marks the given messages read, skipping any not
// addressed to userID.
func (s *ReadStateService) MarkMessagesRead(ctx context.Context, userID uint, ids []uint) (int64, error) {
	changed, err := s.messages.MarkRead(ctx, ids, userID)
	if err != nil {
		return 0, err
	}
	observability.ReadMarks.WithLabelValues(readTargetMessage).Add(float64(changed))
	return changed, nil
}

// MarkConversationRead marks everything senderID sent to receiverID as read.
func (s *ReadStateService) MarkConversationRead(ctx context.Context, senderID, receiverID uint) (int64, error) {
	changed, err := s.messages.MarkConversationRead(ctx, senderID, receiverID)
	if err != nil {
		return 0, err
	}
	observability.ReadMarks.WithLabelValues(readTargetMessage).Add(float64(changed))
	return changed, nil
}

func (s *ReadStateService) UnreadMessageCount(ctx context.Context, userID uint) (int64, error) {
	return s.messages.CountUnread(ctx, userID)
}
