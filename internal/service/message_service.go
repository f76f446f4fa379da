package service

import (
	"context"

	"circle/internal/models"
	"circle/internal/notifications"
	"circle/internal/repository"
)

// MessageService handles direct messages between two users.
type MessageService struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	emitter  notifications.Emitter
}

type SendMessageInput struct {
	SenderID   uint
	ReceiverID uint
	Content    string
}

// NewMessageService returns a new MessageService.
func NewMessageService(messages repository.MessageRepository, users repository.UserRepository, emitter notifications.Emitter) *MessageService {
	return &MessageService{messages: messages, users: users, emitter: emitter}
}

// Send stores the message, then notifies the receiver. The notification is
// written after the message commits and its failure does not fail Send.
func (s *MessageService) Send(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	content, err := validateContent(in.Content, "Message")
	if err != nil {
		return nil, err
	}
	if in.ReceiverID == 0 {
		return nil, models.NewValidationError("receiver_id is required")
	}
	if in.SenderID == in.ReceiverID {
		return nil, models.NewValidationErrorWithReason(models.ReasonSelfMessage, "Cannot send a message to yourself")
	}
	ok, err := s.users.Exists(ctx, in.ReceiverID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewNotFoundError("User", in.ReceiverID)
	}

	msg := &models.Message{SenderID: in.SenderID, ReceiverID: in.ReceiverID, Content: content}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.emitter.Emit(ctx, notifications.Event{
		Type:        models.NotificationMessageSent,
		RecipientID: in.ReceiverID,
		ActorID:     in.SenderID,
	})
	return msg, nil
}

// Conversation returns the messages between a and b with id > afterID.
func (s *MessageService) Conversation(ctx context.Context, a, b, afterID uint, limit int) ([]models.Message, error) {
	return s.messages.Conversation(ctx, a, b, afterID, limit)
}

// Conversations lists userID's conversations, most recent first.
func (s *MessageService) Conversations(ctx context.Context, userID uint) ([]models.ConversationSummary, error) {
	return s.messages.Conversations(ctx, userID)
}

// Delete hard-deletes a message. Only its sender may delete it.
func (s *MessageService) Delete(ctx context.Context, actorID, messageID uint) error {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != actorID {
		return models.NewForbiddenError("You can only delete messages you sent")
	}
	return s.messages.Delete(ctx, messageID)
}
