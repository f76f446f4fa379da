package server

import (
	"circle/internal/models"
	"circle/internal/service"

	"github.com/gofiber/fiber/v2"
)

type sendMessageBody struct {
	ReceiverID uint   `json:"receiver_id"`
	Content    string `json:"content"`
}

type markMessagesReadBody struct {
	MessageIDs []uint `json:"message_ids"`
}

type markConversationReadBody struct {
	SenderID uint `json:"sender_id"`
}

// SendMessage handles POST /api/messages/send
func (s *Server) SendMessage(c *fiber.Ctx) error {
	var body sendMessageBody
	if err := s.parseBody(c, &body); err != nil {
		return nil
	}
	msg, err := s.messages.Send(c.UserContext(), service.SendMessageInput{
		SenderID:   currentUserID(c),
		ReceiverID: body.ReceiverID,
		Content:    body.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "message": msg})
}

// ListConversations handles GET /api/messages/conversations/:userId
func (s *Server) ListConversations(c *fiber.Ctx) error {
	userID, err := s.requireSelf(c, "userId")
	if err != nil {
		return nil
	}
	convs, err := s.messages.Conversations(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(convs)
}

// GetConversation handles GET /api/messages/conversation/:u1/:u2?after_id=&limit=
func (s *Server) GetConversation(c *fiber.Ctx) error {
	a, err := s.parseID(c, "u1")
	if err != nil {
		return nil
	}
	b, err := s.parseID(c, "u2")
	if err != nil {
		return nil
	}
	userID := currentUserID(c)
	if userID != a && userID != b {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("You can only read your own conversations"))
	}
	w := parseWindow(c, "after_id")
	msgs, err := s.messages.Conversation(c.UserContext(), a, b, w.AfterID, w.Limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(msgs)
}

// MarkMessagesRead handles POST /api/messages/mark-read
func (s *Server) MarkMessagesRead(c *fiber.Ctx) error {
	var body markMessagesReadBody
	if err := s.parseBody(c, &body); err != nil {
		return nil
	}
	changed, err := s.readState.MarkMessagesRead(c.UserContext(), currentUserID(c), body.MessageIDs)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "updated": changed})
}

// MarkConversationRead handles POST /api/messages/mark-conversation-read
func (s *Server) MarkConversationRead(c *fiber.Ctx) error {
	var body markConversationReadBody
	if err := s.parseBody(c, &body); err != nil {
		return nil
	}
	if body.SenderID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("sender_id is required"))
	}
	changed, err := s.readState.MarkConversationRead(c.UserContext(), body.SenderID, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "updated": changed})
}

// UnreadMessageCount handles GET /api/messages/unread-count/:userId
func (s *Server) UnreadMessageCount(c *fiber.Ctx) error {
	userID, err := s.requireSelf(c, "userId")
	if err != nil {
		return nil
	}
	count, err := s.readState.UnreadMessageCount(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}

// DeleteMessage handles DELETE /api/messages/:id
func (s *Server) DeleteMessage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.messages.Delete(c.UserContext(), currentUserID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
