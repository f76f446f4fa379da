package server

import (
	"circle/internal/models"
	"circle/internal/service"

	"github.com/gofiber/fiber/v2"
)

type sendFriendRequestBody struct {
	SenderID   uint `json:"sender_id"`
	ReceiverID uint `json:"receiver_id"`
}

type removeFriendshipBody struct {
	UserID1 uint `json:"user_id_1"`
	UserID2 uint `json:"user_id_2"`
}

// SendFriendRequest handles POST /api/friends/request
func (s *Server) SendFriendRequest(c *fiber.Ctx) error {
	userID := currentUserID(c)
	var body sendFriendRequestBody
	if err := s.parseBody(c, &body); err != nil {
		return nil
	}
	if body.SenderID == 0 {
		body.SenderID = userID
	}
	if body.SenderID != userID {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("You can only send friend requests as yourself"))
	}
	if body.ReceiverID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("receiver_id is required"))
	}

	req, err := s.friendRequests.Create(c.UserContext(), service.CreateFriendRequestInput{
		SenderID:   body.SenderID,
		ReceiverID: body.ReceiverID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "request": req})
}

// AcceptFriendRequest handles POST /api/friends/accept/:id
func (s *Server) AcceptFriendRequest(c *fiber.Ctx) error {
	requestID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	req, err := s.friendRequests.Accept(c.UserContext(), currentUserID(c), requestID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "request": req})
}

// RejectFriendRequest handles POST /api/friends/reject/:id. A sender
// rejecting their own request cancels it.
func (s *Server) RejectFriendRequest(c *fiber.Ctx) error {
	requestID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	req, err := s.friendRequests.Reject(c.UserContext(), currentUserID(c), requestID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "request": req})
}

// CancelFriendRequest handles POST /api/friends/cancel/:id
func (s *Server) CancelFriendRequest(c *fiber.Ctx) error {
	requestID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	req, err := s.friendRequests.Cancel(c.UserContext(), currentUserID(c), requestID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "request": req})
}

// RemoveFriendship handles DELETE /api/friends/remove
func (s *Server) RemoveFriendship(c *fiber.Ctx) error {
	var body removeFriendshipBody
	if err := s.parseBody(c, &body); err != nil {
		return nil
	}
	if body.UserID1 == 0 || body.UserID2 == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("user_id_1 and user_id_2 are required"))
	}
	removed, err := s.relationships.Unfriend(c.UserContext(), currentUserID(c), body.UserID1, body.UserID2)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "removed": removed})
}

// RemoveFriend handles DELETE /api/friends/:userId
func (s *Server) RemoveFriend(c *fiber.Ctx) error {
	otherID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	userID := currentUserID(c)
	removed, err := s.relationships.Unfriend(c.UserContext(), userID, userID, otherID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "removed": removed})
}

// CheckFriendship handles GET /api/friends/check/:id1/:id2
func (s *Server) CheckFriendship(c *fiber.Ctx) error {
	a, err := s.parseID(c, "id1")
	if err != nil {
		return nil
	}
	b, err := s.parseID(c, "id2")
	if err != nil {
		return nil
	}
	status, err := s.relationships.Check(c.UserContext(), a, b)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(status)
}

// ListFriends handles GET /api/friends/list/:userId
func (s *Server) ListFriends(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	friends, err := s.relationships.ListFriends(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(friends)
}

// ListPendingRequests handles GET /api/friends/requests/pending/:userId
func (s *Server) ListPendingRequests(c *fiber.Ctx) error {
	userID, err := s.requireSelf(c, "userId")
	if err != nil {
		return nil
	}
	requests, err := s.friendRequests.ListIncoming(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(requests)
}

// ListSentRequests handles GET /api/friends/requests/sent/:userId
func (s *Server) ListSentRequests(c *fiber.Ctx) error {
	userID, err := s.requireSelf(c, "userId")
	if err != nil {
		return nil
	}
	requests, err := s.friendRequests.ListOutgoing(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(requests)
}
