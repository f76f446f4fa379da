package server

import (
	"github.com/gofiber/fiber/v2"
)

// ListNotifications handles GET /api/notifications/:userId?after_id=&limit=
func (s *Server) ListNotifications(c *fiber.Ctx) error {
	userID, err := s.requireSelf(c, "userId")
	if err != nil {
		return nil
	}
	w := parseWindow(c, "after_id")
	notifs, err := s.readState.ListNotifications(c.UserContext(), userID, w.AfterID, w.Limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(notifs)
}

// MarkNotificationRead handles PUT /api/notifications/:id/read
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	changed, err := s.readState.MarkNotificationRead(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "updated": changed})
}

// MarkAllNotificationsRead handles PUT /api/notifications/:userId/read-all
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	userID, err := s.requireSelf(c, "userId")
	if err != nil {
		return nil
	}
	changed, err := s.readState.MarkAllNotificationsRead(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "updated": changed})
}

// UnreadNotificationCount handles GET /api/notifications/:userId/unread-count
func (s *Server) UnreadNotificationCount(c *fiber.Ctx) error {
	userID, err := s.requireSelf(c, "userId")
	if err != nil {
		return nil
	}
	count, err := s.readState.UnreadNotificationCount(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}
