package server

import (
	"strings"

	"circle/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Sync handles GET /api/sync/:userId?notifications_after=&messages_after=&posts_after=&limit=&streams=
// streams is a comma separated subset of notifications, messages and posts.
func (s *Server) Sync(c *fiber.Ctx) error {
	userID, err := s.requireSelf(c, "userId")
	if err != nil {
		return nil
	}
	w := parseWindow(c, "notifications_after")
	res, err := s.sync.Sync(c.UserContext(), service.SyncInput{
		UserID: userID,
		After: service.Watermarks{
			Notifications: w.AfterID,
			Messages:      queryUint(c, "messages_after"),
			Posts:         queryUint(c, "posts_after"),
		},
		Limit:   w.Limit,
		Streams: splitList(c.Query("streams")),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
