package server

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"circle/internal/middleware"
	"circle/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Window holds parsed after_id/limit query parameters for ascending lists.
type Window struct {
	AfterID uint
	Limit   int
}

const (
	defaultWindowLimit = 50
	maxWindowLimit     = 200
)

// parseWindow extracts after_id and limit. Invalid values fall back to defaults.
func parseWindow(c *fiber.Ctx, afterParam string) Window {
	limit := c.QueryInt("limit", defaultWindowLimit)
	if limit <= 0 {
		limit = defaultWindowLimit
	}
	if limit > maxWindowLimit {
		limit = maxWindowLimit
	}
	return Window{AfterID: queryUint(c, afterParam), Limit: limit}
}

func queryUint(c *fiber.Ctx, name string) uint {
	v, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parseBody decodes the JSON body into out, writing a 400 on failure.
func (s *Server) parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// requireSelf parses a user ID parameter and rejects it with 403 unless it
// is the authenticated user.
func (s *Server) requireSelf(c *fiber.Ctx, param string) (uint, error) {
	userID, err := s.parseID(c, param)
	if err != nil {
		return 0, err
	}
	if userID != currentUserID(c) {
		_ = models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("You can only access your own data"))
		return 0, errResponseWritten
	}
	return userID, nil
}

func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

// respondError derives the status from the error code. Internal errors are
// logged with their cause; the client only sees a generic message.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		status = models.StatusForCode(appErr.Code)
	}
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, status, err)
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID", "id1" -> "ID".
func humanizeParam(param string) string {
	if param == "id" || strings.HasPrefix(param, "id") && isDigits(param[2:]) {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}
