package middleware

import (
	"context"
	"strconv"
	"strings"

	"circle/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// AuthConfig selects how the caller's identity is established.
type AuthConfig struct {
	// JWTSecret verifies HS256 bearer tokens whose "sub" claim is the user ID.
	JWTSecret string
	// TrustedHeader, when set, is a header injected by an upstream
	// authenticating proxy that carries the user ID verbatim.
	TrustedHeader string
}

// AuthRequired resolves the acting user and stores it in c.Locals("userID")
// and the request context. Requests without a valid identity get 401.
func AuthRequired(cfg AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok, err := resolveUserID(c, cfg)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		c.Locals("userID", userID)
		ctx := context.WithValue(c.UserContext(), UserIDKey, userID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

func resolveUserID(c *fiber.Ctx, cfg AuthConfig) (uint, bool, error) {
	if cfg.TrustedHeader != "" {
		if raw := strings.TrimSpace(c.Get(cfg.TrustedHeader)); raw != "" {
			id, err := parseUserID(raw)
			if err != nil {
				return 0, false, models.NewUnauthorizedError("Invalid user ID in identity header")
			}
			return id, true, nil
		}
	}

	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return 0, false, nil
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, false, models.NewUnauthorizedError("Invalid authorization header format")
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, false, models.NewUnauthorizedError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false, models.NewUnauthorizedError("Invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, false, models.NewUnauthorizedError("Invalid subject claim")
	}

	id, err := parseUserID(sub)
	if err != nil {
		return 0, false, models.NewUnauthorizedError("Invalid user ID in token")
	}
	return id, true, nil
}

func parseUserID(raw string) (uint, error) {
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	if v == 0 {
		return 0, strconv.ErrRange
	}
	return uint(v), nil
}
