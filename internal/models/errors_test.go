package models

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		err         error
		wantError   string
		wantCode    string
		wantDetails string
	}{
		{
			name:      "internal cause stays server side",
			status:    fiber.StatusInternalServerError,
			err:       NewInternalError(errors.New(`ERROR: relation "friend_requests" does not exist (SQLSTATE 42P01)`)),
			wantError: "Internal server error",
			wantCode:  CodeInternal,
		},
		{
			name:      "plain error on a 500",
			status:    fiber.StatusInternalServerError,
			err:       errors.New("dial tcp 10.0.0.5:5432: connection refused"),
			wantError: "Internal server error",
			wantCode:  CodeInternal,
		},
		{
			name:        "client error keeps its details",
			status:      fiber.StatusBadRequest,
			err:         &AppError{Code: CodeValidation, Message: "Invalid body", Err: errors.New("unexpected end of JSON input")},
			wantError:   "Invalid body",
			wantCode:    CodeValidation,
			wantDetails: "unexpected end of JSON input",
		},
		{
			name:      "conflict",
			status:    fiber.StatusConflict,
			err:       ErrAlreadyFriends,
			wantError: ErrAlreadyFriends.Message,
			wantCode:  CodeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return RespondWithError(c, tt.status, tt.err)
			})

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantError, body.Error)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, tt.wantDetails, body.Details)
		})
	}
}
