package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAuthRequired(t *testing.T) {
	secret := "test-secret-key-12345678901234567890123456789012"
	auth := NewAuthenticator(secret, "chirp-api")

	app := fiber.New()
	app.Get("/test", auth.Required, func(c *fiber.Ctx) error {
		userID, _ := UserID(c)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"userID": userID.Hex()})
	})

	userID := primitive.NewObjectID()
	valid, err := auth.IssueToken(userID, time.Hour)
	require.NoError(t, err)
	expired, err := auth.IssueToken(userID, -time.Hour)
	require.NoError(t, err)
	otherIssuer, err := NewAuthenticator(secret, "someone-else").IssueToken(userID, time.Hour)
	require.NoError(t, err)

	numericSub := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "123",
		"iss": "chirp-api",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	numeric, err := numericSub.SignedString([]byte(secret))
	require.NoError(t, err)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"Happy Path", "Bearer " + valid, http.StatusOK},
		{"Missing Header", "", http.StatusUnauthorized},
		{"Invalid Format", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"Malformed Token", "Bearer malformed.token.here", http.StatusUnauthorized},
		{"Expired Token", "Bearer " + expired, http.StatusUnauthorized},
		{"Wrong Issuer", "Bearer " + otherIssuer, http.StatusUnauthorized},
		{"Subject Not ObjectID", "Bearer " + numeric, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]string
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, userID.Hex(), body["userID"])
			}
		})
	}
}
