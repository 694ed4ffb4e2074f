package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func validClaims(userID uint, exp time.Duration, jti string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": TokenIssuer,
		"aud": TokenAudience,
		"exp": time.Now().Add(exp).Unix(),
		"jti": jti,
	}
}

func TestAuthRequired(t *testing.T) {
	revoked := func(_ context.Context, jti string) bool { return jti == "revoked-jti" }

	app := fiber.New()
	app.Get("/test", AuthRequired(testSecret, revoked), func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"userID": c.Locals("userID")})
	})

	wrongIssuer := validClaims(123, time.Hour, "a")
	wrongIssuer["iss"] = "someone-else"
	wrongAudience := validClaims(123, time.Hour, "b")
	wrongAudience["aud"] = "someone-else"
	zeroSubject := validClaims(0, time.Hour, "c")

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedUserID uint
	}{
		{
			name:           "Happy Path",
			authHeader:     "Bearer " + signToken(t, validClaims(123, time.Hour, "ok")),
			expectedStatus: http.StatusOK,
			expectedUserID: 123,
		},
		{name: "Missing Header", expectedStatus: http.StatusUnauthorized},
		{name: "Invalid Format", authHeader: "Basic dXNlcjpwYXNz", expectedStatus: http.StatusUnauthorized},
		{name: "Malformed Token", authHeader: "Bearer malformed.token.here", expectedStatus: http.StatusUnauthorized},
		{
			name:           "Expired Token",
			authHeader:     "Bearer " + signToken(t, validClaims(123, -time.Hour, "old")),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Revoked Token",
			authHeader:     "Bearer " + signToken(t, validClaims(123, time.Hour, "revoked-jti")),
			expectedStatus: http.StatusUnauthorized,
		},
		{name: "Wrong Issuer", authHeader: "Bearer " + signToken(t, wrongIssuer), expectedStatus: http.StatusUnauthorized},
		{name: "Wrong Audience", authHeader: "Bearer " + signToken(t, wrongAudience), expectedStatus: http.StatusUnauthorized},
		{name: "Zero Subject", authHeader: "Bearer " + signToken(t, zeroSubject), expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]interface{}
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, float64(tt.expectedUserID), body["userID"])
			}
		})
	}
}

func TestParseToken_ReturnsJTIAndExpiry(t *testing.T) {
	token := signToken(t, validClaims(42, time.Hour, "jti-42"))

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "jti-42", claims.JTI)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)

	_, err = ParseToken("another-secret-another-secret-12345", token)
	assert.Error(t, err)
}
