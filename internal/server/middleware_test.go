package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"sharekindness/internal/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_AuthRequired(t *testing.T) {
	ts := setupTestServer(t, 1)

	status, body := ts.do(t, ts.users[0], http.MethodGet, "/api/users/me", nil)
	assert.Equal(t, http.StatusOK, status, string(body))

	status, _ = ts.do(t, nil, http.MethodGet, "/api/users/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLogout_RevokesToken(t *testing.T) {
	ts := setupTestServer(t, 1)
	token := ts.token(t, ts.users[0])
	claims, err := middleware.ParseToken(testSecret, token)
	require.NoError(t, err)

	call := func(method, path string) int {
		req := newAuthedRequest(method, path, token)
		resp, err := ts.app.Test(req, -1)
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, call(http.MethodGet, "/api/users/me"))
	assert.Equal(t, http.StatusOK, call(http.MethodPost, "/api/auth/logout"))

	assert.True(t, ts.mr.Exists(blacklistKey(claims.JTI)))
	ttl := ts.mr.TTL(blacklistKey(claims.JTI))
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, tokenLifetime)

	assert.Equal(t, http.StatusUnauthorized, call(http.MethodGet, "/api/users/me"))

	// other sessions of the same user stay valid
	status, _ := ts.do(t, ts.users[0], http.MethodGet, "/api/users/me", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestIsRevoked_WithoutRedis(t *testing.T) {
	s := &Server{}
	assert.False(t, s.isRevoked(context.Background(), "any"))
}
