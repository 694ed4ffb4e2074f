package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"sharekindness/internal/cache"
	"sharekindness/internal/config"
	"sharekindness/internal/database"
	"sharekindness/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

type testServer struct {
	srv   *Server
	app   *fiber.App
	db    *gorm.DB
	mr    *miniredis.Miniredis
	users []*models.User
}

// setupTestServer wires a full Server over sqlite and miniredis with the
// given number of users.
func setupTestServer(t *testing.T, users int) *testServer {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() { cache.SetClient(nil) })

	cfg := &config.Config{
		JWTSecret:                testSecret,
		Env:                      "test",
		AllowedOrigins:           "http://localhost:5173",
		FeatureFlags:             "dashboard_cache=on",
		DashboardCacheTTLSeconds: 30,
		RequestCapacity:          5,
	}
	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)

	ts := &testServer{srv: srv, app: srv.newApp(), db: db, mr: mr}
	for i := 0; i < users; i++ {
		u := &models.User{
			Username: fmt.Sprintf("user%d", i),
			Email:    fmt.Sprintf("user%d@example.com", i),
			Password: "x",
		}
		require.NoError(t, db.Create(u).Error)
		ts.users = append(ts.users, u)
	}
	return ts
}

func (ts *testServer) token(t *testing.T, user *models.User) string {
	t.Helper()
	tok, err := ts.srv.generateToken(user.ID, user.Username)
	require.NoError(t, err)
	return tok
}

// do sends a request as user (nil for anonymous) and returns status and body.
func (ts *testServer) do(t *testing.T, user *models.User, method, path string, body any) (int, []byte) {
	t.Helper()

	var token string
	if user != nil {
		token = ts.token(t, user)
	}
	req := newAuthedRequest(method, path, token)
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		req.Body = io.NopCloser(bytes.NewReader(b))
		req.ContentLength = int64(len(b))
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func newAuthedRequest(method, path, token string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func (ts *testServer) createDonation(t *testing.T, donor *models.User, qty int) models.Donation {
	t.Helper()
	status, body := ts.do(t, donor, http.MethodPost, "/api/donations", fiber.Map{
		"item_name": "Winter coats",
		"category":  "clothes",
		"quantity":  qty,
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var d models.Donation
	require.NoError(t, json.Unmarshal(body, &d))
	return d
}

func (ts *testServer) submitRequest(t *testing.T, user *models.User, donationID uint, qty int) models.Request {
	t.Helper()
	status, body := ts.do(t, user, http.MethodPost, "/api/requests", fiber.Map{
		"donation_id":        donationID,
		"requested_quantity": qty,
		"comments":           "for my family",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var r models.Request
	require.NoError(t, json.Unmarshal(body, &r))
	return r
}

func decodeError(t *testing.T, body []byte) models.ErrorResponse {
	t.Helper()
	var e models.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	return e
}

func TestHealthChecks(t *testing.T) {
	ts := setupTestServer(t, 0)

	status, body := ts.do(t, nil, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"up"`)

	status, body = ts.do(t, nil, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, status, string(body))

	var ready struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(body, &ready))
	assert.Equal(t, "healthy", ready.Status)
	assert.Equal(t, "healthy", ready.Checks["redis"])
}

func TestReadinessCheck_RedisDown(t *testing.T) {
	ts := setupTestServer(t, 0)
	ts.mr.Close()

	status, body := ts.do(t, nil, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status, string(body))
	assert.Contains(t, string(body), `"unhealthy"`)
}

func TestUnknownRouteIs404(t *testing.T) {
	ts := setupTestServer(t, 0)

	status, _ := ts.do(t, nil, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestNewServerWithDeps_RequiresDB(t *testing.T) {
	_, err := NewServerWithDeps(&config.Config{}, nil, nil)
	assert.Error(t, err)
}
