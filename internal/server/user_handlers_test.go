package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"sharekindness/internal/cache"
	"sharekindness/internal/featureflags"
	"sharekindness/internal/models"
	"sharekindness/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMyProfile_Roles(t *testing.T) {
	ts := setupTestServer(t, 3)
	donor, requester, idle := ts.users[0], ts.users[1], ts.users[2]
	d := ts.createDonation(t, donor, 1)
	ts.submitRequest(t, requester, d.ID, 1)

	tests := []struct {
		name  string
		user  *models.User
		roles models.UserRoles
	}{
		{"donor", donor, models.UserRoles{IsDonor: true}},
		{"recipient", requester, models.UserRoles{IsRecipient: true}},
		{"neither", idle, models.UserRoles{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ts.do(t, tt.user, http.MethodGet, "/api/users/me", nil)
			require.Equal(t, http.StatusOK, status, string(body))

			var profile struct {
				ID       uint             `json:"id"`
				Username string           `json:"username"`
				Password string           `json:"password"`
				Roles    models.UserRoles `json:"roles"`
			}
			require.NoError(t, json.Unmarshal(body, &profile))
			assert.Equal(t, tt.user.ID, profile.ID)
			assert.Equal(t, tt.user.Username, profile.Username)
			assert.Empty(t, profile.Password)
			assert.Equal(t, tt.roles, profile.Roles)
		})
	}
}

func TestGetDashboard(t *testing.T) {
	ts := setupTestServer(t, 2)
	donor, requester := ts.users[0], ts.users[1]
	d := ts.createDonation(t, donor, 2)
	ts.submitRequest(t, requester, d.ID, 1)

	status, body := ts.do(t, donor, http.MethodGet, "/api/users/me/dashboard", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var dash service.Dashboard
	require.NoError(t, json.Unmarshal(body, &dash))
	require.Len(t, dash.Donations, 1)
	require.Len(t, dash.Donations[0].Requests, 1)
	require.NotNil(t, dash.Donations[0].Requests[0].User)
	assert.Equal(t, requester.Username, dash.Donations[0].Requests[0].User.Username)
	assert.Empty(t, dash.Requests)
	assert.Equal(t, models.UserRoles{IsDonor: true}, dash.Roles)

	status, body = ts.do(t, requester, http.MethodGet, "/api/users/me/dashboard", nil)
	require.Equal(t, http.StatusOK, status)
	dash = service.Dashboard{}
	require.NoError(t, json.Unmarshal(body, &dash))
	assert.Empty(t, dash.Donations)
	require.Len(t, dash.Requests, 1)
	require.NotNil(t, dash.Requests[0].Donation)
	assert.Equal(t, d.ID, dash.Requests[0].Donation.ID)
	assert.Equal(t, models.UserRoles{IsRecipient: true}, dash.Roles)
}

func TestGetDashboard_CachedUntilAllocationEvent(t *testing.T) {
	ts := setupTestServer(t, 2)
	donor, requester := ts.users[0], ts.users[1]
	d := ts.createDonation(t, donor, 2)

	status, _ := ts.do(t, donor, http.MethodGet, "/api/users/me/dashboard", nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, ts.mr.Exists(cache.DashboardKey(donor.ID)))

	ts.submitRequest(t, requester, d.ID, 1)
	assert.False(t, ts.mr.Exists(cache.DashboardKey(donor.ID)), "submit must drop the donor's cached dashboard")

	status, body := ts.do(t, donor, http.MethodGet, "/api/users/me/dashboard", nil)
	require.Equal(t, http.StatusOK, status)
	var dash service.Dashboard
	require.NoError(t, json.Unmarshal(body, &dash))
	require.Len(t, dash.Donations, 1)
	assert.Len(t, dash.Donations[0].Requests, 1)
}

func TestGetDashboard_CacheFlagOff(t *testing.T) {
	ts := setupTestServer(t, 1)
	ts.srv.featureFlags = featureflags.NewManager("dashboard_cache=off")

	status, _ := ts.do(t, ts.users[0], http.MethodGet, "/api/users/me/dashboard", nil)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, ts.mr.Exists(cache.DashboardKey(ts.users[0].ID)))
}

func TestPostDashboardDecision(t *testing.T) {
	ts := setupTestServer(t, 3)
	donor, alice, bob := ts.users[0], ts.users[1], ts.users[2]
	d := ts.createDonation(t, donor, 1)
	ra := ts.submitRequest(t, alice, d.ID, 1)
	rb := ts.submitRequest(t, bob, d.ID, 1)

	status, body := ts.do(t, donor, http.MethodPost, "/api/users/me/dashboard", fiber.Map{
		"action":     "hold",
		"request_id": ra.ID,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "action must be one of: approve reject", decodeError(t, body).Error)

	status, body = ts.do(t, donor, http.MethodPost, "/api/users/me/dashboard", fiber.Map{
		"action":     "approve",
		"request_id": ra.ID,
	})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, models.RequestStatusRejected, ts.getRequest(t, bob, rb.ID).Status)

	status, body = ts.do(t, nil, http.MethodGet, fmt.Sprintf("/api/donations/%d", d.ID), nil)
	require.Equal(t, http.StatusOK, status)
	var closed models.Donation
	require.NoError(t, json.Unmarshal(body, &closed))
	assert.Equal(t, models.DonationStatusClosed, closed.Status)
	assert.Zero(t, closed.Quantity)
}

func TestGetNotifications(t *testing.T) {
	ts := setupTestServer(t, 3)
	donor, alice, bob := ts.users[0], ts.users[1], ts.users[2]
	d := ts.createDonation(t, donor, 2)
	ra := ts.submitRequest(t, alice, d.ID, 1)
	ts.submitRequest(t, bob, d.ID, 1)

	counts := func(u *models.User) service.NotificationCounts {
		status, body := ts.do(t, u, http.MethodGet, "/api/users/me/notifications", nil)
		require.Equal(t, http.StatusOK, status, string(body))
		var c service.NotificationCounts
		require.NoError(t, json.Unmarshal(body, &c))
		return c
	}

	assert.Equal(t, service.NotificationCounts{PendingRequests: 2}, counts(donor))
	assert.Equal(t, service.NotificationCounts{PendingDonations: 1}, counts(alice))

	status, _ := ts.do(t, donor, http.MethodPost, fmt.Sprintf("/api/requests/%d/reject", ra.ID), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, service.NotificationCounts{PendingRequests: 1}, counts(donor))
	assert.Equal(t, service.NotificationCounts{}, counts(alice))
}

func TestGetFeatureFlags(t *testing.T) {
	ts := setupTestServer(t, 1)

	status, body := ts.do(t, ts.users[0], http.MethodGet, "/api/feature-flags", nil)
	require.Equal(t, http.StatusOK, status)

	var flags struct {
		Raw       map[string]string `json:"raw"`
		Evaluated map[string]bool   `json:"evaluated"`
	}
	require.NoError(t, json.Unmarshal(body, &flags))
	assert.Equal(t, "on", flags.Raw["dashboard_cache"])
	assert.True(t, flags.Evaluated["dashboard_cache"])
}
