package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"sharekindness/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDonation(t *testing.T) {
	ts := setupTestServer(t, 1)
	donor := ts.users[0]

	d := ts.createDonation(t, donor, 3)
	assert.Equal(t, donor.ID, d.DonorID)
	assert.Equal(t, models.CategoryClothes, d.Category)
	assert.Equal(t, models.DonationStatusAvailable, d.Status)
	assert.Equal(t, 3, d.Quantity)
}

func TestCreateDonation_Validation(t *testing.T) {
	ts := setupTestServer(t, 1)

	tests := []struct {
		name    string
		body    fiber.Map
		message string
	}{
		{"missing name", fiber.Map{"quantity": 1}, "item_name is required"},
		{"zero quantity", fiber.Map{"item_name": "Books", "quantity": 0}, "quantity is required"},
		{"negative quantity", fiber.Map{"item_name": "Books", "quantity": -2}, "quantity must be greater than 0"},
		{"unknown category", fiber.Map{"item_name": "Books", "quantity": 1, "category": "toys"}, "category is not a known category"},
		{"blank name", fiber.Map{"item_name": "   ", "quantity": 1}, "Item name is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ts.do(t, ts.users[0], http.MethodPost, "/api/donations", tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			e := decodeError(t, body)
			assert.Equal(t, models.CodeValidation, e.Code)
			assert.Equal(t, tt.message, e.Error)
		})
	}
}

func TestCreateDonation_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t, 0)

	status, _ := ts.do(t, nil, http.MethodPost, "/api/donations", fiber.Map{"item_name": "Books", "quantity": 1})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestListDonations(t *testing.T) {
	ts := setupTestServer(t, 1)
	donor := ts.users[0]

	ts.createDonation(t, donor, 1)
	status, body := ts.do(t, donor, http.MethodPost, "/api/donations", fiber.Map{
		"item_name": "Rice",
		"category":  "FOOD",
		"quantity":  10,
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = ts.do(t, nil, http.MethodGet, "/api/donations", nil)
	require.Equal(t, http.StatusOK, status)
	var all []models.Donation
	require.NoError(t, json.Unmarshal(body, &all))
	require.Len(t, all, 2)
	assert.Equal(t, "Rice", all[0].ItemName, "newest first")

	status, body = ts.do(t, nil, http.MethodGet, "/api/donations?category=food", nil)
	require.Equal(t, http.StatusOK, status)
	var food []models.Donation
	require.NoError(t, json.Unmarshal(body, &food))
	require.Len(t, food, 1)
	assert.Equal(t, models.CategoryFood, food[0].Category)

	status, _ = ts.do(t, nil, http.MethodGet, "/api/donations?category=toys", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestListDonations_EmptyIsArray(t *testing.T) {
	ts := setupTestServer(t, 0)

	status, body := ts.do(t, nil, http.MethodGet, "/api/donations", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))
}

func TestGetDonation(t *testing.T) {
	ts := setupTestServer(t, 1)
	d := ts.createDonation(t, ts.users[0], 2)

	status, body := ts.do(t, nil, http.MethodGet, fmt.Sprintf("/api/donations/%d", d.ID), nil)
	require.Equal(t, http.StatusOK, status)
	var got models.Donation
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, d.ID, got.ID)
	require.NotNil(t, got.Donor)
	assert.Equal(t, ts.users[0].Username, got.Donor.Username)

	status, body = ts.do(t, nil, http.MethodGet, "/api/donations/999", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, models.CodeNotFound, decodeError(t, body).Code)

	status, body = ts.do(t, nil, http.MethodGet, "/api/donations/abc", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid ID", decodeError(t, body).Error)
}

func TestWithdrawDonation(t *testing.T) {
	ts := setupTestServer(t, 3)
	donor, alice, bob := ts.users[0], ts.users[1], ts.users[2]
	d := ts.createDonation(t, donor, 2)
	r := ts.submitRequest(t, alice, d.ID, 1)
	ts.submitRequest(t, bob, d.ID, 1)

	status, body := ts.do(t, alice, http.MethodPost, fmt.Sprintf("/api/donations/%d/withdraw", d.ID), nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, models.CodeUnauthorized, decodeError(t, body).Code)

	status, body = ts.do(t, donor, http.MethodPost, fmt.Sprintf("/api/donations/%d/withdraw", d.ID), nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var withdrawn models.Donation
	require.NoError(t, json.Unmarshal(body, &withdrawn))
	assert.Equal(t, models.DonationStatusExpired, withdrawn.Status)

	status, body = ts.do(t, alice, http.MethodGet, fmt.Sprintf("/api/requests/%d", r.ID), nil)
	require.Equal(t, http.StatusOK, status)
	var got models.Request
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, models.RequestStatusRejected, got.Status)

	status, body = ts.do(t, donor, http.MethodPost, fmt.Sprintf("/api/donations/%d/withdraw", d.ID), nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, models.CodeDonationUnavailable, decodeError(t, body).Code)
}
