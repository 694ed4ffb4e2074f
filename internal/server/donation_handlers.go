package server

import (
	"strings"

	"sharekindness/internal/models"
	"sharekindness/internal/repository"
	"sharekindness/internal/service"
	"sharekindness/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ListDonations handles GET /api/donations
// @Summary List donations
// @Description List AVAILABLE donations, newest first, optionally filtered by category
// @Tags donations
// @Produce json
// @Param category query string false "Donation category"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset"
// @Success 200 {array} models.Donation
// @Failure 400 {object} models.ErrorResponse
// @Router /donations [get]
func (s *Server) ListDonations(c *fiber.Ctx) error {
	return listHandler(func(c *fiber.Ctx) ([]models.Donation, error) {
		page := parsePagination(c, 20)
		return s.engine.ListDonations(c.UserContext(), repository.DonationFilter{
			Category: models.DonationCategory(strings.ToUpper(strings.TrimSpace(c.Query("category")))),
			Limit:    page.Limit,
			Offset:   page.Offset,
		})
	})(c)
}

// GetDonation handles GET /api/donations/:id
// @Summary Get donation
// @Tags donations
// @Produce json
// @Param id path int true "Donation ID"
// @Success 200 {object} models.Donation
// @Failure 404 {object} models.ErrorResponse
// @Router /donations/{id} [get]
func (s *Server) GetDonation(c *fiber.Ctx) error {
	return detailHandler(s, s.engine.GetDonation, nil)(c)
}

// CreateDonation handles POST /api/donations
// @Summary Offer a donation
// @Tags donations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body validation.CreateDonationInput true "Donation"
// @Success 201 {object} models.Donation
// @Failure 400 {object} models.ErrorResponse
// @Router /donations [post]
func (s *Server) CreateDonation(c *fiber.Ctx) error {
	return createHandler(validateDonationInput, func(c *fiber.Ctx, in *validation.CreateDonationInput) (*models.Donation, error) {
		return s.engine.CreateDonation(c.UserContext(), currentUserID(c), service.DonationInput{
			ItemName:    in.ItemName,
			Description: in.Description,
			Category:    models.DonationCategory(in.Category),
			Quantity:    in.Quantity,
			ImageURL:    in.ImageURL,
		})
	})(c)
}

// validateDonationInput normalizes the category and refuses a blank item name.
func validateDonationInput(_ *fiber.Ctx, in *validation.CreateDonationInput) error {
	in.Category = strings.ToUpper(strings.TrimSpace(in.Category))
	if strings.TrimSpace(in.ItemName) == "" {
		return models.NewValidationError("Item name is required")
	}
	return nil
}

// WithdrawDonation handles POST /api/donations/:id/withdraw
// @Summary Withdraw a donation
// @Description Expire an open donation and reject its pending requests
// @Tags donations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Donation ID"
// @Success 200 {object} models.Donation
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /donations/{id}/withdraw [post]
func (s *Server) WithdrawDonation(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	donation, err := s.engine.WithdrawDonation(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(donation)
}
