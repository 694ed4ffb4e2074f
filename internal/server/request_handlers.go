package server

import (
	"sharekindness/internal/models"
	"sharekindness/internal/service"
	"sharekindness/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// CreateRequest handles POST /api/requests
// @Summary Request a donation
// @Description Submit a PENDING request. Hitting the request cap closes the donation.
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body validation.CreateRequestInput true "Request"
// @Success 201 {object} models.Request
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /requests [post]
func (s *Server) CreateRequest(c *fiber.Ctx) error {
	return createHandler(nil, func(c *fiber.Ctx, in *validation.CreateRequestInput) (*models.Request, error) {
		return s.engine.SubmitRequest(c.UserContext(), currentUserID(c), in.DonationID, in.RequestedQuantity, in.Comments)
	})(c)
}

// ListMyRequests handles GET /api/requests
// @Summary List my requests
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Request
// @Router /requests [get]
func (s *Server) ListMyRequests(c *fiber.Ctx) error {
	return listHandler(func(c *fiber.Ctx) ([]models.Request, error) {
		return s.engine.ListUserRequests(c.UserContext(), currentUserID(c))
	})(c)
}

// GetRequest handles GET /api/requests/:id
// @Summary Get request
// @Description Visible to the requester and to the donation's donor
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Success 200 {object} models.Request
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /requests/{id} [get]
func (s *Server) GetRequest(c *fiber.Ctx) error {
	return detailHandler(s, s.engine.FindRequest, func(c *fiber.Ctx, req *models.Request) error {
		return service.CanViewRequest(currentUserID(c), req)
	})(c)
}

// ApproveRequest handles POST /api/requests/:id/approve
// @Summary Approve a request
// @Description Reserve the requested quantity and reject every other pending request
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Success 200 {object} models.Request
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /requests/{id}/approve [post]
func (s *Server) ApproveRequest(c *fiber.Ctx) error {
	return s.decide(c, models.DecisionApprove)
}

// RejectRequest handles POST /api/requests/:id/reject
// @Summary Reject a request
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Success 200 {object} models.Request
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /requests/{id}/reject [post]
func (s *Server) RejectRequest(c *fiber.Ctx) error {
	return s.decide(c, models.DecisionReject)
}

func (s *Server) decide(c *fiber.Ctx, action models.DecisionAction) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	req, err := s.engine.Decide(c.UserContext(), currentUserID(c), id, action)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(req)
}

// ClaimRequest handles POST /api/requests/:id/claim
// @Summary Claim an approved request
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Success 200 {object} models.Request
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /requests/{id}/claim [post]
func (s *Server) ClaimRequest(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	req, err := s.engine.Claim(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(req)
}
