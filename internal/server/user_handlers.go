package server

import (
	"time"

	"sharekindness/internal/cache"
	"sharekindness/internal/featureflags"
	"sharekindness/internal/models"
	"sharekindness/internal/service"
	"sharekindness/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ProfileResponse is the caller's profile with roles derived from activity.
type ProfileResponse struct {
	*models.User
	Roles models.UserRoles `json:"roles"`
}

// GetMyProfile handles GET /api/users/me
// @Summary Current user profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ProfileResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)

	user, err := s.userRepo.GetByID(c.UserContext(), userID)
	if err != nil {
		return respondAppError(c, err)
	}
	roles, err := s.engine.UserRoles(c.UserContext(), userID)
	if err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(ProfileResponse{User: user, Roles: roles})
}

// GetDashboard handles GET /api/users/me/dashboard
// @Summary User dashboard
// @Description The caller's donations with their requests, and the caller's own requests
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Dashboard
// @Router /users/me/dashboard [get]
func (s *Server) GetDashboard(c *fiber.Ctx) error {
	userID := currentUserID(c)
	ctx := c.UserContext()

	var dashboard service.Dashboard
	load := func() error {
		d, err := s.engine.ListUserDashboard(ctx, userID)
		if err != nil {
			return err
		}
		dashboard = *d
		return nil
	}

	var err error
	if s.featureFlags.Enabled(featureflags.DashboardCache, userID) && s.config.DashboardCacheTTLSeconds > 0 {
		ttl := time.Duration(s.config.DashboardCacheTTLSeconds) * time.Second
		err = cache.Aside(ctx, cache.DashboardKey(userID), &dashboard, ttl, load)
	} else {
		err = load()
	}
	if err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(dashboard)
}

// PostDashboardDecision handles POST /api/users/me/dashboard
// @Summary Decide a request from the dashboard
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body validation.DashboardDecisionInput true "Decision"
// @Success 200 {object} models.Request
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /users/me/dashboard [post]
func (s *Server) PostDashboardDecision(c *fiber.Ctx) error {
	var req validation.DashboardDecisionInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	decided, err := s.engine.Decide(c.UserContext(), currentUserID(c), req.RequestID, models.DecisionAction(req.Action))
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(decided)
}

// GetNotifications handles GET /api/users/me/notifications
// @Summary Pending counts
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.NotificationCounts
// @Router /users/me/notifications [get]
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	counts, err := s.engine.NotificationCounts(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(counts)
}
