package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainerrors "github.com/wekeepgrowing/semo-billing/internal/domain/errors"
	"github.com/wekeepgrowing/semo-billing/internal/domain/model"
	"github.com/wekeepgrowing/semo-billing/internal/middleware/auth"
	"github.com/wekeepgrowing/semo-billing/internal/usecase"
)

type UsageHandler struct {
	usage  *usecase.UsageQueryService
	logger *zap.Logger
}

func NewUsageHandler(usage *usecase.UsageQueryService, logger *zap.Logger) *UsageHandler {
	return &UsageHandler{
		usage:  usage,
		logger: logger,
	}
}

type workspaceUsageRequest struct {
	WorkspaceID int64 `json:"workspaceId" validate:"required,gt=0"`
}

type offerLimits struct {
	Items model.OfferItems `json:"items"`
}

// usageResponse marshals to {} when nothing resolves
type usageResponse struct {
	Offer *offerLimits `json:"offer,omitempty"`
	Usage interface{}  `json:"usage,omitempty"`
}

// GetWorkspaceUsage handles GET /usage/workspace?workspaceId=
func (h *UsageHandler) GetWorkspaceUsage(c echo.Context) error {
	raw := c.QueryParam("workspaceId")
	if raw == "" {
		return domainerrors.NewValidationError("workspaceId is required")
	}
	workspaceID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || workspaceID <= 0 {
		return domainerrors.NewValidationError("workspaceId must be a positive integer")
	}
	return h.workspaceUsage(c, workspaceID)
}

// PostWorkspaceUsage handles POST /usage/workspace
func (h *UsageHandler) PostWorkspaceUsage(c echo.Context) error {
	var req workspaceUsageRequest
	if err := c.Bind(&req); err != nil {
		return domainerrors.NewValidationError("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	return h.workspaceUsage(c, req.WorkspaceID)
}

func (h *UsageHandler) workspaceUsage(c echo.Context, workspaceID int64) error {
	result, err := h.usage.GetWorkspaceUsageAndLimits(c.Request().Context(), workspaceID)
	if err != nil {
		h.logger.Error("Failed to get workspace usage",
			zap.Int64("workspace_id", workspaceID),
			zap.Error(err))
		return err
	}
	if result == nil {
		return c.JSON(http.StatusOK, usageResponse{})
	}

	return c.JSON(http.StatusOK, usageResponse{
		Offer: &offerLimits{Items: result.Offer.Items},
		Usage: result.Usage,
	})
}

// GetUserUsage handles GET and POST /usage/user
func (h *UsageHandler) GetUserUsage(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	result, err := h.usage.GetUserUsageAndLimits(c.Request().Context(), user.UserID)
	if err != nil {
		h.logger.Error("Failed to get user usage",
			zap.Int64("user_id", user.UserID),
			zap.Error(err))
		return err
	}
	if result == nil {
		return c.JSON(http.StatusOK, usageResponse{})
	}

	return c.JSON(http.StatusOK, usageResponse{
		Offer: &offerLimits{Items: result.Offer.Items},
		Usage: result.Usage,
	})
}
