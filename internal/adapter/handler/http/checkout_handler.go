package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainerrors "github.com/wekeepgrowing/semo-billing/internal/domain/errors"
	"github.com/wekeepgrowing/semo-billing/internal/middleware/auth"
	"github.com/wekeepgrowing/semo-billing/internal/usecase"
	apperrors "github.com/wekeepgrowing/semo-billing/pkg/errors"
)

type CheckoutHandler struct {
	checkout *usecase.CheckoutService
	logger   *zap.Logger
}

func NewCheckoutHandler(checkout *usecase.CheckoutService, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		logger:   logger,
	}
}

type CreateCheckoutRequest struct {
	Price string `json:"price" validate:"required,max=255"`
	Offer int64  `json:"offer" validate:"required,gt=0"`
}

type CreateCheckoutResponse struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

// CreateCheckoutSession handles POST /create-checkout-session
func (h *CheckoutHandler) CreateCheckoutSession(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	var req CreateCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return domainerrors.NewValidationError("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	h.logger.Info("Creating checkout session",
		zap.Int64("user_id", user.UserID),
		zap.Int64("offer_id", req.Offer),
		zap.String("price_id", req.Price))

	sess, err := h.checkout.CreateCheckoutSession(c.Request().Context(), user.UserID, req.Offer, req.Price)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, CreateCheckoutResponse{
		ID:  sess.ID,
		URL: sess.URL,
	})
}

// CreatePortalSession handles GET /create-portal-session
func (h *CheckoutHandler) CreatePortalSession(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	sess, err := h.checkout.CreatePortalSession(c.Request().Context(), user.UserID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrSubscriptionNotFound) {
			return apperrors.NewAppError(apperrors.ErrNotFound, "subscription not found", nil)
		}
		return err
	}

	h.logger.Info("Portal session created",
		zap.Int64("user_id", user.UserID),
		zap.String("portal_session_id", sess.ID))

	return c.JSON(http.StatusOK, echo.Map{
		"url": sess.URL,
	})
}
