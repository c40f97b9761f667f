package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainerrors "github.com/wekeepgrowing/semo-billing/internal/domain/errors"
	"github.com/wekeepgrowing/semo-billing/internal/domain/model"
	"github.com/wekeepgrowing/semo-billing/internal/middleware/auth"
	"github.com/wekeepgrowing/semo-billing/internal/usecase"
	apperrors "github.com/wekeepgrowing/semo-billing/pkg/errors"
)

type SubscriptionHandler struct {
	subscriptions  *usecase.SubscriptionService
	publishableKey string
	logger         *zap.Logger
}

func NewSubscriptionHandler(subscriptions *usecase.SubscriptionService, publishableKey string, logger *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptions:  subscriptions,
		publishableKey: publishableKey,
		logger:         logger,
	}
}

type offersResponse struct {
	PublishableKey string        `json:"publishableKey"`
	Offers         []model.Offer `json:"offers"`
}

// GetOffers handles GET /offer
func (h *SubscriptionHandler) GetOffers(c echo.Context) error {
	offers, err := h.subscriptions.ListOffers(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to list offers", zap.Error(err))
		return err
	}
	if offers == nil {
		offers = []model.Offer{}
	}

	return c.JSON(http.StatusOK, offersResponse{
		PublishableKey: h.publishableKey,
		Offers:         offers,
	})
}

// GetSubscription handles GET /subscription
func (h *SubscriptionHandler) GetSubscription(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	sub, err := h.subscriptions.GetSubscription(c.Request().Context(), user.UserID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrSubscriptionNotFound) {
			return apperrors.NewAppError(apperrors.ErrNotFound, "subscription not found", nil)
		}
		return err
	}

	return c.JSON(http.StatusOK, sub)
}
