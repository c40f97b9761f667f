package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainerrors "github.com/wekeepgrowing/semo-billing/internal/domain/errors"
	"github.com/wekeepgrowing/semo-billing/internal/domain/event"
	"github.com/wekeepgrowing/semo-billing/internal/middleware/auth"
	"github.com/wekeepgrowing/semo-billing/internal/usecase"
)

// HeaderIdempotencyKey deduplicates billing events when eventId is absent from the body
const HeaderIdempotencyKey = "Idempotency-Key"

type BillingHandler struct {
	dispatcher *usecase.BillingEventDispatcher
	logger     *zap.Logger
}

func NewBillingHandler(dispatcher *usecase.BillingEventDispatcher, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

type billingEventRequest struct {
	EventID     string `json:"eventId" validate:"max=255"`
	Type        string `json:"type" validate:"required"`
	WorkspaceID *int64 `json:"workspaceId" validate:"omitempty,gt=0"`
	StorageSize *int64 `json:"storageSize"`
}

// HandleEvent handles POST /billing/event
func (h *BillingHandler) HandleEvent(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	var req billingEventRequest
	if err := c.Bind(&req); err != nil {
		return domainerrors.NewValidationError("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	eventID := req.EventID
	if eventID == "" {
		eventID = c.Request().Header.Get(HeaderIdempotencyKey)
	}

	h.logger.Debug("Billing event received",
		zap.String("type", req.Type),
		zap.Int64("user_id", user.UserID),
		zap.String("event_id", eventID))

	err = h.dispatcher.HandlePayload(c.Request().Context(), event.BillingPayload{
		EventID:     eventID,
		Type:        req.Type,
		WorkspaceID: req.WorkspaceID,
		StorageSize: req.StorageSize,
	}, user.UserID)
	if err != nil {
		return err
	}

	return c.NoContent(http.StatusOK)
}
