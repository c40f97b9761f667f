package http

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainerrors "github.com/wekeepgrowing/semo-billing/internal/domain/errors"
	"github.com/wekeepgrowing/semo-billing/internal/usecase"
)

// maxWebhookBodyBytes bounds the body read before signature verification
const maxWebhookBodyBytes = 65536

type WebhookHandler struct {
	stateMachine *usecase.WebhookStateMachine
	logger       *zap.Logger
}

func NewWebhookHandler(stateMachine *usecase.WebhookStateMachine, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		stateMachine: stateMachine,
		logger:       logger,
	}
}

// HandleWebhook handles POST /stripe-webhook. The body is verified byte for
// byte, so it is read raw instead of bound.
func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBodyBytes+1))
	if err != nil {
		h.logger.Error("Error reading webhook body", zap.Error(err))
		return domainerrors.NewValidationError("error reading request body")
	}
	if len(body) > maxWebhookBodyBytes {
		return domainerrors.NewValidationError("webhook body too large")
	}

	sig := c.Request().Header.Get("Stripe-Signature")
	if err := h.stateMachine.HandleWebhook(c.Request().Context(), body, sig); err != nil {
		h.logger.Warn("Webhook not accepted", zap.Error(err))
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
