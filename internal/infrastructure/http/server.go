package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	handlers "github.com/wekeepgrowing/semo-billing/internal/adapter/handler/http"
	"github.com/wekeepgrowing/semo-billing/internal/config"
	"github.com/wekeepgrowing/semo-billing/internal/middleware/auth"
	"github.com/wekeepgrowing/semo-billing/internal/usecase"
	"github.com/wekeepgrowing/semo-billing/pkg/logger"
)

// Services are the use cases exposed over HTTP
type Services struct {
	Dispatcher    *usecase.BillingEventDispatcher
	StateMachine  *usecase.WebhookStateMachine
	Usage         *usecase.UsageQueryService
	Checkout      *usecase.CheckoutService
	Subscriptions *usecase.SubscriptionService
}

type Server struct {
	config   *config.Config
	logger   *zap.Logger
	echo     *echo.Echo
	services Services
	registry *prometheus.Registry
}

// NewServer builds the echo instance with middleware and routes. Request
// metrics are registered on registry and served from /metrics.
func NewServer(cfg *config.Config, log *zap.Logger, services Services, registry *prometheus.Registry) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewRequestValidator()
	logger.WithEchoLogger(e, log)

	// Middleware
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(logger.NewEchoRequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "billing",
		Registerer: registry,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health"
		},
	}))
	if cfg.Service.ClientURL != "" {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: []string{cfg.Service.ClientURL},
			AllowMethods: []string{http.MethodGet, http.MethodPost},
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, handlers.HeaderIdempotencyKey},
		}))
	}

	s := &Server{
		config:   cfg,
		logger:   log,
		echo:     e,
		services: services,
		registry: registry,
	}
	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	addr := s.config.Server.HTTP.Address()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})
	s.echo.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: s.registry,
	}))

	// Initialize handlers
	billingHandler := handlers.NewBillingHandler(s.services.Dispatcher, s.logger)
	webhookHandler := handlers.NewWebhookHandler(s.services.StateMachine, s.logger)
	usageHandler := handlers.NewUsageHandler(s.services.Usage, s.logger)
	checkoutHandler := handlers.NewCheckoutHandler(s.services.Checkout, s.logger)
	subscriptionHandler := handlers.NewSubscriptionHandler(s.services.Subscriptions, s.config.Stripe.PublishableKey, s.logger)

	// Public routes
	s.echo.GET("/offer", subscriptionHandler.GetOffers)
	s.echo.POST("/stripe-webhook", webhookHandler.HandleWebhook)

	// Protected routes (require JWT authentication)
	protected := s.echo.Group("", auth.JWTMiddleware(auth.JWTConfig{
		Secret:    s.config.JWT.Secret,
		UserClaim: s.config.JWT.UserClaim,
		Logger:    s.logger,
	}))

	protected.POST("/billing/event", billingHandler.HandleEvent)

	protected.GET("/usage/workspace", usageHandler.GetWorkspaceUsage)
	protected.POST("/usage/workspace", usageHandler.PostWorkspaceUsage)
	protected.GET("/usage/user", usageHandler.GetUserUsage)
	protected.POST("/usage/user", usageHandler.GetUserUsage)

	protected.POST("/create-checkout-session", checkoutHandler.CreateCheckoutSession)
	protected.GET("/create-portal-session", checkoutHandler.CreatePortalSession)
	protected.GET("/subscription", subscriptionHandler.GetSubscription)
}
