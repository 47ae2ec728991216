package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/cache"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/config"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/db"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/logging"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/paygreen"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/services"
)

const (
	maxWebhookBodyBytes = 1 << 20 // 1 MB
	maxJSONBodyBytes    = 1 << 20
)

// Handlers provides the HTTP handlers for the storefront API.
type Handlers struct {
	config          *config.Config
	db              *pgxpool.Pool
	cacheProvider   cache.Provider
	paymentRouter   *PaymentEventRouter
	checkoutService *services.CheckoutService
	refundService   *services.RefundService
	orderService    *services.OrderService
	catalogService  *services.CatalogService
	authService     *services.AuthService
	adminService    *services.AdminService
	logger          *slog.Logger
}

type Dependencies struct {
	Config          *config.Config
	DB              *pgxpool.Pool
	CacheProvider   cache.Provider
	PaymentRouter   *PaymentEventRouter
	CheckoutService *services.CheckoutService
	RefundService   *services.RefundService
	OrderService    *services.OrderService
	CatalogService  *services.CatalogService
	AuthService     *services.AuthService
	AdminService    *services.AdminService
	Logger          *slog.Logger
}

func New(deps Dependencies) (*Handlers, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if deps.Config == nil {
		return nil, fmt.Errorf("handlers dependencies: config is required")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("handlers dependencies: db is required")
	}
	if deps.CacheProvider == nil {
		return nil, fmt.Errorf("handlers dependencies: cacheProvider is required")
	}
	if deps.PaymentRouter == nil {
		return nil, fmt.Errorf("handlers dependencies: paymentRouter is required")
	}
	if deps.CheckoutService == nil {
		return nil, fmt.Errorf("handlers dependencies: checkoutService is required")
	}
	if deps.RefundService == nil {
		return nil, fmt.Errorf("handlers dependencies: refundService is required")
	}
	if deps.OrderService == nil {
		return nil, fmt.Errorf("handlers dependencies: orderService is required")
	}
	if deps.CatalogService == nil {
		return nil, fmt.Errorf("handlers dependencies: catalogService is required")
	}
	if deps.AuthService == nil {
		return nil, fmt.Errorf("handlers dependencies: authService is required")
	}
	if deps.AdminService == nil {
		return nil, fmt.Errorf("handlers dependencies: adminService is required")
	}

	return &Handlers{
		config:          deps.Config,
		db:              deps.DB,
		cacheProvider:   deps.CacheProvider,
		paymentRouter:   deps.PaymentRouter,
		checkoutService: deps.CheckoutService,
		refundService:   deps.RefundService,
		orderService:    deps.OrderService,
		catalogService:  deps.CatalogService,
		authService:     deps.AuthService,
		adminService:    deps.AdminService,
		logger:          logger.With("component", "handlers"),
	}, nil
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	if err := h.db.Ping(ctx); err != nil {
		logger.Error("database health check failed", "error", err)
		http.Error(w, "Database unhealthy", http.StatusServiceUnavailable)
		return
	}

	h.respondJSON(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handlers) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, h.logger)
}

func (h *Handlers) respondJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.loggerFromContext(r.Context()).Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.respondJSON(w, r, status, map[string]string{"error": message})
}

// respondServiceError maps service-layer failures onto HTTP statuses.
// Internal detail is logged, never surfaced to the client.
func (h *Handlers) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	logger := h.loggerFromContext(r.Context())

	var validationErr *services.ValidationError
	var apiErr *paygreen.APIError
	switch {
	case errors.As(err, &validationErr):
		h.respondError(w, r, http.StatusBadRequest, validationErr.Message)
	case errors.Is(err, db.ErrNotFound), errors.Is(err, paygreen.ErrPaymentOrderNotFound):
		h.respondError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrInvalidCredentials):
		h.respondError(w, r, http.StatusUnauthorized, "invalid email or password")
	case errors.As(err, &apiErr):
		logger.Error("payment provider error", "status", apiErr.StatusCode, "error", err)
		h.respondJSON(w, r, http.StatusInternalServerError, map[string]string{
			"error":   "payment provider error",
			"details": apiErr.Message,
		})
	default:
		logger.Error("request failed", "error", err)
		h.respondError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON reads a JSON request body into dst with a size cap.
func (h *Handlers) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
