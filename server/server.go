package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/config"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/handlers"
)

type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	handlers   *handlers.Handlers
	httpServer *http.Server
}

func New(cfg *config.Config, logger *slog.Logger, h *handlers.Handlers) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if h == nil {
		return nil, fmt.Errorf("handlers are required")
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		handlers: h,
	}

	router := s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return s, nil
}

func (s *Server) Run() error {
	s.logger.Info("server starting", "port", s.cfg.Port)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Close(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return nil
	}

	s.logger.Info("server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) buildRouter() *mux.Router {
	h := s.handlers

	r := mux.NewRouter()
	r.Use(h.RequestLogger)
	r.Use(h.SecurityHeaders)
	r.Use(h.Authenticate)
	r.Use(h.MetricsContext)

	r.HandleFunc("/health", h.Health).Methods("GET").Name("health")

	// Payment lifecycle. The webhook stays outside any auth middleware:
	// the gateway authenticates with its body signature.
	r.HandleFunc("/payment/create-order", h.CreatePaymentOrder).Methods("POST").Name("payment.create_order")
	r.HandleFunc("/payment/get-order/{id}", h.GetPaymentOrder).Methods("GET").Name("payment.get_order")
	r.Handle("/payment/refund", h.RequireAdmin(http.HandlerFunc(h.Refund))).Methods("POST").Name("payment.refund")
	r.HandleFunc("/payment/webhook", h.PayGreenWebhook).Methods("POST").Name("payment.webhook")
	r.HandleFunc("/orders/by-payment-id/{paymentId}", h.GetOrderByPaymentID).Methods("GET").Name("orders.by_payment_id")

	r.HandleFunc("/api/auth/register", h.Register).Methods("POST").Name("auth.register")
	r.HandleFunc("/api/auth/login", h.Login).Methods("POST").Name("auth.login")
	r.HandleFunc("/api/auth/me", h.Me).Methods("GET").Name("auth.me")

	r.HandleFunc("/api/products", h.ListProducts).Methods("GET").Name("products.list")
	r.HandleFunc("/api/products/{id}", h.GetProduct).Methods("GET").Name("products.get")
	r.HandleFunc("/api/categories", h.ListCategories).Methods("GET").Name("categories.list")
	r.HandleFunc("/api/categories/{slug}", h.GetCategory).Methods("GET").Name("categories.get")

	ordersRouter := r.PathPrefix("/api/orders").Subrouter()
	ordersRouter.Use(h.RequireAuth)
	ordersRouter.HandleFunc("", h.PlaceOrder).Methods("POST").Name("orders.place")
	ordersRouter.HandleFunc("", h.ListMyOrders).Methods("GET").Name("orders.list")
	ordersRouter.HandleFunc("/{id}", h.GetOrder).Methods("GET").Name("orders.get")

	adminRouter := r.PathPrefix("/api/admin").Subrouter()
	adminRouter.Use(h.RequireAdmin)
	adminRouter.HandleFunc("/orders", h.AdminListOrders).Methods("GET").Name("admin.orders.list")
	adminRouter.HandleFunc("/orders/{id}/status", h.AdminUpdateOrderStatus).Methods("PUT").Name("admin.orders.status")
	adminRouter.HandleFunc("/products", h.AdminListProducts).Methods("GET").Name("admin.products.list")
	adminRouter.HandleFunc("/products", h.AdminCreateProduct).Methods("POST").Name("admin.products.create")
	adminRouter.HandleFunc("/products/{id}", h.AdminUpdateProduct).Methods("PUT").Name("admin.products.update")
	adminRouter.HandleFunc("/products/{id}", h.AdminDeleteProduct).Methods("DELETE").Name("admin.products.delete")
	adminRouter.HandleFunc("/categories", h.AdminCreateCategory).Methods("POST").Name("admin.categories.create")
	adminRouter.HandleFunc("/users", h.AdminListUsers).Methods("GET").Name("admin.users.list")
	adminRouter.HandleFunc("/stats", h.AdminStats).Methods("GET").Name("admin.stats")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	})

	return r
}
