package main

import (
	"context"
	"net/http"
	"time"

	"github.com/sebuszqo/PayBillsWithUs/internal/agent"
	"github.com/sebuszqo/PayBillsWithUs/internal/api"
	"github.com/sebuszqo/PayBillsWithUs/internal/auth"
	"github.com/sebuszqo/PayBillsWithUs/internal/biller"
	"github.com/sebuszqo/PayBillsWithUs/internal/config"
	"github.com/sebuszqo/PayBillsWithUs/internal/customer"
	"github.com/sebuszqo/PayBillsWithUs/internal/logging"
	"github.com/sebuszqo/PayBillsWithUs/internal/paymentmethod"
	"github.com/sebuszqo/PayBillsWithUs/internal/receipt"
	"github.com/sebuszqo/PayBillsWithUs/internal/user"
	"go.uber.org/zap"
)

const readyTimeout = 2 * time.Second

// Dependencies are the collaborators the router is assembled from.
type Dependencies struct {
	Guard   *auth.Guard
	Limiter *auth.RateLimiter
	Health  func(ctx context.Context) map[string]string

	UserHandler          *user.Handler
	AdminHandler         *auth.Handler
	AgentHandler         *agent.Handler
	CustomerHandler      *customer.Handler
	BillerHandler        *biller.Handler
	ReceiptHandler       *receipt.Handler
	PaymentMethodHandler *paymentmethod.Handler
}

type Server struct {
	router http.Handler
	cfg    *config.Config
	logger *zap.Logger
	Dependencies
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Dependencies) *Server {
	return &Server{
		cfg:          cfg,
		logger:       logger,
		Dependencies: deps,
		router:       http.NotFoundHandler(),
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	api.RespondError(w, http.StatusNotFound, "Path not found")
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	stats := s.Health(ctx)
	if stats["status"] != "up" {
		s.logger.Warn("readiness check failed", zap.String("error", stats["error"]))
		api.RespondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":   "unavailable",
			"database": "down",
		})
		return
	}
	api.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ready",
		"database": stats,
	})
}

func (s *Server) RegisterRoutes() {
	limit := s.Limiter.Middleware(api.RespondError)
	withIDs := func(h http.HandlerFunc, params ...string) http.Handler {
		return api.ValidatePathUUIDs(api.RespondError, h, params...)
	}

	// Public and customer routes
	apiRoutes := http.NewServeMux()
	apiRoutes.Handle("GET /api/ready", http.HandlerFunc(s.handleReady))
	apiRoutes.Handle("POST /api/auth/register", http.HandlerFunc(s.UserHandler.HandleRegister))
	apiRoutes.Handle("POST /api/auth/login", limit(http.HandlerFunc(s.UserHandler.HandleLogin)))
	apiRoutes.Handle("POST /api/auth/forgot-password", limit(http.HandlerFunc(s.UserHandler.HandleForgotPassword)))
	apiRoutes.Handle("POST /api/auth/reset-password", limit(http.HandlerFunc(s.UserHandler.HandleResetPassword)))

	customerOnly := s.Guard.RequireCustomer
	apiRoutes.Handle("GET /api/auth/profile", customerOnly(http.HandlerFunc(s.UserHandler.HandleGetProfile)))
	apiRoutes.Handle("PATCH /api/auth/profile", customerOnly(http.HandlerFunc(s.UserHandler.HandleUpdateProfile)))
	apiRoutes.Handle("POST /api/auth/change-password", customerOnly(http.HandlerFunc(s.UserHandler.HandleChangePassword)))

	apiRoutes.Handle("GET /api/payment-methods", customerOnly(http.HandlerFunc(s.PaymentMethodHandler.List)))
	apiRoutes.Handle("POST /api/payment-methods", customerOnly(http.HandlerFunc(s.PaymentMethodHandler.Create)))
	apiRoutes.Handle("PATCH /api/payment-methods/{paymentMethodID}",
		customerOnly(withIDs(s.PaymentMethodHandler.Update, "paymentMethodID")))
	apiRoutes.Handle("DELETE /api/payment-methods/{paymentMethodID}",
		customerOnly(withIDs(s.PaymentMethodHandler.Delete, "paymentMethodID")))

	apiRoutes.Handle("GET /api/billers", customerOnly(http.HandlerFunc(s.BillerHandler.HandleList)))
	apiRoutes.Handle("GET /api/receipts", customerOnly(http.HandlerFunc(s.ReceiptHandler.HandleList)))
	apiRoutes.Handle("/api/", http.HandlerFunc(notFoundHandler))

	// Agent console, reachable only from approved hosts
	agentOnly := s.Guard.RequireAgent
	agentRoutes := http.NewServeMux()
	agentRoutes.Handle("POST /api/agent/login", limit(http.HandlerFunc(s.AgentHandler.HandleLogin)))
	agentRoutes.Handle("GET /api/agent/customers", agentOnly(http.HandlerFunc(s.CustomerHandler.HandleSearch)))
	agentRoutes.Handle("GET /api/agent/customers/{customerID}",
		agentOnly(withIDs(s.CustomerHandler.HandleDetail, "customerID")))

	agentRoutes.Handle("POST /api/agent/customers/{customerID}/billers",
		agentOnly(withIDs(s.BillerHandler.HandleAgentCreate, "customerID")))
	agentRoutes.Handle("PUT /api/agent/customers/{customerID}/billers/{billerID}",
		agentOnly(withIDs(s.BillerHandler.HandleAgentUpdate, "customerID", "billerID")))
	agentRoutes.Handle("DELETE /api/agent/customers/{customerID}/billers/{billerID}",
		agentOnly(withIDs(s.BillerHandler.HandleAgentDelete, "customerID", "billerID")))

	agentRoutes.Handle("GET /api/agent/customers/{customerID}/payment-methods",
		agentOnly(withIDs(s.PaymentMethodHandler.List, "customerID")))
	agentRoutes.Handle("POST /api/agent/customers/{customerID}/payment-methods",
		agentOnly(withIDs(s.PaymentMethodHandler.Create, "customerID")))
	agentRoutes.Handle("PUT /api/agent/customers/{customerID}/payment-methods/{paymentMethodID}",
		agentOnly(withIDs(s.PaymentMethodHandler.Update, "customerID", "paymentMethodID")))
	agentRoutes.Handle("DELETE /api/agent/customers/{customerID}/payment-methods/{paymentMethodID}",
		agentOnly(withIDs(s.PaymentMethodHandler.Delete, "customerID", "paymentMethodID")))
	agentRoutes.Handle("/api/agent/", http.HandlerFunc(notFoundHandler))

	// Admin console, reachable only from approved hosts
	adminOnly := s.Guard.RequireAdmin
	adminRoutes := http.NewServeMux()
	adminRoutes.Handle("POST /api/admin/login", limit(http.HandlerFunc(s.AdminHandler.HandleAdminLogin)))
	adminRoutes.Handle("GET /api/admin/agents", adminOnly(http.HandlerFunc(s.AgentHandler.HandleList)))
	adminRoutes.Handle("POST /api/admin/agents", adminOnly(http.HandlerFunc(s.AgentHandler.HandleCreate)))
	adminRoutes.Handle("PUT /api/admin/agents/{agentID}",
		adminOnly(withIDs(s.AgentHandler.HandleUpdate, "agentID")))
	adminRoutes.Handle("DELETE /api/admin/agents/{agentID}",
		adminOnly(withIDs(s.AgentHandler.HandleDelete, "agentID")))
	adminRoutes.Handle("POST /api/admin/agents/{agentID}/customers/{customerID}",
		adminOnly(withIDs(s.AgentHandler.HandleAssignCustomer, "agentID", "customerID")))
	adminRoutes.Handle("DELETE /api/admin/agents/{agentID}/customers/{customerID}",
		adminOnly(withIDs(s.AgentHandler.HandleUnassignCustomer, "agentID", "customerID")))

	adminRoutes.Handle("GET /api/admin/customers", adminOnly(http.HandlerFunc(s.CustomerHandler.HandleSearch)))
	adminRoutes.Handle("GET /api/admin/customers/{customerID}",
		adminOnly(withIDs(s.CustomerHandler.HandleDetail, "customerID")))
	adminRoutes.Handle("GET /api/admin/transactions", adminOnly(http.HandlerFunc(s.ReceiptHandler.HandleAdminTransactions)))
	adminRoutes.Handle("GET /api/admin/billers", adminOnly(http.HandlerFunc(s.BillerHandler.HandleAdminList)))
	adminRoutes.Handle("/api/admin/", http.HandlerFunc(notFoundHandler))

	// Main router
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/api/", apiRoutes)
	mainRouter.Handle("/api/agent/", auth.RequireApprovedHost(s.cfg.AgentAllowedHosts, api.RespondError)(agentRoutes))
	mainRouter.Handle("/api/admin/", auth.RequireApprovedHost(s.cfg.AdminAllowedHosts, api.RespondError)(adminRoutes))
	mainRouter.Handle("/", http.HandlerFunc(notFoundHandler))

	s.router = api.CORS(s.cfg.ClientOrigin)(logging.Middleware(s.logger)(mainRouter))
}
