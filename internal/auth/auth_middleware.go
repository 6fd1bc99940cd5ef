package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sebuszqo/PayBillsWithUs/internal/api"
	"go.uber.org/zap"
)

type contextKey struct{}

var principalKey contextKey

// CustomerLookup lets the guard reject tokens of customers that were removed after issue.
type CustomerLookup interface {
	CustomerExists(ctx context.Context, customerID string) (bool, error)
}

type Guard struct {
	tokens       TokenValidator
	customers    CustomerLookup
	respondError api.ErrorResponder
	logger       *zap.Logger
}

// NewGuard builds the role middlewares. customers may be nil.
func NewGuard(tokens TokenValidator, customers CustomerLookup, respondError api.ErrorResponder, logger *zap.Logger) *Guard {
	return &Guard{
		tokens:       tokens,
		customers:    customers,
		respondError: respondError,
		logger:       logger,
	}
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// CustomerIDFromContext returns the id of an authenticated customer.
func CustomerIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	p, ok := PrincipalFromContext(ctx)
	if !ok || p.Role != RoleCustomer {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(p.Subject)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (g *Guard) RequireCustomer(next http.Handler) http.Handler {
	return g.require(RoleCustomer, "Authorization header missing", "Invalid or expired token", next)
}

func (g *Guard) RequireAgent(next http.Handler) http.Handler {
	return g.require(RoleAgent, "Agent authorization required", "Invalid or expired agent token", next)
}

func (g *Guard) RequireAdmin(next http.Handler) http.Handler {
	return g.require(RoleAdmin, "Admin authorization required", "Invalid or expired admin token", next)
}

func (g *Guard) require(role Role, missingMsg, invalidMsg string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			g.respondError(w, http.StatusUnauthorized, missingMsg)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || tokenString == "" {
			g.respondError(w, http.StatusUnauthorized, invalidMsg)
			return
		}

		principal, err := g.tokens.Validate(tokenString)
		if err != nil {
			g.respondError(w, http.StatusUnauthorized, invalidMsg)
			return
		}

		if principal.Role != role {
			g.respondError(w, http.StatusForbidden, forbiddenMessage(role))
			return
		}

		if role == RoleCustomer && g.customers != nil {
			exists, err := g.customers.CustomerExists(r.Context(), principal.Subject)
			if err != nil {
				g.logger.Error("could not verify customer for token", zap.String("customer_id", principal.Subject), zap.Error(err))
				g.respondError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if !exists {
				g.respondError(w, http.StatusUnauthorized, invalidMsg)
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), *principal)))
	})
}

func forbiddenMessage(role Role) string {
	switch role {
	case RoleAdmin:
		return "Admin credentials required"
	case RoleAgent:
		return "Agent credentials required"
	default:
		return "Customer credentials required"
	}
}
