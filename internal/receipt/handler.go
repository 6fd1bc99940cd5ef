package receipt

import (
	"net/http"

	"github.com/sebuszqo/PayBillsWithUs/internal/api"
	"github.com/sebuszqo/PayBillsWithUs/internal/auth"
	"go.uber.org/zap"
)

type Handler struct {
	receiptService Service
	logger         *zap.Logger
	respondJSON    api.JSONResponder
	respondError   api.ErrorResponder
}

func NewHandler(receiptService Service, logger *zap.Logger, respondJSON api.JSONResponder, respondError api.ErrorResponder) *Handler {
	return &Handler{
		receiptService: receiptService,
		logger:         logger,
		respondJSON:    respondJSON,
		respondError:   respondError,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CustomerIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	history, err := h.receiptService.ListForCustomer(r.Context(), userID)
	if err != nil {
		api.RespondServiceError(w, h.respondError, h.logger, err, "Failed to retrieve receipts")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"message":   "Receipts retrieved successfully.",
		"receipts":  history.Receipts,
		"totalPaid": history.TotalPaid.StringFixed(2),
	})
}

func (h *Handler) HandleAdminTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.receiptService.Search(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		api.RespondServiceError(w, h.respondError, h.logger, err, "Failed to retrieve transactions")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "success",
		"message":      "Transactions retrieved successfully.",
		"transactions": transactions,
	})
}
