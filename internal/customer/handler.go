package customer

import (
	"net/http"

	"github.com/sebuszqo/PayBillsWithUs/internal/api"
	"go.uber.org/zap"
)

// Handler serves the customer lookups shared by the agent and admin consoles.
type Handler struct {
	customerService Service
	logger          *zap.Logger
	respondJSON     api.JSONResponder
	respondError    api.ErrorResponder
}

func NewHandler(customerService Service, logger *zap.Logger, respondJSON api.JSONResponder, respondError api.ErrorResponder) *Handler {
	return &Handler{
		customerService: customerService,
		logger:          logger,
		respondJSON:     respondJSON,
		respondError:    respondError,
	}
}

func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customerService.Search(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		api.RespondServiceError(w, h.respondError, h.logger, err, "Failed to search customers")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"message":   "Customers retrieved successfully.",
		"customers": customers,
	})
}

func (h *Handler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	customerID, ok := api.PathUUID(r, "customerID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Customer not found")
		return
	}

	detail, err := h.customerService.Detail(r.Context(), customerID)
	if err != nil {
		api.RespondServiceError(w, h.respondError, h.logger, err, "Failed to retrieve customer")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "success",
		"message":  "Customer retrieved successfully.",
		"customer": detail,
	})
}
