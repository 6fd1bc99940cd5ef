package paymentmethod

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/sebuszqo/PayBillsWithUs/internal/api"
	"github.com/sebuszqo/PayBillsWithUs/internal/auth"
	"go.uber.org/zap"
)

// Handler serves both the customer's own routes and the agent routes nested under /customers/{customerID}.
type Handler struct {
	service      Service
	logger       *zap.Logger
	respondJSON  api.JSONResponder
	respondError api.ErrorResponder
}

func NewPaymentMethodHandler(service Service, logger *zap.Logger, respondJSON api.JSONResponder, respondError api.ErrorResponder) *Handler {
	if service == nil || respondJSON == nil || respondError == nil {
		panic("Service and response functions must not be nil")
	}
	return &Handler{
		service:      service,
		logger:       logger,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

// ownerID prefers the customer in the path (agent console) over the authenticated customer.
func (h *Handler) ownerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if id, ok := api.PathUUID(r, "customerID"); ok {
		return id, true
	}
	id, ok := auth.CustomerIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) methodID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := api.PathUUID(r, "paymentMethodID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Payment method not found")
	}
	return id, ok
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	views, err := h.service.List(r.Context(), customerID)
	if err != nil {
		api.RespondServiceError(w, h.respondError, h.logger, err, "Failed to retrieve payment methods")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "success",
		"message":        "Payment methods retrieved successfully.",
		"paymentMethods": views,
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	var req CreateInput
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	view, err := h.service.Create(r.Context(), customerID, req)
	if err != nil {
		api.RespondServiceError(w, h.respondError, h.logger, err, "Failed to create payment method")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":        "success",
		"message":       "Payment method successfully created.",
		"paymentMethod": view,
	})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}
	methodID, ok := h.methodID(w, r)
	if !ok {
		return
	}

	var req UpdateInput
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	view, err := h.service.Update(r.Context(), customerID, methodID, req)
	if err != nil {
		api.RespondServiceError(w, h.respondError, h.logger, err, "Failed to update payment method")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "success",
		"message":       "Payment method successfully updated.",
		"paymentMethod": view,
	})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}
	methodID, ok := h.methodID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), customerID, methodID); err != nil {
		api.RespondServiceError(w, h.respondError, h.logger, err, "Failed to delete payment method")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
