package biller

import (
	"net/http"

	"github.com/sebuszqo/PayBillsWithUs/internal/api"
	"github.com/sebuszqo/PayBillsWithUs/internal/auth"
	"go.uber.org/zap"
)

type Handler struct {
	billerService Service
	logger        *zap.Logger
	respondJSON   api.JSONResponder
	respondError  api.ErrorResponder
}

func NewHandler(billerService Service, logger *zap.Logger, respondJSON api.JSONResponder, respondError api.ErrorResponder) *Handler {
	return &Handler{
		billerService: billerService,
		logger:        logger,
		respondJSON:   respondJSON,
		respondError:  respondError,
	}
}

// HandleList serves the signed-in customer's billers.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CustomerIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	billers, err := h.billerService.ListForCustomer(r.Context(), userID)
	if err != nil {
		api.RespondServiceError(w, h.respondError, h.logger, err, "Failed to retrieve billers")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Billers retrieved successfully.",
		"billers": billers,
	})
}

func (h *Handler) HandleAgentCreate(w http.ResponseWriter, r *http.Request) {
	customerID, ok := api.PathUUID(r, "customerID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Customer not found")
		return
	}

	var req CreateInput
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	biller, err := h.billerService.Create(r.Context(), customerID, req)
	if err != nil {
		api.RespondServiceError(w, h.respondError, h.logger, err, "Failed to create biller")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Biller created successfully.",
		"biller":  biller,
	})
}

func (h *Handler) HandleAgentUpdate(w http.ResponseWriter, r *http.Request) {
	customerID, okCustomer := api.PathUUID(r, "customerID")
	billerID, okBiller := api.PathUUID(r, "billerID")
	if !okCustomer || !okBiller {
		h.respondError(w, http.StatusNotFound, "Biller not found")
		return
	}

	var req UpdateInput
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	biller, err := h.billerService.Update(r.Context(), customerID, billerID, req)
	if err != nil {
		api.RespondServiceError(w, h.respondError, h.logger, err, "Failed to update biller")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Biller updated successfully.",
		"biller":  biller,
	})
}

func (h *Handler) HandleAgentDelete(w http.ResponseWriter, r *http.Request) {
	customerID, okCustomer := api.PathUUID(r, "customerID")
	billerID, okBiller := api.PathUUID(r, "billerID")
	if !okCustomer || !okBiller {
		h.respondError(w, http.StatusNotFound, "Biller not found")
		return
	}

	if err := h.billerService.Delete(r.Context(), customerID, billerID); err != nil {
		api.RespondServiceError(w, h.respondError, h.logger, err, "Failed to delete biller")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Biller deleted successfully.",
	})
}

// HandleAdminList serves every biller with its owner, filtered by the search query parameter.
func (h *Handler) HandleAdminList(w http.ResponseWriter, r *http.Request) {
	billers, err := h.billerService.ListWithOwners(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		api.RespondServiceError(w, h.respondError, h.logger, err, "Failed to retrieve billers")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Billers retrieved successfully.",
		"billers": billers,
	})
}
