package agent

import (
	"net/http"

	"github.com/sebuszqo/PayBillsWithUs/internal/api"
	"go.uber.org/zap"
)

type Handler struct {
	agentService Service
	logger       *zap.Logger
	respondJSON  api.JSONResponder
	respondError api.ErrorResponder
}

func NewHandler(agentService Service, logger *zap.Logger, respondJSON api.JSONResponder, respondError api.ErrorResponder) *Handler {
	return &Handler{
		agentService: agentService,
		logger:       logger,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginInput
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.agentService.Authenticate(r.Context(), req)
	if err != nil {
		api.RespondServiceError(w, h.respondError, h.logger, err, "Failed to log in")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Agent login successful.",
		"token":   session.Token,
		"agent":   session.Agent,
	})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	agents, err := h.agentService.List(r.Context())
	if err != nil {
		api.RespondServiceError(w, h.respondError, h.logger, err, "Failed to retrieve agents")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Agents retrieved successfully.",
		"agents":  agents,
	})
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateInput
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	agent, err := h.agentService.Create(r.Context(), req)
	if err != nil {
		api.RespondServiceError(w, h.respondError, h.logger, err, "Failed to create agent")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Agent created successfully.",
		"agent":   agent,
	})
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	agentID, ok := api.PathUUID(r, "agentID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Agent not found")
		return
	}

	var req UpdateInput
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	agent, err := h.agentService.Update(r.Context(), agentID, req)
	if err != nil {
		api.RespondServiceError(w, h.respondError, h.logger, err, "Failed to update agent")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Agent updated successfully.",
		"agent":   agent,
	})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	agentID, ok := api.PathUUID(r, "agentID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Agent not found")
		return
	}

	if err := h.agentService.Delete(r.Context(), agentID); err != nil {
		api.RespondServiceError(w, h.respondError, h.logger, err, "Failed to delete agent")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Agent deleted successfully.",
	})
}

func (h *Handler) HandleAssignCustomer(w http.ResponseWriter, r *http.Request) {
	agentID, okAgent := api.PathUUID(r, "agentID")
	customerID, okCustomer := api.PathUUID(r, "customerID")
	if !okAgent || !okCustomer {
		h.respondError(w, http.StatusNotFound, "Agent or customer not found")
		return
	}

	if err := h.agentService.AssignCustomer(r.Context(), agentID, customerID); err != nil {
		api.RespondServiceError(w, h.respondError, h.logger, err, "Failed to assign customer")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Customer assigned to agent.",
	})
}

func (h *Handler) HandleUnassignCustomer(w http.ResponseWriter, r *http.Request) {
	agentID, okAgent := api.PathUUID(r, "agentID")
	customerID, okCustomer := api.PathUUID(r, "customerID")
	if !okAgent || !okCustomer {
		h.respondError(w, http.StatusNotFound, "Agent or customer not found")
		return
	}

	if err := h.agentService.UnassignCustomer(r.Context(), agentID, customerID); err != nil {
		api.RespondServiceError(w, h.respondError, h.logger, err, "Failed to unassign customer")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Customer unassigned from agent.",
	})
}
