package auth

import (
	"net/http"

	"github.com/sebuszqo/PayBillsWithUs/internal/api"
	"go.uber.org/zap"
)

type Handler struct {
	adminService AdminService
	logger       *zap.Logger
	respondJSON  api.JSONResponder
	respondError api.ErrorResponder
}

func NewHandler(adminService AdminService, logger *zap.Logger, respondJSON api.JSONResponder, respondError api.ErrorResponder) *Handler {
	return &Handler{
		adminService: adminService,
		logger:       logger,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

func (h *Handler) HandleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginInput
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.adminService.Login(r.Context(), req)
	if err != nil {
		api.RespondServiceError(w, h.respondError, h.logger, err, "Failed to log in")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Admin login successful.",
		"token":   session.Token,
		"admin": map[string]string{
			"username": session.Username,
		},
	})
}
