package user

import (
	"net/http"

	"github.com/sebuszqo/PayBillsWithUs/internal/api"
	"github.com/sebuszqo/PayBillsWithUs/internal/auth"
	"go.uber.org/zap"
)

type Handler struct {
	userService  Service
	exposeTokens bool
	logger       *zap.Logger
	respondJSON  api.JSONResponder
	respondError api.ErrorResponder
}

// NewHandler builds the customer account handler. exposeResetTokens echoes reset tokens in
// responses and must be false in production.
func NewHandler(userService Service, exposeResetTokens bool, logger *zap.Logger, respondJSON api.JSONResponder, respondError api.ErrorResponder) *Handler {
	return &Handler{
		userService:  userService,
		exposeTokens: exposeResetTokens,
		logger:       logger,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterInput
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	summary, err := h.userService.Register(r.Context(), req)
	if err != nil {
		api.RespondServiceError(w, h.respondError, h.logger, err, "Could not register user")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "User registered successfully.",
		"user":    summary,
	})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginInput
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.userService.Login(r.Context(), req)
	if err != nil {
		api.RespondServiceError(w, h.respondError, h.logger, err, "Could not log in")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Login successful.",
		"token":   result.Token,
		"user":    result.User,
	})
}

func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CustomerIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	profile, err := h.userService.GetProfile(r.Context(), userID)
	if err != nil {
		api.RespondServiceError(w, h.respondError, h.logger, err, "Failed to retrieve profile")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Profile retrieved successfully.",
		"user":    profile,
	})
}

func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CustomerIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req UpdateProfileInput
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile, emailChanged, err := h.userService.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		api.RespondServiceError(w, h.respondError, h.logger, err, "Failed to update profile")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":                   "success",
		"message":                  "Profile updated successfully.",
		"user":                     profile,
		"requiresReauthentication": emailChanged,
	})
}

func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CustomerIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req ChangePasswordInput
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.userService.ChangePassword(r.Context(), userID, req); err != nil {
		api.RespondServiceError(w, h.respondError, h.logger, err, "Failed to change password")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":                   "success",
		"message":                  "Password changed successfully.",
		"requiresReauthentication": true,
	})
}

func (h *Handler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ticket, err := h.userService.RequestPasswordReset(r.Context(), req)
	if err != nil {
		api.RespondServiceError(w, h.respondError, h.logger, err, "Failed to request password reset")
		return
	}

	payload := map[string]interface{}{
		"status":    "success",
		"message":   "Password reset link sent to the email on file.",
		"expiresAt": ticket.ExpiresAt,
	}
	if h.exposeTokens {
		payload["token"] = ticket.Token
		payload["email"] = ticket.Email
	}
	h.respondJSON(w, http.StatusOK, payload)
}

func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordInput
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.userService.ResetPassword(r.Context(), req)
	if err != nil {
		api.RespondServiceError(w, h.respondError, h.logger, err, "Failed to reset password")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Password reset successfully.",
		"token":   result.Token,
		"user":    result.User,
	})
}
