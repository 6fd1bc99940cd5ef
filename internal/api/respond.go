package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sebuszqo/PayBillsWithUs/internal/encryption"
	appErrors "github.com/sebuszqo/PayBillsWithUs/internal/errors"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type JSONResponder func(w http.ResponseWriter, status int, payload interface{})

type ErrorResponder func(w http.ResponseWriter, status int, message string, fieldErrors ...map[string][]string)

func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("JSON encoding error", zap.Error(err))
	}
}

func RespondError(w http.ResponseWriter, status int, message string, fieldErrors ...map[string][]string) {
	payload := map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	}

	if len(fieldErrors) > 0 && len(fieldErrors[0]) > 0 {
		payload["details"] = map[string]interface{}{
			"fieldErrors": fieldErrors[0],
		}
	}

	RespondJSON(w, status, payload)
}

// Classify maps a service error to its HTTP status, public message and field errors.
func Classify(err error) (int, string, map[string][]string) {
	if validationErr, ok := appErrors.AsValidationError(err); ok {
		return http.StatusUnprocessableEntity, validationErr.Msg, validationErr.Fields
	}
	if conflict, ok := appErrors.AsConflict(err); ok {
		return http.StatusConflict, conflict.Msg, conflict.Fields
	}

	var notFound *appErrors.NotFoundError
	if errors.As(err, &notFound) {
		return http.StatusNotFound, notFound.Error(), nil
	}

	var unauthorized *appErrors.UnauthorizedError
	if errors.As(err, &unauthorized) {
		return http.StatusUnauthorized, unauthorized.Msg, nil
	}

	return http.StatusInternalServerError, "Internal server error", nil
}

// RespondServiceError writes the classified error. Internal failures are logged and hidden behind fallback.
func RespondServiceError(w http.ResponseWriter, respondError ErrorResponder, logger *zap.Logger, err error, fallback string) {
	status, message, fields := Classify(err)
	if status == http.StatusInternalServerError {
		if errors.Is(err, encryption.ErrDecrypt) {
			logger.Error("encrypted field failed authentication", zap.Error(err))
		} else {
			logger.Error(fallback, zap.Error(err))
		}
		message = fallback
	}
	respondError(w, status, message, fields)
}

// DecodeJSON reads a bounded JSON body into dst.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

type pathKey string

var resourceNames = map[string]string{
	"customerID":      "Customer",
	"paymentMethodID": "Payment method",
	"billerID":        "Biller",
	"agentID":         "Agent",
}

func capitalizeFirstLetter(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(string(s[0])) + s[1:]
}

// ValidatePathUUIDs parses the named path values as UUIDs and stores them on the request context.
// A malformed id is reported as not found so callers cannot tell it apart from a missing row.
func ValidatePathUUIDs(respondError ErrorResponder, next http.Handler, params ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, param := range params {
			paramValue := r.PathValue(param)
			if paramValue == "" {
				respondError(w, http.StatusBadRequest, capitalizeFirstLetter(fmt.Sprintf("%s is required", param)))
				return
			}

			parsedUUID, err := uuid.Parse(paramValue)
			if err != nil {
				name, ok := resourceNames[param]
				if !ok {
					respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s format", param))
					return
				}
				respondError(w, http.StatusNotFound, fmt.Sprintf("%s not found", name))
				return
			}
			r = r.WithContext(context.WithValue(r.Context(), pathKey(param), parsedUUID))
		}
		next.ServeHTTP(w, r)
	})
}

// PathUUID returns a value stored by ValidatePathUUIDs.
func PathUUID(r *http.Request, param string) (uuid.UUID, bool) {
	id, ok := r.Context().Value(pathKey(param)).(uuid.UUID)
	return id, ok
}

// WithPathUUID is used by tests that call handlers without the router.
func WithPathUUID(r *http.Request, param string, id uuid.UUID) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), pathKey(param), id))
}
