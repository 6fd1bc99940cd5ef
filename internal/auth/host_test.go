package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sebuszqo/PayBillsWithUs/internal/api"
	"github.com/stretchr/testify/assert"
)

func TestRequireApprovedHost(t *testing.T) {
	middleware := RequireApprovedHost([]string{"admin.paybills.local", "localhost:5175"}, api.RespondError)
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name    string
		host    string
		headers map[string]string
		status  int
	}{
		{"host matches", "admin.paybills.local", nil, http.StatusNoContent},
		{"host with port matches bare entry", "admin.paybills.local:4000", nil, http.StatusNoContent},
		{"host is case insensitive", "ADMIN.PayBills.local", nil, http.StatusNoContent},
		{"origin url", "api.internal", map[string]string{"Origin": "http://localhost:5175"}, http.StatusNoContent},
		{"referer url with path", "api.internal", map[string]string{"Referer": "https://admin.paybills.local/agents?x=1"}, http.StatusNoContent},
		{"forwarded host list", "api.internal", map[string]string{"X-Forwarded-Host": "proxy.example, admin.paybills.local"}, http.StatusNoContent},
		{"port must match when listed with port", "localhost:9999", nil, http.StatusForbidden},
		{"unknown host", "evil.example", map[string]string{"Origin": "https://evil.example"}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/admin/login", nil)
			req.Host = tt.host
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
