package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sebuszqo/PayBillsWithUs/internal/api"
	appErrors "github.com/sebuszqo/PayBillsWithUs/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockAgentService struct {
	Service
	views         []View
	view          *View
	session       *Session
	err           error
	gotAgentID    uuid.UUID
	gotCustomerID uuid.UUID
}

func (m *MockAgentService) List(context.Context) ([]View, error) {
	return m.views, m.err
}

func (m *MockAgentService) Create(context.Context, CreateInput) (*View, error) {
	return m.view, m.err
}

func (m *MockAgentService) Update(_ context.Context, agentID uuid.UUID, _ UpdateInput) (*View, error) {
	m.gotAgentID = agentID
	return m.view, m.err
}

func (m *MockAgentService) Delete(_ context.Context, agentID uuid.UUID) error {
	m.gotAgentID = agentID
	return m.err
}

func (m *MockAgentService) AssignCustomer(_ context.Context, agentID, customerID uuid.UUID) error {
	m.gotAgentID, m.gotCustomerID = agentID, customerID
	return m.err
}

func (m *MockAgentService) Authenticate(context.Context, LoginInput) (*Session, error) {
	return m.session, m.err
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return response
}

func TestHandleLogin(t *testing.T) {
	mock := &MockAgentService{session: &Session{Token: "agent-token", Agent: View{ID: uuid.New(), Username: "jdoe"}}}
	handler := NewHandler(mock, zap.NewNop(), api.RespondJSON, api.RespondError)

	req := httptest.NewRequest(http.MethodPost, "/api/agent/login", strings.NewReader(`{"username":"jdoe","password":"agent-pass"}`))
	w := httptest.NewRecorder()
	handler.HandleLogin(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	response := decodeResponse(t, w)
	assert.Equal(t, "agent-token", response["token"])
	assert.Equal(t, "jdoe", response["agent"].(map[string]interface{})["username"])
	assert.NotContains(t, w.Body.String(), "password")
}

func TestHandleLoginInvalidCredentials(t *testing.T) {
	mock := &MockAgentService{err: appErrors.NewUnauthorizedError(msgInvalidCredentials)}
	handler := NewHandler(mock, zap.NewNop(), api.RespondJSON, api.RespondError)

	req := httptest.NewRequest(http.MethodPost, "/api/agent/login", strings.NewReader(`{"username":"jdoe","password":"x"}`))
	w := httptest.NewRecorder()
	handler.HandleLogin(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, msgInvalidCredentials, decodeResponse(t, w)["message"])
}

func TestHandleCreateConflict(t *testing.T) {
	mock := &MockAgentService{err: appErrors.NewConflictError("Agent username already in use",
		map[string]string{"username": "Agent username already in use"})}
	handler := NewHandler(mock, zap.NewNop(), api.RespondJSON, api.RespondError)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/agents", strings.NewReader(`{"username":"jdoe"}`))
	w := httptest.NewRecorder()
	handler.HandleCreate(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	response := decodeResponse(t, w)
	fieldErrors := response["details"].(map[string]interface{})["fieldErrors"].(map[string]interface{})
	assert.Contains(t, fieldErrors, "username")
}

func TestHandleCreate(t *testing.T) {
	mock := &MockAgentService{view: &View{ID: uuid.New(), Username: "jdoe"}}
	handler := NewHandler(mock, zap.NewNop(), api.RespondJSON, api.RespondError)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/agents", strings.NewReader(`{"username":"jdoe"}`))
	w := httptest.NewRecorder()
	handler.HandleCreate(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "jdoe", decodeResponse(t, w)["agent"].(map[string]interface{})["username"])
}

func TestHandleUpdateUsesPathID(t *testing.T) {
	agentID := uuid.New()
	mock := &MockAgentService{view: &View{ID: agentID}}
	handler := NewHandler(mock, zap.NewNop(), api.RespondJSON, api.RespondError)

	req := httptest.NewRequest(http.MethodPut, "/api/admin/agents/"+agentID.String(), strings.NewReader(`{"phone":null}`))
	req = api.WithPathUUID(req, "agentID", agentID)
	w := httptest.NewRecorder()
	handler.HandleUpdate(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, agentID, mock.gotAgentID)
}

func TestHandleDeleteNotFound(t *testing.T) {
	agentID := uuid.New()
	mock := &MockAgentService{err: appErrors.NewNotFoundError(resourceName)}
	handler := NewHandler(mock, zap.NewNop(), api.RespondJSON, api.RespondError)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/agents/"+agentID.String(), nil)
	req = api.WithPathUUID(req, "agentID", agentID)
	w := httptest.NewRecorder()
	handler.HandleDelete(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Agent not found", decodeResponse(t, w)["message"])
}

func TestHandleAssignCustomer(t *testing.T) {
	agentID, customerID := uuid.New(), uuid.New()
	mock := &MockAgentService{}
	handler := NewHandler(mock, zap.NewNop(), api.RespondJSON, api.RespondError)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/agents/x/customers/y", nil)
	req = api.WithPathUUID(req, "agentID", agentID)
	req = api.WithPathUUID(req, "customerID", customerID)
	w := httptest.NewRecorder()
	handler.HandleAssignCustomer(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, agentID, mock.gotAgentID)
	assert.Equal(t, customerID, mock.gotCustomerID)
}

func TestHandleListInternalError(t *testing.T) {
	mock := &MockAgentService{err: assert.AnError}
	handler := NewHandler(mock, zap.NewNop(), api.RespondJSON, api.RespondError)

	w := httptest.NewRecorder()
	handler.HandleList(w, httptest.NewRequest(http.MethodGet, "/api/admin/agents", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to retrieve agents", decodeResponse(t, w)["message"])
}
