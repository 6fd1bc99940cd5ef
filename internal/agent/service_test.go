package agent

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sebuszqo/PayBillsWithUs/internal/auth"
	appErrors "github.com/sebuszqo/PayBillsWithUs/internal/errors"
	"github.com/sebuszqo/PayBillsWithUs/internal/patch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type agentFixture struct {
	svc   *service
	repo  *memoryRepository
	jwt   *auth.JWTManager
	clock time.Time
}

func newAgentFixture(t *testing.T) *agentFixture {
	t.Helper()
	f := &agentFixture{
		repo:  newMemoryRepository(),
		jwt:   auth.NewJWTManager("test-secret"),
		clock: time.Date(2025, time.April, 2, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewAgentService(f.repo, f.jwt, zap.NewNop()).(*service)
	f.svc.cost = bcrypt.MinCost
	f.svc.now = func() time.Time {
		f.clock = f.clock.Add(time.Second)
		return f.clock
	}
	return f
}

func strPtr(s string) *string {
	return &s
}

func validCreateInput() CreateInput {
	return CreateInput{
		Username: " jdoe ",
		Password: "agent-pass",
		FullName: "Jane Doe",
		Email:    strPtr("jane@paybills.example"),
	}
}

func (f *agentFixture) create(t *testing.T, in CreateInput) *View {
	t.Helper()
	view, err := f.svc.Create(context.Background(), in)
	require.NoError(t, err)
	return view
}

func TestCreateAgent(t *testing.T) {
	f := newAgentFixture(t)

	view := f.create(t, validCreateInput())

	assert.Equal(t, "jdoe", view.Username)
	assert.Equal(t, "Jane Doe", view.FullName)
	require.NotNil(t, view.Email)
	assert.Equal(t, "jane@paybills.example", *view.Email)
	assert.Nil(t, view.Phone)
	assert.Empty(t, view.Customers)

	stored, err := f.repo.GetByID(context.Background(), view.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "agent-pass", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("agent-pass")))
}

func TestCreateAgentValidation(t *testing.T) {
	f := newAgentFixture(t)

	_, err := f.svc.Create(context.Background(), CreateInput{
		Username: "jd",
		Password: "short",
		FullName: "  ",
		Email:    strPtr("not-an-email"),
	})

	validationErr, ok := appErrors.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid agent payload", validationErr.Msg)
	for _, field := range []string{"username", "password", "fullName", "email"} {
		assert.Contains(t, validationErr.Fields, field)
	}
}

func TestCreateAgentDuplicateUsername(t *testing.T) {
	f := newAgentFixture(t)
	f.create(t, validCreateInput())

	_, err := f.svc.Create(context.Background(), validCreateInput())

	conflict, ok := appErrors.AsConflict(err)
	require.True(t, ok)
	assert.Equal(t, "Agent username already in use", conflict.Msg)
}

func TestUpdateAgent(t *testing.T) {
	f := newAgentFixture(t)
	created := f.create(t, validCreateInput())

	updated, err := f.svc.Update(context.Background(), created.ID, UpdateInput{
		Password: strPtr("new-agent-pass"),
		FullName: strPtr(" Jane Q. Doe "),
		Email:    patch.Null[string](),
		Phone:    patch.Of("555-0100"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Jane Q. Doe", updated.FullName)
	assert.Nil(t, updated.Email)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "555-0100", *updated.Phone)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	_, err = f.svc.Authenticate(context.Background(), LoginInput{Username: "jdoe", Password: "new-agent-pass"})
	assert.NoError(t, err)
}

func TestUpdateAgentKeepsAbsentFields(t *testing.T) {
	f := newAgentFixture(t)
	created := f.create(t, validCreateInput())

	updated, err := f.svc.Update(context.Background(), created.ID, UpdateInput{})
	require.NoError(t, err)

	assert.Equal(t, created.FullName, updated.FullName)
	assert.Equal(t, created.Email, updated.Email)
}

func TestUpdateAgentValidationAndNotFound(t *testing.T) {
	f := newAgentFixture(t)

	_, err := f.svc.Update(context.Background(), uuid.New(), UpdateInput{Password: strPtr("short")})
	validationErr, ok := appErrors.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid agent update payload", validationErr.Msg)

	_, err = f.svc.Update(context.Background(), uuid.New(), UpdateInput{FullName: strPtr("Someone")})
	assert.True(t, appErrors.IsNotFound(err))
}

func TestDeleteAgent(t *testing.T) {
	f := newAgentFixture(t)
	created := f.create(t, validCreateInput())

	require.NoError(t, f.svc.Delete(context.Background(), created.ID))

	err := f.svc.Delete(context.Background(), created.ID)
	assert.True(t, appErrors.IsNotFound(err))
}

func TestAssignAndUnassignCustomer(t *testing.T) {
	f := newAgentFixture(t)
	created := f.create(t, validCreateInput())
	customer := AssignedCustomer{ID: uuid.New(), FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", CustomerNumber: "CUST-12345"}
	f.repo.addCustomer(customer)
	ctx := context.Background()

	require.NoError(t, f.svc.AssignCustomer(ctx, created.ID, customer.ID))
	require.NoError(t, f.svc.AssignCustomer(ctx, created.ID, customer.ID))

	agents, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, []AssignedCustomer{customer}, agents[0].Customers)

	require.NoError(t, f.svc.UnassignCustomer(ctx, created.ID, customer.ID))
	err = f.svc.UnassignCustomer(ctx, created.ID, customer.ID)
	notFound := &appErrors.NotFoundError{}
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "Customer", notFound.Resource)
}

func TestAssignCustomerMissingSides(t *testing.T) {
	f := newAgentFixture(t)
	created := f.create(t, validCreateInput())
	ctx := context.Background()

	err := f.svc.AssignCustomer(ctx, uuid.New(), uuid.New())
	notFound := &appErrors.NotFoundError{}
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "Agent", notFound.Resource)

	err = f.svc.AssignCustomer(ctx, created.ID, uuid.New())
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "Customer", notFound.Resource)
}

func TestAuthenticateAgent(t *testing.T) {
	f := newAgentFixture(t)
	created := f.create(t, validCreateInput())

	session, err := f.svc.Authenticate(context.Background(), LoginInput{Username: "jdoe", Password: "agent-pass"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, session.Agent.ID)

	principal, err := f.jwt.Validate(session.Token)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAgent, principal.Role)
	assert.Equal(t, created.ID.String(), principal.Subject)
	assert.Equal(t, "jdoe", principal.Username)
	assert.Equal(t, "jane@paybills.example", principal.Email)
}

func TestAuthenticateAgentFailures(t *testing.T) {
	f := newAgentFixture(t)
	f.create(t, validCreateInput())

	tests := []struct {
		name string
		in   LoginInput
	}{
		{"wrong password", LoginInput{Username: "jdoe", Password: "wrong-pass"}},
		{"unknown username", LoginInput{Username: "nobody", Password: "agent-pass"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Authenticate(context.Background(), tt.in)
			assert.True(t, appErrors.IsUnauthorized(err))
			assert.EqualError(t, err, msgInvalidCredentials)
		})
	}

	_, err := f.svc.Authenticate(context.Background(), LoginInput{})
	assert.True(t, appErrors.IsValidationError(err))
}
