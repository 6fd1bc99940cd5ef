package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/google/uuid"
	"github.com/sebuszqo/PayBillsWithUs/internal/auth"
	appErrors "github.com/sebuszqo/PayBillsWithUs/internal/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost            = 12
	minUsernameLength     = 3
	minPasswordLength     = 8
	resourceName          = "Agent"
	msgInvalidCredentials = "Invalid agent credentials"
)

type Service interface {
	List(ctx context.Context) ([]View, error)
	Create(ctx context.Context, in CreateInput) (*View, error)
	Update(ctx context.Context, agentID uuid.UUID, in UpdateInput) (*View, error)
	Delete(ctx context.Context, agentID uuid.UUID) error
	AssignCustomer(ctx context.Context, agentID, customerID uuid.UUID) error
	UnassignCustomer(ctx context.Context, agentID, customerID uuid.UUID) error
	Authenticate(ctx context.Context, in LoginInput) (*Session, error)
}

type service struct {
	repo   Repository
	tokens auth.TokenIssuer
	logger *zap.Logger
	cost   int
	now    func() time.Time
}

func NewAgentService(repo Repository, tokens auth.TokenIssuer, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		tokens: tokens,
		logger: logger,
		cost:   bcryptCost,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("could not hash password: %w", err)
	}
	return string(hashed), nil
}

// optionalText trims the value and turns blanks into nil.
func optionalText(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func validateEmail(ve *appErrors.ValidationErrors, email *string) {
	if email == nil {
		return
	}
	if err := checkmail.ValidateFormat(*email); err != nil {
		ve.Add("email", "Email address is not valid")
	}
}

func (s *service) List(ctx context.Context) ([]View, error) {
	return s.repo.List(ctx)
}

func (s *service) Create(ctx context.Context, in CreateInput) (*View, error) {
	var ve appErrors.ValidationErrors
	username := strings.TrimSpace(in.Username)
	if len(username) < minUsernameLength {
		ve.Add("username", fmt.Sprintf("Username must be at least %d characters", minUsernameLength))
	}
	if len(in.Password) < minPasswordLength {
		ve.Add("password", fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		ve.Add("fullName", "Full name is required")
	}
	email := optionalText(in.Email)
	validateEmail(&ve, email)
	if err := ve.Err("Invalid agent payload"); err != nil {
		return nil, err
	}

	passwordHash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	agent := &Agent{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		FullName:     fullName,
		Email:        email,
		Phone:        optionalText(in.Phone),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, agent); err != nil {
		if errors.Is(err, ErrUsernameAlreadyExists) {
			return nil, appErrors.NewConflictError("Agent username already in use",
				map[string]string{"username": "Agent username already in use"})
		}
		return nil, err
	}

	s.logger.Info("created agent", zap.String("agent_id", agent.ID.String()), zap.String("username", agent.Username))
	view := agent.View()
	view.Customers = []AssignedCustomer{}
	return &view, nil
}

func (s *service) Update(ctx context.Context, agentID uuid.UUID, in UpdateInput) (*View, error) {
	var ve appErrors.ValidationErrors
	if in.Password != nil && len(*in.Password) < minPasswordLength {
		ve.Add("password", fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	var fullName string
	if in.FullName != nil {
		fullName = strings.TrimSpace(*in.FullName)
		if fullName == "" {
			ve.Add("fullName", "Full name is required")
		}
	}
	var email *string
	if in.Email.HasValue() {
		email = optionalText(in.Email.Value)
		validateEmail(&ve, email)
	}
	if err := ve.Err("Invalid agent update payload"); err != nil {
		return nil, err
	}

	agent, err := s.repo.GetByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, ErrAgentNotFound) {
			return nil, appErrors.NewNotFoundError(resourceName)
		}
		return nil, err
	}

	if in.Password != nil {
		passwordHash, err := s.hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		agent.PasswordHash = passwordHash
	}
	if in.FullName != nil {
		agent.FullName = fullName
	}
	if in.Email.Set {
		agent.Email = email
	}
	if in.Phone.Set {
		agent.Phone = optionalText(in.Phone.Apply(agent.Phone))
	}
	agent.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, agent); err != nil {
		if errors.Is(err, ErrAgentNotFound) {
			return nil, appErrors.NewNotFoundError(resourceName)
		}
		return nil, err
	}

	view := agent.View()
	return &view, nil
}

func (s *service) Delete(ctx context.Context, agentID uuid.UUID) error {
	if err := s.repo.Delete(ctx, agentID); err != nil {
		if errors.Is(err, ErrAgentNotFound) {
			return appErrors.NewNotFoundError(resourceName)
		}
		return err
	}
	s.logger.Info("deleted agent", zap.String("agent_id", agentID.String()))
	return nil
}

func (s *service) AssignCustomer(ctx context.Context, agentID, customerID uuid.UUID) error {
	return mapAssignmentError(s.repo.Assign(ctx, agentID, customerID))
}

func (s *service) UnassignCustomer(ctx context.Context, agentID, customerID uuid.UUID) error {
	return mapAssignmentError(s.repo.Unassign(ctx, agentID, customerID))
}

func mapAssignmentError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrAgentNotFound):
		return appErrors.NewNotFoundError(resourceName)
	case errors.Is(err, ErrCustomerNotFound):
		return appErrors.NewNotFoundError("Customer")
	default:
		return err
	}
}

// Authenticate checks the agent's password and issues an agent token.
// An unknown username and a wrong password give the same error.
func (s *service) Authenticate(ctx context.Context, in LoginInput) (*Session, error) {
	var ve appErrors.ValidationErrors
	username := strings.TrimSpace(in.Username)
	if username == "" {
		ve.Add("username", "Username is required")
	}
	if in.Password == "" {
		ve.Add("password", "Password is required")
	}
	if err := ve.Err("Invalid login payload"); err != nil {
		return nil, err
	}

	agent, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrAgentNotFound) {
			return nil, appErrors.NewUnauthorizedError(msgInvalidCredentials)
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(agent.PasswordHash), []byte(in.Password)) != nil {
		return nil, appErrors.NewUnauthorizedError(msgInvalidCredentials)
	}

	principal := auth.Principal{
		Subject:  agent.ID.String(),
		Role:     auth.RoleAgent,
		Username: agent.Username,
	}
	if agent.Email != nil {
		principal.Email = *agent.Email
	}
	token, err := s.tokens.Generate(principal, auth.AgentTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("could not issue agent token: %w", err)
	}

	return &Session{Token: token, Agent: agent.View()}, nil
}
