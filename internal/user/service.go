package user

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/google/uuid"
	"github.com/sebuszqo/PayBillsWithUs/internal/auth"
	emailService "github.com/sebuszqo/PayBillsWithUs/internal/email"
	appErrors "github.com/sebuszqo/PayBillsWithUs/internal/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost              = 12
	minPasswordLength       = 12
	minPostalCodeLength     = 5
	customerNumberMin       = 10000
	customerNumberMax       = 99999
	customerNumberAttempts  = 20
	resetTokenBytes         = 32
	resetTokenValidity      = time.Hour
	resourceName            = "User"
	msgInvalidCredentials   = "Invalid email or password."
	msgResetProfileMismatch = "We could not find a profile that matches those details."
	msgResetTokenInvalid    = "This password reset link is invalid or has expired."
)

var (
	ErrCustomerNumberExhausted = errors.New("unable to allocate a unique customer number")

	ssnLast4Pattern = regexp.MustCompile(`^\d{4}$`)
)

type Service interface {
	Register(ctx context.Context, in RegisterInput) (*Summary, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, in UpdateProfileInput) (*Profile, bool, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, in ChangePasswordInput) error
	RequestPasswordReset(ctx context.Context, in PasswordResetRequest) (*ResetTicket, error)
	ResetPassword(ctx context.Context, in ResetPasswordInput) (*AuthResult, error)
	PurgeExpiredResetTokens(ctx context.Context) (int64, error)
	CustomerExists(ctx context.Context, customerID string) (bool, error)
	ProfileAddress(ctx context.Context, userID uuid.UUID) (*Address, error)
}

type service struct {
	repo         Repository
	tokens       auth.TokenIssuer
	emailService emailService.EmailSender
	resetURLBase string
	logger       *zap.Logger
	cost         int
	now          func() time.Time
}

func NewUserService(repo Repository, tokens auth.TokenIssuer, emailService emailService.EmailSender, resetURLBase string, logger *zap.Logger) Service {
	return &service{
		repo:         repo,
		tokens:       tokens,
		emailService: emailService,
		resetURLBase: resetURLBase,
		logger:       logger,
		cost:         bcryptCost,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("could not hash password: %w", err)
	}
	return string(hashed), nil
}

func doPasswordsMatch(hashedPassword, currPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(currPassword)) == nil
}

func generateResetToken() (string, error) {
	token := make([]byte, resetTokenBytes)
	if _, err := rand.Read(token); err != nil {
		return "", fmt.Errorf("could not generate reset token: %w", err)
	}
	return hex.EncodeToString(token), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmailAddress(ve *appErrors.ValidationErrors, field, email string) {
	if err := checkmail.ValidateFormat(email); err != nil {
		ve.Add(field, "Email address is not valid")
	}
}

func validateNewPassword(ve *appErrors.ValidationErrors, field, password, confirm string, requireConfirm bool) {
	if len(password) < minPasswordLength {
		ve.Add(field, fmt.Sprintf("Password must be at least %d characters long", minPasswordLength))
	}
	if requireConfirm && confirm != password {
		ve.Add("confirmPassword", "Passwords do not match")
	}
}

func parseDate(ve *appErrors.ValidationErrors, field, value string) time.Time {
	date, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		ve.Add(field, "Date must use the YYYY-MM-DD format")
	}
	return date
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func (s *service) authResult(user *User) (*AuthResult, error) {
	token, err := s.tokens.Generate(auth.Principal{
		Subject: user.ID.String(),
		Role:    auth.RoleCustomer,
		Email:   user.Email,
	}, auth.CustomerTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("could not issue customer token: %w", err)
	}
	return &AuthResult{Token: token, User: user.Summary()}, nil
}

func (s *service) allocateCustomerNumber(ctx context.Context) (string, error) {
	span := big.NewInt(customerNumberMax - customerNumberMin + 1)
	for attempt := 0; attempt < customerNumberAttempts; attempt++ {
		n, err := rand.Int(rand.Reader, span)
		if err != nil {
			return "", fmt.Errorf("could not generate customer number: %w", err)
		}
		candidate := fmt.Sprintf("CUST-%d", customerNumberMin+n.Int64())
		exists, err := s.repo.customerNumberExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrCustomerNumberExhausted
}

func (s *service) Register(ctx context.Context, in RegisterInput) (*Summary, error) {
	var ve appErrors.ValidationErrors
	email := normalizeEmail(in.Email)
	validateEmailAddress(&ve, "email", email)
	validateNewPassword(&ve, "password", in.Password, "", false)

	firstName := strings.TrimSpace(in.FirstName)
	lastName := strings.TrimSpace(in.LastName)
	if firstName == "" {
		ve.Add("firstName", "First name is required")
	}
	if lastName == "" {
		ve.Add("lastName", "Last name is required")
	}
	dateOfBirth := parseDate(&ve, "dateOfBirth", in.DateOfBirth)
	if !dateOfBirth.IsZero() && !dateOfBirth.Before(s.now()) {
		ve.Add("dateOfBirth", "Date of birth must be in the past")
	}
	ssnLast4 := strings.TrimSpace(in.SSNLast4)
	if !ssnLast4Pattern.MatchString(ssnLast4) {
		ve.Add("ssnLast4", "SSN last 4 must be exactly 4 digits")
	}

	addressLine1 := strings.TrimSpace(in.AddressLine1)
	city := strings.TrimSpace(in.City)
	state := strings.TrimSpace(in.State)
	postalCode := strings.TrimSpace(in.PostalCode)
	validateAddress(&ve, addressLine1, city, state, postalCode)

	if err := ve.Err("Invalid registration payload"); err != nil {
		return nil, err
	}

	conflicts, err := s.repo.identityConflicts(ctx, email, ssnLast4, dateOfBirth)
	if err != nil {
		return nil, err
	}
	fields := map[string]string{}
	if conflicts.Email {
		fields["email"] = "An account already exists with this email address. Use a different email or sign in."
	}
	if conflicts.SSNLast4 {
		fields["ssnLast4"] = "This Social Security number is already connected to an existing profile."
	}
	if conflicts.DateOfBirth {
		fields["dateOfBirth"] = "This date of birth is already connected to an existing profile."
	}
	if len(fields) > 0 {
		return nil, appErrors.NewConflictError("Registration blocked by duplicate identity details.", fields)
	}

	passwordHash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	customerNumber, err := s.allocateCustomerNumber(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &User{
		ID:             uuid.New(),
		Email:          email,
		PasswordHash:   passwordHash,
		FirstName:      firstName,
		LastName:       lastName,
		CustomerNumber: customerNumber,
		DateOfBirth:    dateOfBirth,
		SSNLast4:       ssnLast4,
		Phone:          trimOptional(in.Phone),
		AddressLine1:   addressLine1,
		AddressLine2:   trimOptional(in.AddressLine2),
		City:           city,
		State:          state,
		PostalCode:     postalCode,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.createUser(ctx, user); err != nil {
		return nil, err
	}

	s.emailService.QueueEmail(user.Email, emailService.WelcomeData{
		FirstName:      user.FirstName,
		CustomerNumber: user.CustomerNumber,
	})
	s.logger.Info("registered customer", zap.String("customer_id", user.ID.String()))

	summary := user.Summary()
	return &summary, nil
}

func validateAddress(ve *appErrors.ValidationErrors, line1, city, state, postalCode string) {
	if line1 == "" {
		ve.Add("addressLine1", "Address line 1 is required")
	}
	if city == "" {
		ve.Add("city", "City is required")
	}
	if len(state) < 2 {
		ve.Add("state", "State is required")
	}
	if len(postalCode) < minPostalCodeLength {
		ve.Add("postalCode", fmt.Sprintf("Postal code must be at least %d characters", minPostalCodeLength))
	}
}

func (s *service) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	var ve appErrors.ValidationErrors
	email := normalizeEmail(in.Email)
	validateEmailAddress(&ve, "email", email)
	if in.Password == "" {
		ve.Add("password", "Password is required")
	}
	if err := ve.Err("Invalid login payload"); err != nil {
		return nil, err
	}

	user, err := s.repo.getUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, appErrors.NewUnauthorizedError(msgInvalidCredentials)
		}
		return nil, err
	}
	if !doPasswordsMatch(user.PasswordHash, in.Password) {
		return nil, appErrors.NewUnauthorizedError(msgInvalidCredentials)
	}

	return s.authResult(user)
}

func (s *service) getUser(ctx context.Context, userID uuid.UUID) (*User, error) {
	user, err := s.repo.getUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, appErrors.NewNotFoundError(resourceName)
		}
		return nil, err
	}
	return user, nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := user.Profile()
	return &profile, nil
}

// UpdateProfile applies the patch and reports whether the email changed, which requires signing in again.
func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, in UpdateProfileInput) (*Profile, bool, error) {
	var ve appErrors.ValidationErrors
	var email string
	if in.Email != nil {
		email = normalizeEmail(*in.Email)
		validateEmailAddress(&ve, "email", email)
	}
	requireText := func(field string, value *string, minLen int, msg string) *string {
		if value == nil {
			return nil
		}
		v := strings.TrimSpace(*value)
		if len(v) < minLen {
			ve.Add(field, msg)
		}
		return &v
	}
	line1 := requireText("addressLine1", in.AddressLine1, 1, "Address line 1 is required")
	city := requireText("city", in.City, 1, "City is required")
	state := requireText("state", in.State, 2, "State is required")
	postalCode := requireText("postalCode", in.PostalCode, minPostalCodeLength,
		fmt.Sprintf("Postal code must be at least %d characters", minPostalCodeLength))
	if err := ve.Err("Invalid profile update payload"); err != nil {
		return nil, false, err
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	emailChanged := in.Email != nil && email != user.Email
	if emailChanged {
		inUse, err := s.repo.emailInUseByOther(ctx, email, userID)
		if err != nil {
			return nil, false, err
		}
		if inUse {
			return nil, false, appErrors.NewConflictError("Unable to update profile due to duplicate information.",
				map[string]string{"email": "This email is already connected to another account."})
		}
		user.Email = email
	}

	if in.Phone.Set {
		user.Phone = trimOptional(in.Phone.Apply(user.Phone))
	}
	if in.AddressLine2.Set {
		user.AddressLine2 = trimOptional(in.AddressLine2.Apply(user.AddressLine2))
	}
	if line1 != nil {
		user.AddressLine1 = *line1
	}
	if city != nil {
		user.City = *city
	}
	if state != nil {
		user.State = *state
	}
	if postalCode != nil {
		user.PostalCode = *postalCode
	}
	user.UpdatedAt = s.now()

	if err := s.repo.updateProfile(ctx, user); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, false, appErrors.NewNotFoundError(resourceName)
		}
		return nil, false, err
	}

	profile := user.Profile()
	return &profile, emailChanged, nil
}

func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, in ChangePasswordInput) error {
	var ve appErrors.ValidationErrors
	if in.CurrentPassword == "" {
		ve.Add("currentPassword", "Current password is required")
	}
	validateNewPassword(&ve, "newPassword", in.NewPassword, in.ConfirmPassword, in.ConfirmPassword != "")
	if err := ve.Err("Invalid change password payload"); err != nil {
		return err
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if !doPasswordsMatch(user.PasswordHash, in.CurrentPassword) {
		return appErrors.NewFieldError("currentPassword", "Current password is incorrect.")
	}

	passwordHash, err := s.hashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	return s.repo.updatePassword(ctx, userID, passwordHash)
}

func (s *service) RequestPasswordReset(ctx context.Context, in PasswordResetRequest) (*ResetTicket, error) {
	var ve appErrors.ValidationErrors
	email := normalizeEmail(in.Email)
	validateEmailAddress(&ve, "email", email)
	ssnLast4 := strings.TrimSpace(in.SSNLast4)
	if !ssnLast4Pattern.MatchString(ssnLast4) {
		ve.Add("ssnLast4", "SSN last 4 must be exactly 4 digits")
	}
	dateOfBirth := parseDate(&ve, "dateOfBirth", in.DateOfBirth)
	if err := ve.Err("Invalid password reset request payload"); err != nil {
		return nil, err
	}

	user, err := s.repo.getUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	if user == nil || user.SSNLast4 != ssnLast4 || user.DateOfBirth.Format(dateLayout) != dateOfBirth.Format(dateLayout) {
		return nil, appErrors.NewNotFoundMessage(resourceName, msgResetProfileMismatch)
	}

	token, err := generateResetToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	resetToken := &ResetToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: now.Add(resetTokenValidity),
		CreatedAt: now,
	}
	if err := s.repo.replaceResetToken(ctx, resetToken); err != nil {
		return nil, err
	}

	s.emailService.QueueEmail(user.Email, emailService.ResetPasswordData{
		FirstName: user.FirstName,
		ResetURL:  s.resetURL(token),
		ExpiresAt: resetToken.ExpiresAt,
	})

	return &ResetTicket{Token: token, Email: user.Email, ExpiresAt: resetToken.ExpiresAt}, nil
}

func (s *service) resetURL(token string) string {
	return s.resetURLBase + "?token=" + url.QueryEscape(token)
}

func (s *service) ResetPassword(ctx context.Context, in ResetPasswordInput) (*AuthResult, error) {
	var ve appErrors.ValidationErrors
	token := strings.TrimSpace(in.Token)
	if token == "" {
		ve.Add("token", "Reset token is required")
	}
	validateNewPassword(&ve, "newPassword", in.NewPassword, in.ConfirmPassword, in.ConfirmPassword != "")
	if err := ve.Err("Invalid password reset payload"); err != nil {
		return nil, err
	}

	invalid := appErrors.NewFieldError("token", msgResetTokenInvalid)
	now := s.now()
	resetToken, err := s.repo.getResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrResetTokenNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if resetToken.UsedAt != nil || resetToken.ExpiresAt.Before(now) {
		return nil, invalid
	}

	passwordHash, err := s.hashPassword(in.NewPassword)
	if err != nil {
		return nil, err
	}
	if err := s.repo.consumeResetToken(ctx, resetToken, passwordHash, now); err != nil {
		if errors.Is(err, ErrResetTokenNotFound) {
			return nil, invalid
		}
		return nil, err
	}

	user, err := s.getUser(ctx, resetToken.UserID)
	if err != nil {
		return nil, err
	}
	return s.authResult(user)
}

func (s *service) PurgeExpiredResetTokens(ctx context.Context) (int64, error) {
	return s.repo.purgeExpiredResetTokens(ctx, s.now())
}

func (s *service) CustomerExists(ctx context.Context, customerID string) (bool, error) {
	id, err := uuid.Parse(customerID)
	if err != nil {
		return false, nil
	}
	return s.repo.userExists(ctx, id)
}

func (s *service) ProfileAddress(ctx context.Context, userID uuid.UUID) (*Address, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	address := user.Address()
	return &address, nil
}
