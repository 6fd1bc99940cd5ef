package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	appErrors "github.com/sebuszqo/PayBillsWithUs/internal/errors"
	"go.uber.org/zap"
)

var ErrInvalidAdminCredentials = appErrors.NewUnauthorizedError("Invalid admin credentials")

type AdminCredentials struct {
	Username   string
	Password   string
	TOTPSecret string
}

type AdminLoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

type AdminSession struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type AdminService interface {
	Login(ctx context.Context, in AdminLoginInput) (*AdminSession, error)
}

// AdminAuthenticator checks the single configured administrator. When a TOTP secret is set,
// a valid code is also required.
type AdminAuthenticator struct {
	credentials AdminCredentials
	tokens      TokenIssuer
	totp        *TOTPAuthenticator
	logger      *zap.Logger
}

func NewAdminAuthenticator(credentials AdminCredentials, tokens TokenIssuer, logger *zap.Logger) *AdminAuthenticator {
	return &AdminAuthenticator{
		credentials: credentials,
		tokens:      tokens,
		totp:        NewTOTPAuthenticator(),
		logger:      logger,
	}
}

func (a *AdminAuthenticator) Login(_ context.Context, in AdminLoginInput) (*AdminSession, error) {
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

	usernameOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.credentials.Username)) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(in.Password), []byte(a.credentials.Password)) == 1
	if !usernameOK || !passwordOK {
		a.logger.Warn("rejected admin login", zap.String("username", username))
		return nil, ErrInvalidAdminCredentials
	}

	if a.credentials.TOTPSecret != "" && !a.totp.VerifyCode(a.credentials.TOTPSecret, strings.TrimSpace(in.Code)) {
		a.logger.Warn("rejected admin login with invalid second factor", zap.String("username", username))
		return nil, ErrInvalidAdminCredentials
	}

	token, err := a.tokens.Generate(Principal{
		Subject:  string(RoleAdmin),
		Role:     RoleAdmin,
		Username: a.credentials.Username,
	}, AdminTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("could not issue admin token: %w", err)
	}

	return &AdminSession{Token: token, Username: a.credentials.Username}, nil
}
