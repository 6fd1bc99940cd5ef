package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

var (
	ErrInvalidJWTToken = errors.New("JWT token is invalid")
	ErrExpiredJWTToken = errors.New("JWT token is expired")
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
	RoleAdmin    Role = "admin"
)

const (
	CustomerTokenDuration = 12 * time.Hour
	AgentTokenDuration    = 4 * time.Hour
	AdminTokenDuration    = 4 * time.Hour
)

// Principal is the authenticated caller carried on the request context.
type Principal struct {
	Subject  string
	Role     Role
	Username string
	Email    string
}

type Claims struct {
	Role     Role   `json:"role"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	jwt.StandardClaims
}

type TokenIssuer interface {
	Generate(p Principal, duration time.Duration) (string, error)
}

type TokenValidator interface {
	Validate(tokenString string) (*Principal, error)
}

type JWTManager struct {
	secret []byte
	now    func() time.Time
}

func NewJWTManager(secret string) *JWTManager {
	return &JWTManager{
		secret: []byte(secret),
		now:    time.Now,
	}
}

func (j *JWTManager) Generate(p Principal, duration time.Duration) (string, error) {
	if p.Subject == "" || p.Role == "" {
		return "", fmt.Errorf("token principal needs a subject and a role")
	}
	now := j.now()
	claims := &Claims{
		Role:     p.Role,
		Username: p.Username,
		Email:    p.Email,
		StandardClaims: jwt.StandardClaims{
			Subject:   p.Subject,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(duration).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

func (j *JWTManager) Validate(tokenString string) (*Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidJWTToken
		}
		return j.secret, nil
	})
	if err != nil {
		var validationErr *jwt.ValidationError
		if errors.As(err, &validationErr) && validationErr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrExpiredJWTToken
		}
		return nil, ErrInvalidJWTToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidJWTToken
	}

	return &Principal{
		Subject:  claims.Subject,
		Role:     claims.Role,
		Username: claims.Username,
		Email:    claims.Email,
	}, nil
}
