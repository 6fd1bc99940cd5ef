package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	manager := NewJWTManager("test-secret")

	token, err := manager.Generate(Principal{Subject: "agent-1", Role: RoleAgent, Username: "jdoe"}, AgentTokenDuration)
	require.NoError(t, err)

	principal, err := manager.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "agent-1", principal.Subject)
	assert.Equal(t, RoleAgent, principal.Role)
	assert.Equal(t, "jdoe", principal.Username)
}

func TestJWTManager_Expired(t *testing.T) {
	manager := NewJWTManager("test-secret")
	manager.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := manager.Generate(Principal{Subject: "c1", Role: RoleCustomer}, time.Hour)
	require.NoError(t, err)

	_, err = manager.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredJWTToken)
}

func TestJWTManager_WrongSecret(t *testing.T) {
	token, err := NewJWTManager("one").Generate(Principal{Subject: "c1", Role: RoleCustomer}, time.Hour)
	require.NoError(t, err)

	_, err = NewJWTManager("two").Validate(token)
	assert.ErrorIs(t, err, ErrInvalidJWTToken)
}

func TestJWTManager_RejectsUnsignedToken(t *testing.T) {
	claims := &Claims{Role: RoleAdmin, StandardClaims: jwt.StandardClaims{Subject: "admin", ExpiresAt: time.Now().Add(time.Hour).Unix()}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTManager("secret").Validate(token)
	assert.ErrorIs(t, err, ErrInvalidJWTToken)
}

func TestJWTManager_RequiresSubjectAndRole(t *testing.T) {
	_, err := NewJWTManager("secret").Generate(Principal{Role: RoleAdmin}, time.Hour)
	assert.Error(t, err)
}
