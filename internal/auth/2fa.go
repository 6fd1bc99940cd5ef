package auth

import (
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const totpIssuer = "PayBillsWithUs"

type TOTPAuthenticator struct {
	now func() time.Time
}

func NewTOTPAuthenticator() *TOTPAuthenticator {
	return &TOTPAuthenticator{now: time.Now}
}

// GenerateSecret Use SHA1 to google authenticator compatibility
func (g *TOTPAuthenticator) GenerateSecret(accountName string) (string, string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: accountName,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", fmt.Errorf("could not generate totp secret: %w", err)
	}
	return key.URL(), key.Secret(), nil
}

func (g *TOTPAuthenticator) VerifyCode(secret, code string) bool {
	valid, err := totp.ValidateCustom(code, secret, g.now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && valid
}
