package paymentmethod

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	appErrors "github.com/sebuszqo/PayBillsWithUs/internal/errors"
	"github.com/sebuszqo/PayBillsWithUs/internal/patch"
)

const (
	minCardDigits    = 12
	minAccountDigits = 4
	maxExpiryYears   = 15

	msgInvalidPayload = "Invalid payment method payload"
)

var (
	whitespacePattern   = regexp.MustCompile(`\s+`)
	nonDigitPattern     = regexp.MustCompile(`\D`)
	securityCodePattern = regexp.MustCompile(`^\d{3,4}$`)
	routingPattern      = regexp.MustCompile(`^\d{9}$`)
)

func stripWhitespace(s string) string {
	return whitespacePattern.ReplaceAllString(s, "")
}

func digitsOnly(s string) string {
	return nonDigitPattern.ReplaceAllString(s, "")
}

func lastFour(accountNumber string) string {
	digits := digitsOnly(accountNumber)
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

func cleanOptional(s *string, clean func(string) string) *string {
	if s == nil {
		return nil
	}
	v := clean(*s)
	if v == "" {
		return nil
	}
	return &v
}

// cleanField applies clean to a set value; a value that cleans down to "" becomes an explicit null.
func cleanField(f *patch.Field[string], clean func(string) string) {
	if !f.HasValue() {
		return
	}
	f.Value = cleanOptional(f.Value, clean)
}

// validRoutingNumber checks the ABA weighted checksum (3, 7, 1).
func validRoutingNumber(routing string) bool {
	if !routingPattern.MatchString(routing) {
		return false
	}
	weights := [3]int{3, 7, 1}
	sum := 0
	for i, r := range routing {
		sum += int(r-'0') * weights[i%3]
	}
	return sum%10 == 0
}

func normalizeAddress(addr *BillingAddress) {
	addr.Line1 = strings.TrimSpace(addr.Line1)
	addr.Line2 = cleanOptional(addr.Line2, strings.TrimSpace)
	addr.City = strings.TrimSpace(addr.City)
	addr.State = strings.TrimSpace(addr.State)
	addr.PostalCode = strings.TrimSpace(addr.PostalCode)
}

func validateAddress(ve *appErrors.ValidationErrors, addr *BillingAddress) {
	if addr.Line1 == "" {
		ve.Add("billingAddress.line1", "Address line 1 is required")
	}
	if addr.City == "" {
		ve.Add("billingAddress.city", "City is required")
	}
	if len(addr.State) < 2 {
		ve.Add("billingAddress.state", "State is required")
	}
	if len(addr.PostalCode) < 3 {
		ve.Add("billingAddress.postalCode", "Postal code is required")
	}
}

func validateAccountNumber(ve *appErrors.ValidationErrors, t Type, accountNumber string) {
	digits := digitsOnly(accountNumber)
	if t.IsCard() && len(digits) < minCardDigits {
		ve.Add("accountNumber", fmt.Sprintf("Card numbers must include at least %d digits.", minCardDigits))
	}
	if t == TypeBankAccount && len(digits) < minAccountDigits {
		ve.Add("accountNumber", fmt.Sprintf("Account numbers must include at least %d digits.", minAccountDigits))
	}
}

func validateExpMonth(ve *appErrors.ValidationErrors, month *int) {
	if month == nil {
		ve.Add("expMonth", "Expiration month is required for cards.")
		return
	}
	if *month < 1 || *month > 12 {
		ve.Add("expMonth", "Expiration month must be between 1 and 12.")
	}
}

func validateExpYear(ve *appErrors.ValidationErrors, year *int, now time.Time) {
	if year == nil {
		ve.Add("expYear", "Expiration year is required for cards.")
		return
	}
	current := now.Year()
	if *year < current || *year > current+maxExpiryYears {
		ve.Add("expYear", fmt.Sprintf("Expiration year must be between %d and %d.", current, current+maxExpiryYears))
	}
}

func validateSecurityCode(ve *appErrors.ValidationErrors, code *string) {
	if code == nil || !securityCodePattern.MatchString(*code) {
		ve.Add("securityCode", "CVV must be 3 or 4 digits.")
	}
}

func validateHolderName(ve *appErrors.ValidationErrors, t Type, name *string) {
	if name != nil {
		return
	}
	if t == TypeBankAccount {
		ve.Add("cardholderName", "Account owner name is required.")
		return
	}
	ve.Add("cardholderName", "Card holder name is required.")
}

func validateRoutingNumber(ve *appErrors.ValidationErrors, routing *string) {
	switch {
	case routing == nil:
		ve.Add("routingNumber", "Routing number is required for bank accounts.")
	case !routingPattern.MatchString(*routing):
		ve.Add("routingNumber", "Routing numbers must be 9 digits.")
	case !validRoutingNumber(*routing):
		ve.Add("routingNumber", "Routing number is not valid.")
	}
}

// normalize trims free text, strips whitespace from numbers and drops fields that do not apply to the type.
func (in *CreateInput) normalize() {
	in.Type = Type(strings.ToUpper(strings.TrimSpace(string(in.Type))))
	in.Provider = strings.TrimSpace(in.Provider)
	in.AccountNumber = stripWhitespace(in.AccountNumber)
	in.RoutingNumber = cleanOptional(in.RoutingNumber, stripWhitespace)
	in.CardholderName = cleanOptional(in.CardholderName, strings.TrimSpace)
	in.Nickname = cleanOptional(in.Nickname, strings.TrimSpace)
	in.Brand = cleanOptional(in.Brand, strings.TrimSpace)
	in.SecurityCode = cleanOptional(in.SecurityCode, stripWhitespace)
	if in.BillingAddress != nil {
		normalizeAddress(in.BillingAddress)
	}

	switch {
	case in.Type == TypeBankAccount:
		in.ExpMonth, in.ExpYear, in.SecurityCode = nil, nil, nil
	case in.Type.IsCard():
		in.RoutingNumber = nil
	}
}

func validateCreate(in *CreateInput, now time.Time) error {
	in.normalize()

	var ve appErrors.ValidationErrors
	if !in.Type.Valid() {
		ve.Add("type", "Type must be one of CREDIT_CARD, DEBIT_CARD or BANK_ACCOUNT.")
		return ve.Err(msgInvalidPayload)
	}
	if in.Provider == "" {
		ve.Add("provider", "Provider is required")
	}
	validateAccountNumber(&ve, in.Type, in.AccountNumber)
	validateHolderName(&ve, in.Type, in.CardholderName)

	if in.Type.IsCard() {
		validateExpMonth(&ve, in.ExpMonth)
		validateExpYear(&ve, in.ExpYear, now)
		validateSecurityCode(&ve, in.SecurityCode)
	} else {
		validateRoutingNumber(&ve, in.RoutingNumber)
	}

	if in.BillingAddress != nil && !in.UseProfileAddress {
		validateAddress(&ve, in.BillingAddress)
	}
	return ve.Err(msgInvalidPayload)
}

// validateUpdate checks a patch against the stored method's type. It normalizes in place and
// unsets fields that do not apply to that type.
func validateUpdate(t Type, in *UpdateInput, now time.Time) error {
	var ve appErrors.ValidationErrors

	if in.Provider.Set {
		cleanField(&in.Provider, strings.TrimSpace)
		if in.Provider.Value == nil {
			ve.Add("provider", "Provider is required")
		}
	}

	cleanField(&in.Nickname, strings.TrimSpace)
	cleanField(&in.Brand, strings.TrimSpace)

	if in.CardholderName.Set {
		cleanField(&in.CardholderName, strings.TrimSpace)
		validateHolderName(&ve, t, in.CardholderName.Value)
	}

	if in.AccountNumber.Set {
		if in.AccountNumber.Value == nil {
			ve.Add("accountNumber", "Account number cannot be removed.")
		} else {
			stripped := stripWhitespace(*in.AccountNumber.Value)
			in.AccountNumber.Value = &stripped
			validateAccountNumber(&ve, t, stripped)
		}
	}

	if t.IsCard() {
		in.RoutingNumber = patch.Field[string]{}
		if in.ExpMonth.Set {
			validateExpMonth(&ve, in.ExpMonth.Value)
		}
		if in.ExpYear.Set {
			validateExpYear(&ve, in.ExpYear.Value, now)
		}
		if in.SecurityCode.Set {
			cleanField(&in.SecurityCode, stripWhitespace)
			validateSecurityCode(&ve, in.SecurityCode.Value)
		}
	} else {
		in.ExpMonth = patch.Field[int]{}
		in.ExpYear = patch.Field[int]{}
		in.SecurityCode = patch.Field[string]{}
		if in.RoutingNumber.Set {
			cleanField(&in.RoutingNumber, stripWhitespace)
			validateRoutingNumber(&ve, in.RoutingNumber.Value)
		}
	}

	if in.BillingAddress.HasValue() && !usesProfileAddress(in) {
		normalizeAddress(in.BillingAddress.Value)
		validateAddress(&ve, in.BillingAddress.Value)
	}
	return ve.Err(msgInvalidPayload)
}

func usesProfileAddress(in *UpdateInput) bool {
	return in.UseProfileAddress != nil && *in.UseProfileAddress
}
