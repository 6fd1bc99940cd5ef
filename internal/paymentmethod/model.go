package paymentmethod

import (
	"time"

	"github.com/google/uuid"
	"github.com/sebuszqo/PayBillsWithUs/internal/patch"
)

type Type string

const (
	TypeCreditCard  Type = "CREDIT_CARD"
	TypeDebitCard   Type = "DEBIT_CARD"
	TypeBankAccount Type = "BANK_ACCOUNT"
)

func (t Type) Valid() bool {
	switch t {
	case TypeCreditCard, TypeDebitCard, TypeBankAccount:
		return true
	}
	return false
}

func (t Type) IsCard() bool {
	return t == TypeCreditCard || t == TypeDebitCard
}

type BillingAddress struct {
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postalCode"`
}

// PaymentMethod is the stored record. AccountNumber and SecurityCode hold encrypted tokens.
type PaymentMethod struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Type           Type
	Provider       string
	AccountNumber  string
	RoutingNumber  *string
	CardholderName *string
	Nickname       *string
	ExpMonth       *int
	ExpYear        *int
	Brand          *string
	Last4          string
	SecurityCode   *string
	Billing        *BillingAddress
	IsDefault      bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// View is the public shape of a payment method. It never carries the account number or security code.
type View struct {
	ID                  uuid.UUID `json:"id"`
	Type                Type      `json:"type"`
	Provider            string    `json:"provider"`
	RoutingNumber       *string   `json:"routingNumber"`
	CardholderName      *string   `json:"cardholderName"`
	Nickname            *string   `json:"nickname"`
	ExpMonth            *int      `json:"expMonth"`
	ExpYear             *int      `json:"expYear"`
	Brand               *string   `json:"brand"`
	Last4               string    `json:"last4"`
	BillingAddressLine1 *string   `json:"billingAddressLine1"`
	BillingAddressLine2 *string   `json:"billingAddressLine2"`
	BillingCity         *string   `json:"billingCity"`
	BillingState        *string   `json:"billingState"`
	BillingPostalCode   *string   `json:"billingPostalCode"`
	IsDefault           bool      `json:"isDefault"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

func (pm *PaymentMethod) View() View {
	v := View{
		ID:             pm.ID,
		Type:           pm.Type,
		Provider:       pm.Provider,
		RoutingNumber:  pm.RoutingNumber,
		CardholderName: pm.CardholderName,
		Nickname:       pm.Nickname,
		ExpMonth:       pm.ExpMonth,
		ExpYear:        pm.ExpYear,
		Brand:          pm.Brand,
		Last4:          pm.Last4,
		IsDefault:      pm.IsDefault,
		CreatedAt:      pm.CreatedAt,
		UpdatedAt:      pm.UpdatedAt,
	}
	if b := pm.Billing; b != nil {
		v.BillingAddressLine1 = &b.Line1
		v.BillingAddressLine2 = b.Line2
		v.BillingCity = &b.City
		v.BillingState = &b.State
		v.BillingPostalCode = &b.PostalCode
	}
	return v
}

type CreateInput struct {
	Type              Type            `json:"type"`
	Provider          string          `json:"provider"`
	AccountNumber     string          `json:"accountNumber"`
	RoutingNumber     *string         `json:"routingNumber"`
	CardholderName    *string         `json:"cardholderName"`
	Nickname          *string         `json:"nickname"`
	ExpMonth          *int            `json:"expMonth"`
	ExpYear           *int            `json:"expYear"`
	Brand             *string         `json:"brand"`
	SecurityCode      *string         `json:"securityCode"`
	BillingAddress    *BillingAddress `json:"billingAddress"`
	UseProfileAddress bool            `json:"useProfileAddress"`
	IsDefault         bool            `json:"isDefault"`
}

// UpdateInput fields left unset are preserved; set-to-null clears optional values.
type UpdateInput struct {
	Provider          patch.Field[string]         `json:"provider"`
	Nickname          patch.Field[string]         `json:"nickname"`
	CardholderName    patch.Field[string]         `json:"cardholderName"`
	ExpMonth          patch.Field[int]            `json:"expMonth"`
	ExpYear           patch.Field[int]            `json:"expYear"`
	Brand             patch.Field[string]         `json:"brand"`
	AccountNumber     patch.Field[string]         `json:"accountNumber"`
	RoutingNumber     patch.Field[string]         `json:"routingNumber"`
	SecurityCode      patch.Field[string]         `json:"securityCode"`
	BillingAddress    patch.Field[BillingAddress] `json:"billingAddress"`
	UseProfileAddress *bool                       `json:"useProfileAddress"`
	IsDefault         *bool                       `json:"isDefault"`
}
