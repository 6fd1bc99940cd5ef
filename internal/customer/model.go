package customer

import (
	"time"

	"github.com/google/uuid"
	"github.com/sebuszqo/PayBillsWithUs/internal/biller"
	"github.com/sebuszqo/PayBillsWithUs/internal/paymentmethod"
	"github.com/sebuszqo/PayBillsWithUs/internal/receipt"
	"github.com/shopspring/decimal"
)

// Summary is a search hit in the agent and admin consoles.
type Summary struct {
	ID             uuid.UUID `json:"id"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Email          string    `json:"email"`
	Phone          *string   `json:"phone"`
	CustomerNumber string    `json:"customerNumber"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Profile struct {
	ID             uuid.UUID `json:"id"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Email          string    `json:"email"`
	Phone          *string   `json:"phone"`
	AddressLine1   string    `json:"addressLine1"`
	AddressLine2   *string   `json:"addressLine2"`
	City           string    `json:"city"`
	State          string    `json:"state"`
	PostalCode     string    `json:"postalCode"`
	CustomerNumber string    `json:"customerNumber"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Detail never carries account numbers or security codes; payment methods are public views.
type Detail struct {
	Profile
	Billers        []biller.Biller      `json:"billers"`
	PaymentMethods []paymentmethod.View `json:"paymentMethods"`
	Receipts       []receipt.Receipt    `json:"receipts"`
	TotalPaid      decimal.Decimal      `json:"totalPaid"`
}
