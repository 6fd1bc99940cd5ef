package receipt

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BillerSummary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Category string    `json:"category,omitempty"`
}

// Receipt is an immutable payment record.
type Receipt struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"userId"`
	Amount       decimal.Decimal `json:"amount"`
	PaidOn       time.Time       `json:"paidOn"`
	Confirmation string          `json:"confirmation"`
	DownloadURL  *string         `json:"downloadUrl"`
	Notes        *string         `json:"notes"`
	CreatedAt    time.Time       `json:"createdAt"`
	Biller       BillerSummary   `json:"biller"`
}

type Payer struct {
	ID             uuid.UUID `json:"id"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Email          string    `json:"email"`
	Phone          *string   `json:"phone"`
	CustomerNumber string    `json:"customerNumber"`
}

// Transaction is a receipt as listed in the admin audit, with the customer who paid it.
type Transaction struct {
	ID           uuid.UUID       `json:"id"`
	Amount       decimal.Decimal `json:"amount"`
	PaidOn       time.Time       `json:"paidOn"`
	Confirmation string          `json:"confirmation"`
	Notes        *string         `json:"notes"`
	Biller       BillerSummary   `json:"biller"`
	User         Payer           `json:"user"`
}

type History struct {
	Receipts  []Receipt       `json:"receipts"`
	TotalPaid decimal.Decimal `json:"totalPaid"`
}
