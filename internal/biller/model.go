package biller

import (
	"time"

	"github.com/google/uuid"
	"github.com/sebuszqo/PayBillsWithUs/internal/patch"
	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryUtilities    Category = "UTILITIES"
	CategoryTelecom      Category = "TELECOM"
	CategoryInsurance    Category = "INSURANCE"
	CategoryCreditCard   Category = "CREDIT_CARD"
	CategoryLoan         Category = "LOAN"
	CategoryRent         Category = "RENT"
	CategorySubscription Category = "SUBSCRIPTION"
	CategoryOther        Category = "OTHER"
)

var categories = map[Category]struct{}{
	CategoryUtilities:    {},
	CategoryTelecom:      {},
	CategoryInsurance:    {},
	CategoryCreditCard:   {},
	CategoryLoan:         {},
	CategoryRent:         {},
	CategorySubscription: {},
	CategoryOther:        {},
}

func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

type Biller struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"userId"`
	Name        string    `json:"name"`
	Category    Category  `json:"category"`
	AccountID   string    `json:"accountId"`
	ContactInfo *string   `json:"contactInfo"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RecentReceipt is a receipt shown inline with its biller.
type RecentReceipt struct {
	ID           uuid.UUID       `json:"id"`
	Amount       decimal.Decimal `json:"amount"`
	PaidOn       time.Time       `json:"paidOn"`
	Confirmation string          `json:"confirmation"`
	DownloadURL  *string         `json:"downloadUrl"`
	Notes        *string         `json:"notes"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type WithReceipts struct {
	Biller
	Receipts []RecentReceipt `json:"receipts"`
}

type Owner struct {
	ID             uuid.UUID `json:"id"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Email          string    `json:"email"`
	Phone          *string   `json:"phone"`
	CustomerNumber string    `json:"customerNumber"`
}

// WithOwner is the admin console view of a biller and the customer it belongs to.
type WithOwner struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Category    Category  `json:"category"`
	AccountID   string    `json:"accountId"`
	ContactInfo *string   `json:"contactInfo"`
	User        Owner     `json:"user"`
}

type CreateInput struct {
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	AccountID   string   `json:"accountId"`
	ContactInfo *string  `json:"contactInfo"`
}

type UpdateInput struct {
	Name        *string             `json:"name"`
	Category    *Category           `json:"category"`
	AccountID   *string             `json:"accountId"`
	ContactInfo patch.Field[string] `json:"contactInfo"`
}
