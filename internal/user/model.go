package user

import (
	"time"

	"github.com/google/uuid"
	"github.com/sebuszqo/PayBillsWithUs/internal/patch"
)

const dateLayout = "2006-01-02"

type User struct {
	ID             uuid.UUID
	Email          string
	PasswordHash   string
	FirstName      string
	LastName       string
	CustomerNumber string
	DateOfBirth    time.Time
	SSNLast4       string
	Phone          *string
	AddressLine1   string
	AddressLine2   *string
	City           string
	State          string
	PostalCode     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Summary is returned after registration, login and password reset.
type Summary struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	CustomerNumber string    `json:"customerNumber"`
}

type Profile struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	CustomerNumber string    `json:"customerNumber"`
	DateOfBirth    string    `json:"dateOfBirth"`
	SSNLast4       string    `json:"ssnLast4"`
	Phone          *string   `json:"phone"`
	AddressLine1   string    `json:"addressLine1"`
	AddressLine2   *string   `json:"addressLine2"`
	City           string    `json:"city"`
	State          string    `json:"state"`
	PostalCode     string    `json:"postalCode"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Address is the profile address offered to payment methods as a billing default.
type Address struct {
	Line1      string
	Line2      *string
	City       string
	State      string
	PostalCode string
}

func (u *User) Summary() Summary {
	return Summary{
		ID:             u.ID,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		CustomerNumber: u.CustomerNumber,
	}
}

func (u *User) Profile() Profile {
	return Profile{
		ID:             u.ID,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		CustomerNumber: u.CustomerNumber,
		DateOfBirth:    u.DateOfBirth.Format(dateLayout),
		SSNLast4:       u.SSNLast4,
		Phone:          u.Phone,
		AddressLine1:   u.AddressLine1,
		AddressLine2:   u.AddressLine2,
		City:           u.City,
		State:          u.State,
		PostalCode:     u.PostalCode,
		CreatedAt:      u.CreatedAt,
	}
}

func (u *User) Address() Address {
	return Address{
		Line1:      u.AddressLine1,
		Line2:      u.AddressLine2,
		City:       u.City,
		State:      u.State,
		PostalCode: u.PostalCode,
	}
}

type RegisterInput struct {
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	DateOfBirth  string  `json:"dateOfBirth"`
	SSNLast4     string  `json:"ssnLast4"`
	Phone        *string `json:"phone"`
	AddressLine1 string  `json:"addressLine1"`
	AddressLine2 *string `json:"addressLine2"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	PostalCode   string  `json:"postalCode"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileInput: nil pointers keep the stored value; phone and addressLine2 may be cleared with null.
type UpdateProfileInput struct {
	Email        *string             `json:"email"`
	Phone        patch.Field[string] `json:"phone"`
	AddressLine1 *string             `json:"addressLine1"`
	AddressLine2 patch.Field[string] `json:"addressLine2"`
	City         *string             `json:"city"`
	State        *string             `json:"state"`
	PostalCode   *string             `json:"postalCode"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type PasswordResetRequest struct {
	Email       string `json:"email"`
	SSNLast4    string `json:"ssnLast4"`
	DateOfBirth string `json:"dateOfBirth"`
}

type ResetPasswordInput struct {
	Token           string `json:"token"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type AuthResult struct {
	Token string  `json:"token"`
	User  Summary `json:"user"`
}

// ResetTicket describes an issued reset token. The token itself is only shown outside production.
type ResetTicket struct {
	Token     string
	Email     string
	ExpiresAt time.Time
}

type ResetToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// IdentityConflicts reports which unique identity details are already registered.
type IdentityConflicts struct {
	Email       bool
	SSNLast4    bool
	DateOfBirth bool
}
