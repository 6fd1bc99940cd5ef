package agent

import (
	"time"

	"github.com/google/uuid"
	"github.com/sebuszqo/PayBillsWithUs/internal/patch"
)

type Agent struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	FullName     string
	Email        *string
	Phone        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type AssignedCustomer struct {
	ID             uuid.UUID `json:"id"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Email          string    `json:"email"`
	Phone          *string   `json:"phone"`
	CustomerNumber string    `json:"customerNumber"`
}

// View never carries the password hash.
type View struct {
	ID        uuid.UUID          `json:"id"`
	Username  string             `json:"username"`
	FullName  string             `json:"fullName"`
	Email     *string            `json:"email"`
	Phone     *string            `json:"phone"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
	Customers []AssignedCustomer `json:"customers,omitempty"`
}

func (a *Agent) View() View {
	return View{
		ID:        a.ID,
		Username:  a.Username,
		FullName:  a.FullName,
		Email:     a.Email,
		Phone:     a.Phone,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

type CreateInput struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	FullName string  `json:"fullName"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
}

type UpdateInput struct {
	Password *string             `json:"password"`
	FullName *string             `json:"fullName"`
	Email    patch.Field[string] `json:"email"`
	Phone    patch.Field[string] `json:"phone"`
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Session struct {
	Token string `json:"token"`
	Agent View   `json:"agent"`
}
