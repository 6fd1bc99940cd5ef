package main

import (
	"context"

	"github.com/google/uuid"
	appErrors "github.com/sebuszqo/PayBillsWithUs/internal/errors"
	"github.com/sebuszqo/PayBillsWithUs/internal/paymentmethod"
	"github.com/sebuszqo/PayBillsWithUs/internal/user"
)

// profileAddresses serves customer profile addresses as payment method billing defaults.
type profileAddresses struct {
	users user.Service
}

func (p profileAddresses) ProfileAddress(ctx context.Context, customerID uuid.UUID) (*paymentmethod.BillingAddress, error) {
	address, err := p.users.ProfileAddress(ctx, customerID)
	if err != nil {
		if appErrors.IsNotFound(err) {
			return nil, appErrors.NewNotFoundError("Customer")
		}
		return nil, err
	}
	return &paymentmethod.BillingAddress{
		Line1:      address.Line1,
		Line2:      address.Line2,
		City:       address.City,
		State:      address.State,
		PostalCode: address.PostalCode,
	}, nil
}
