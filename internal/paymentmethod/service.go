package paymentmethod

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	appErrors "github.com/sebuszqo/PayBillsWithUs/internal/errors"
	"go.uber.org/zap"
)

const resourceName = "Payment method"

// ProfileReader returns the customer's profile address, or a NotFoundError for an unknown customer.
type ProfileReader interface {
	ProfileAddress(ctx context.Context, customerID uuid.UUID) (*BillingAddress, error)
}

type Encrypter interface {
	Encrypt(plaintext string) (string, error)
}

type Service interface {
	List(ctx context.Context, customerID uuid.UUID) ([]View, error)
	Create(ctx context.Context, customerID uuid.UUID, in CreateInput) (*View, error)
	Update(ctx context.Context, customerID, methodID uuid.UUID, in UpdateInput) (*View, error)
	Delete(ctx context.Context, customerID, methodID uuid.UUID) error
}

type service struct {
	repo     Repository
	profiles ProfileReader
	cipher   Encrypter
	logger   *zap.Logger
	now      func() time.Time
}

func NewPaymentMethodService(repo Repository, profiles ProfileReader, cipher Encrypter, logger *zap.Logger) Service {
	return &service{
		repo:     repo,
		profiles: profiles,
		cipher:   cipher,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) List(ctx context.Context, customerID uuid.UUID) ([]View, error) {
	methods, err := s.repo.ListByUser(ctx, customerID)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(methods))
	for i := range methods {
		views = append(views, methods[i].View())
	}
	return views, nil
}

func (s *service) encrypt(customerID uuid.UUID, field, value string) (string, error) {
	token, err := s.cipher.Encrypt(value)
	if err != nil {
		s.logger.Error("could not encrypt payment method field",
			zap.String("customer_id", customerID.String()), zap.String("field", field), zap.Error(err))
		return "", fmt.Errorf("encrypt %s: %w", field, err)
	}
	return token, nil
}

func (s *service) Create(ctx context.Context, customerID uuid.UUID, in CreateInput) (*View, error) {
	now := s.now()
	if err := validateCreate(&in, now); err != nil {
		return nil, err
	}

	profileAddress, err := s.profiles.ProfileAddress(ctx, customerID)
	if err != nil {
		return nil, err
	}
	billing := in.BillingAddress
	if in.UseProfileAddress || billing == nil {
		billing = profileAddress
	}

	accountToken, err := s.encrypt(customerID, "accountNumber", in.AccountNumber)
	if err != nil {
		return nil, err
	}
	var securityToken *string
	if in.SecurityCode != nil {
		token, err := s.encrypt(customerID, "securityCode", *in.SecurityCode)
		if err != nil {
			return nil, err
		}
		securityToken = &token
	}

	pm := &PaymentMethod{
		ID:             uuid.New(),
		UserID:         customerID,
		Type:           in.Type,
		Provider:       in.Provider,
		AccountNumber:  accountToken,
		RoutingNumber:  in.RoutingNumber,
		CardholderName: in.CardholderName,
		Nickname:       in.Nickname,
		ExpMonth:       in.ExpMonth,
		ExpYear:        in.ExpYear,
		Brand:          in.Brand,
		Last4:          lastFour(in.AccountNumber),
		SecurityCode:   securityToken,
		Billing:        billing,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.repo.WithinTx(ctx, func(tx TxRepository) error {
		if in.IsDefault {
			if err := tx.ClearDefault(ctx, customerID); err != nil {
				return err
			}
			pm.IsDefault = true
		} else {
			hasDefault, err := tx.HasDefault(ctx, customerID)
			if err != nil {
				return err
			}
			// the first method, or any method added while none is default, becomes the default
			pm.IsDefault = !hasDefault
		}
		return tx.Insert(ctx, pm)
	})
	if err != nil {
		return nil, err
	}

	view := pm.View()
	return &view, nil
}

// findOwned hides whether a method is missing or belongs to another customer.
func findOwned(ctx context.Context, tx TxRepository, customerID, methodID uuid.UUID) (*PaymentMethod, error) {
	pm, err := tx.FindByID(ctx, methodID)
	if err != nil {
		if errors.Is(err, ErrPaymentMethodNotFound) {
			return nil, appErrors.NewNotFoundError(resourceName)
		}
		return nil, err
	}
	if pm.UserID != customerID {
		return nil, appErrors.NewNotFoundError(resourceName)
	}
	return pm, nil
}

func (s *service) Update(ctx context.Context, customerID, methodID uuid.UUID, in UpdateInput) (*View, error) {
	now := s.now()

	var profileAddress *BillingAddress
	if usesProfileAddress(&in) {
		addr, err := s.profiles.ProfileAddress(ctx, customerID)
		if err != nil {
			if appErrors.IsNotFound(err) {
				return nil, appErrors.NewNotFoundError(resourceName)
			}
			return nil, err
		}
		profileAddress = addr
	}

	var result *PaymentMethod
	err := s.repo.WithinTx(ctx, func(tx TxRepository) error {
		existing, err := findOwned(ctx, tx, customerID, methodID)
		if err != nil {
			return err
		}
		if err := validateUpdate(existing.Type, &in, now); err != nil {
			return err
		}

		changed, err := s.applyFields(customerID, existing, &in, profileAddress)
		if err != nil {
			return err
		}

		promoteReplacement := uuid.Nil
		if in.IsDefault != nil {
			switch {
			case *in.IsDefault && !existing.IsDefault:
				if err := tx.ClearDefault(ctx, customerID); err != nil {
					return err
				}
				existing.IsDefault = true
				changed = true
			case !*in.IsDefault && existing.IsDefault:
				replacement, err := tx.FindEarliestExcept(ctx, customerID, existing.ID)
				switch {
				case errors.Is(err, ErrPaymentMethodNotFound):
					s.logger.Warn("kept sole payment method as default after a demotion request",
						zap.String("customer_id", customerID.String()),
						zap.String("payment_method_id", existing.ID.String()))
				case err != nil:
					return err
				default:
					existing.IsDefault = false
					promoteReplacement = replacement.ID
					changed = true
				}
			}
		}

		result = existing
		if !changed {
			return nil
		}

		existing.UpdatedAt = now
		if err := tx.Update(ctx, existing); err != nil {
			return err
		}
		if promoteReplacement != uuid.Nil {
			return tx.SetDefault(ctx, promoteReplacement)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	view := result.View()
	return &view, nil
}

// applyFields copies the patch onto pm and reports whether anything besides the default flag changed.
func (s *service) applyFields(customerID uuid.UUID, pm *PaymentMethod, in *UpdateInput, profileAddress *BillingAddress) (bool, error) {
	changed := false

	if in.Provider.HasValue() {
		pm.Provider = *in.Provider.Value
		changed = true
	}
	if in.Nickname.Set {
		pm.Nickname = in.Nickname.Apply(pm.Nickname)
		changed = true
	}
	if in.CardholderName.Set {
		pm.CardholderName = in.CardholderName.Apply(pm.CardholderName)
		changed = true
	}
	if in.Brand.Set {
		pm.Brand = in.Brand.Apply(pm.Brand)
		changed = true
	}
	if in.RoutingNumber.Set {
		pm.RoutingNumber = in.RoutingNumber.Apply(pm.RoutingNumber)
		changed = true
	}
	if in.ExpMonth.Set {
		pm.ExpMonth = in.ExpMonth.Apply(pm.ExpMonth)
		changed = true
	}
	if in.ExpYear.Set {
		pm.ExpYear = in.ExpYear.Apply(pm.ExpYear)
		changed = true
	}

	if in.AccountNumber.HasValue() {
		token, err := s.encrypt(customerID, "accountNumber", *in.AccountNumber.Value)
		if err != nil {
			return false, err
		}
		pm.AccountNumber = token
		pm.Last4 = lastFour(*in.AccountNumber.Value)
		changed = true
	}
	if in.SecurityCode.HasValue() {
		token, err := s.encrypt(customerID, "securityCode", *in.SecurityCode.Value)
		if err != nil {
			return false, err
		}
		pm.SecurityCode = &token
		changed = true
	}

	switch {
	case usesProfileAddress(in):
		pm.Billing = profileAddress
		changed = true
	case in.BillingAddress.HasValue():
		addr := *in.BillingAddress.Value
		pm.Billing = &addr
		changed = true
	case in.BillingAddress.IsNull(), in.UseProfileAddress != nil:
		// explicit null, or useProfileAddress=false without an address, clears the snapshot
		pm.Billing = nil
		changed = true
	}

	return changed, nil
}

func (s *service) Delete(ctx context.Context, customerID, methodID uuid.UUID) error {
	return s.repo.WithinTx(ctx, func(tx TxRepository) error {
		existing, err := findOwned(ctx, tx, customerID, methodID)
		if err != nil {
			return err
		}
		if err := tx.Delete(ctx, existing.ID); err != nil {
			return err
		}
		if !existing.IsDefault {
			return nil
		}

		replacement, err := tx.FindEarliestExcept(ctx, customerID, existing.ID)
		if errors.Is(err, ErrPaymentMethodNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.SetDefault(ctx, replacement.ID)
	})
}
