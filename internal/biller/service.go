package biller

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	appErrors "github.com/sebuszqo/PayBillsWithUs/internal/errors"
	"go.uber.org/zap"
)

const (
	resourceName     = "Biller"
	msgInvalidBiller = "Invalid biller payload"
	msgCategory      = "Category must be one of UTILITIES, TELECOM, INSURANCE, CREDIT_CARD, LOAN, RENT, SUBSCRIPTION, OTHER"
)

type Service interface {
	ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]WithReceipts, error)
	Create(ctx context.Context, customerID uuid.UUID, in CreateInput) (*Biller, error)
	Update(ctx context.Context, customerID, billerID uuid.UUID, in UpdateInput) (*Biller, error)
	Delete(ctx context.Context, customerID, billerID uuid.UUID) error
	ListWithOwners(ctx context.Context, search string) ([]WithOwner, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

func NewBillerService(repo Repository, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func optionalText(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]WithReceipts, error) {
	return s.repo.ListByUser(ctx, customerID)
}

func (s *service) Create(ctx context.Context, customerID uuid.UUID, in CreateInput) (*Biller, error) {
	var ve appErrors.ValidationErrors
	name := strings.TrimSpace(in.Name)
	if name == "" {
		ve.Add("name", "Name is required")
	}
	if !in.Category.Valid() {
		ve.Add("category", msgCategory)
	}
	accountID := strings.TrimSpace(in.AccountID)
	if accountID == "" {
		ve.Add("accountId", "Account ID is required")
	}
	if err := ve.Err(msgInvalidBiller); err != nil {
		return nil, err
	}

	now := s.now()
	biller := &Biller{
		ID:          uuid.New(),
		UserID:      customerID,
		Name:        name,
		Category:    in.Category,
		AccountID:   accountID,
		ContactInfo: optionalText(in.ContactInfo),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, biller); err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			return nil, appErrors.NewNotFoundError("Customer")
		}
		return nil, err
	}

	s.logger.Info("created biller", zap.String("biller_id", biller.ID.String()), zap.String("customer_id", customerID.String()))
	return biller, nil
}

// owned returns the biller only when it belongs to customerID. A foreign biller looks missing.
func (s *service) owned(ctx context.Context, customerID, billerID uuid.UUID) (*Biller, error) {
	biller, err := s.repo.GetByID(ctx, billerID)
	if err != nil {
		if errors.Is(err, ErrBillerNotFound) {
			return nil, appErrors.NewNotFoundError(resourceName)
		}
		return nil, err
	}
	if biller.UserID != customerID {
		return nil, appErrors.NewNotFoundError(resourceName)
	}
	return biller, nil
}

func (s *service) Update(ctx context.Context, customerID, billerID uuid.UUID, in UpdateInput) (*Biller, error) {
	var ve appErrors.ValidationErrors
	var name, accountID string
	if in.Name != nil {
		if name = strings.TrimSpace(*in.Name); name == "" {
			ve.Add("name", "Name cannot be blank")
		}
	}
	if in.Category != nil && !in.Category.Valid() {
		ve.Add("category", msgCategory)
	}
	if in.AccountID != nil {
		if accountID = strings.TrimSpace(*in.AccountID); accountID == "" {
			ve.Add("accountId", "Account ID cannot be blank")
		}
	}
	if err := ve.Err(msgInvalidBiller); err != nil {
		return nil, err
	}

	biller, err := s.owned(ctx, customerID, billerID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		biller.Name = name
	}
	if in.Category != nil {
		biller.Category = *in.Category
	}
	if in.AccountID != nil {
		biller.AccountID = accountID
	}
	if in.ContactInfo.Set {
		biller.ContactInfo = optionalText(in.ContactInfo.Apply(biller.ContactInfo))
	}
	biller.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, biller); err != nil {
		if errors.Is(err, ErrBillerNotFound) {
			return nil, appErrors.NewNotFoundError(resourceName)
		}
		return nil, err
	}
	return biller, nil
}

func (s *service) Delete(ctx context.Context, customerID, billerID uuid.UUID) error {
	if _, err := s.owned(ctx, customerID, billerID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, billerID); err != nil {
		if errors.Is(err, ErrBillerNotFound) {
			return appErrors.NewNotFoundError(resourceName)
		}
		return err
	}
	s.logger.Info("deleted biller", zap.String("biller_id", billerID.String()), zap.String("customer_id", customerID.String()))
	return nil
}

func (s *service) ListWithOwners(ctx context.Context, search string) ([]WithOwner, error) {
	return s.repo.ListWithOwners(ctx, search)
}
