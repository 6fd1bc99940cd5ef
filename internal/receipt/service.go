package receipt

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service interface {
	ListForCustomer(ctx context.Context, customerID uuid.UUID) (*History, error)
	Search(ctx context.Context, search string) ([]Transaction, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewReceiptService(repo Repository, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		logger: logger,
	}
}

// ListForCustomer returns the customer's receipts, newest first, and what they add up to.
func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID) (*History, error) {
	receipts, err := s.repo.ListByUser(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return &History{Receipts: receipts, TotalPaid: Total(receipts)}, nil
}

func (s *service) Search(ctx context.Context, search string) ([]Transaction, error) {
	return s.repo.Search(ctx, search)
}

func Total(receipts []Receipt) decimal.Decimal {
	total := decimal.Zero
	for _, rc := range receipts {
		total = total.Add(rc.Amount)
	}
	return total
}
