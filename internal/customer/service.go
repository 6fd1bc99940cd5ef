package customer

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sebuszqo/PayBillsWithUs/internal/biller"
	appErrors "github.com/sebuszqo/PayBillsWithUs/internal/errors"
	"github.com/sebuszqo/PayBillsWithUs/internal/paymentmethod"
	"github.com/sebuszqo/PayBillsWithUs/internal/receipt"
	"go.uber.org/zap"
)

type BillerLister interface {
	ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]biller.WithReceipts, error)
}

type PaymentMethodLister interface {
	List(ctx context.Context, customerID uuid.UUID) ([]paymentmethod.View, error)
}

type ReceiptLister interface {
	ListForCustomer(ctx context.Context, customerID uuid.UUID) (*receipt.History, error)
}

type Service interface {
	Search(ctx context.Context, search string) ([]Summary, error)
	Detail(ctx context.Context, customerID uuid.UUID) (*Detail, error)
}

type service struct {
	repo           Repository
	billers        BillerLister
	paymentMethods PaymentMethodLister
	receipts       ReceiptLister
	logger         *zap.Logger
}

func NewCustomerService(repo Repository, billers BillerLister, paymentMethods PaymentMethodLister, receipts ReceiptLister, logger *zap.Logger) Service {
	return &service{
		repo:           repo,
		billers:        billers,
		paymentMethods: paymentMethods,
		receipts:       receipts,
		logger:         logger,
	}
}

func (s *service) Search(ctx context.Context, search string) ([]Summary, error) {
	return s.repo.Search(ctx, search)
}

func (s *service) Detail(ctx context.Context, customerID uuid.UUID) (*Detail, error) {
	profile, err := s.repo.GetProfile(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			return nil, appErrors.NewNotFoundError("Customer")
		}
		return nil, err
	}

	billers, err := s.billers.ListForCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	methods, err := s.paymentMethods.List(ctx, customerID)
	if err != nil {
		return nil, err
	}
	history, err := s.receipts.ListForCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	detail := &Detail{
		Profile:        *profile,
		Billers:        make([]biller.Biller, 0, len(billers)),
		PaymentMethods: methods,
		Receipts:       history.Receipts,
		TotalPaid:      history.TotalPaid,
	}
	for _, b := range billers {
		detail.Billers = append(detail.Billers, b.Biller)
	}
	return detail, nil
}
