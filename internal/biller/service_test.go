package biller

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	appErrors "github.com/sebuszqo/PayBillsWithUs/internal/errors"
	"github.com/sebuszqo/PayBillsWithUs/internal/patch"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type billerFixture struct {
	svc      *service
	repo     *memoryRepository
	customer Owner
	clock    time.Time
}

func newBillerFixture(t *testing.T) *billerFixture {
	t.Helper()
	f := &billerFixture{
		repo:     newMemoryRepository(),
		customer: Owner{ID: uuid.New(), FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", CustomerNumber: "CUST-12345"},
		clock:    time.Date(2025, time.May, 5, 8, 0, 0, 0, time.UTC),
	}
	f.repo.addOwner(f.customer)
	f.svc = NewBillerService(f.repo, zap.NewNop()).(*service)
	f.svc.now = func() time.Time {
		f.clock = f.clock.Add(time.Minute)
		return f.clock
	}
	return f
}

func strPtr(s string) *string {
	return &s
}

func (f *billerFixture) create(t *testing.T, name string) *Biller {
	t.Helper()
	b, err := f.svc.Create(context.Background(), f.customer.ID, CreateInput{
		Name:        name,
		Category:    CategoryUtilities,
		AccountID:   "ACC-" + name,
		ContactInfo: strPtr("support@example.com"),
	})
	require.NoError(t, err)
	return b
}

func TestCreateBiller(t *testing.T) {
	f := newBillerFixture(t)

	b, err := f.svc.Create(context.Background(), f.customer.ID, CreateInput{
		Name:        "  City Power ",
		Category:    CategoryUtilities,
		AccountID:   " 778-22 ",
		ContactInfo: strPtr("   "),
	})
	require.NoError(t, err)

	assert.Equal(t, "City Power", b.Name)
	assert.Equal(t, "778-22", b.AccountID)
	assert.Nil(t, b.ContactInfo)
	assert.Equal(t, f.customer.ID, b.UserID)
}

func TestCreateBillerValidation(t *testing.T) {
	f := newBillerFixture(t)

	_, err := f.svc.Create(context.Background(), f.customer.ID, CreateInput{Category: "GROCERIES"})

	validationErr, ok := appErrors.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, msgInvalidBiller, validationErr.Msg)
	for _, field := range []string{"name", "category", "accountId"} {
		assert.Contains(t, validationErr.Fields, field)
	}
}

func TestCreateBillerUnknownCustomer(t *testing.T) {
	f := newBillerFixture(t)

	_, err := f.svc.Create(context.Background(), uuid.New(), CreateInput{Name: "Gas", Category: CategoryUtilities, AccountID: "1"})

	assert.EqualError(t, err, "Customer not found")
}

func TestListForCustomerOrdersByNameWithRecentReceipts(t *testing.T) {
	f := newBillerFixture(t)
	water := f.create(t, "Water")
	f.create(t, "Electric")
	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		f.repo.receipts[water.ID] = append(f.repo.receipts[water.ID], RecentReceipt{
			ID:     uuid.New(),
			Amount: decimal.RequireFromString("42.50"),
			PaidOn: base.AddDate(0, i, 0),
		})
	}

	billers, err := f.svc.ListForCustomer(context.Background(), f.customer.ID)
	require.NoError(t, err)

	require.Len(t, billers, 2)
	assert.Equal(t, "Electric", billers[0].Name)
	assert.Empty(t, billers[0].Receipts)
	require.Len(t, billers[1].Receipts, 3)
	assert.Equal(t, base.AddDate(0, 4, 0), billers[1].Receipts[0].PaidOn)
}

func TestUpdateBiller(t *testing.T) {
	f := newBillerFixture(t)
	b := f.create(t, "Water")
	category := CategoryRent

	updated, err := f.svc.Update(context.Background(), f.customer.ID, b.ID, UpdateInput{
		Name:        strPtr(" Water Co "),
		Category:    &category,
		ContactInfo: patch.Null[string](),
	})
	require.NoError(t, err)

	assert.Equal(t, "Water Co", updated.Name)
	assert.Equal(t, CategoryRent, updated.Category)
	assert.Equal(t, b.AccountID, updated.AccountID)
	assert.Nil(t, updated.ContactInfo)
	assert.True(t, updated.UpdatedAt.After(b.UpdatedAt))
}

func TestUpdateBillerAbsentContactInfoIsKept(t *testing.T) {
	f := newBillerFixture(t)
	b := f.create(t, "Water")

	updated, err := f.svc.Update(context.Background(), f.customer.ID, b.ID, UpdateInput{AccountID: strPtr("ACC-2")})
	require.NoError(t, err)

	assert.Equal(t, "ACC-2", updated.AccountID)
	require.NotNil(t, updated.ContactInfo)
	assert.Equal(t, "support@example.com", *updated.ContactInfo)
}

func TestUpdateBillerValidation(t *testing.T) {
	f := newBillerFixture(t)
	bad := Category("FOOD")

	_, err := f.svc.Update(context.Background(), f.customer.ID, uuid.New(), UpdateInput{
		Name:      strPtr(" "),
		Category:  &bad,
		AccountID: strPtr(""),
	})

	validationErr, ok := appErrors.AsValidationError(err)
	require.True(t, ok)
	assert.Len(t, validationErr.Fields, 3)
}

func TestBillerOwnershipLooksLikeNotFound(t *testing.T) {
	f := newBillerFixture(t)
	b := f.create(t, "Water")
	stranger := uuid.New()
	ctx := context.Background()

	_, updateErr := f.svc.Update(ctx, stranger, b.ID, UpdateInput{Name: strPtr("Mine")})
	deleteErr := f.svc.Delete(ctx, stranger, b.ID)
	_, missingErr := f.svc.Update(ctx, f.customer.ID, uuid.New(), UpdateInput{})

	for _, err := range []error{updateErr, deleteErr, missingErr} {
		assert.True(t, appErrors.IsNotFound(err))
		assert.EqualError(t, err, "Biller not found")
	}

	stored, err := f.repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Water", stored.Name)
}

func TestDeleteBiller(t *testing.T) {
	f := newBillerFixture(t)
	b := f.create(t, "Water")

	require.NoError(t, f.svc.Delete(context.Background(), f.customer.ID, b.ID))

	_, err := f.repo.GetByID(context.Background(), b.ID)
	assert.ErrorIs(t, err, ErrBillerNotFound)
}

func TestUpdateBillerRepositoryFailure(t *testing.T) {
	f := newBillerFixture(t)
	b := f.create(t, "Water")
	f.repo.updateErr = assert.AnError

	_, err := f.svc.Update(context.Background(), f.customer.ID, b.ID, UpdateInput{Name: strPtr("Other")})

	assert.ErrorIs(t, err, assert.AnError)
}

func TestListWithOwnersSearch(t *testing.T) {
	f := newBillerFixture(t)
	f.create(t, "Water")
	f.create(t, "Electric")

	all, err := f.svc.ListWithOwners(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	matched, err := f.svc.ListWithOwners(context.Background(), "acc-wat")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "Water", matched[0].Name)
	assert.Equal(t, f.customer, matched[0].User)
}
