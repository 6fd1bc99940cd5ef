package receipt

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sebuszqo/PayBillsWithUs/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiptRepository(t *testing.T) {
	db := testdb.New(t)
	repo := NewReceiptRepository(db)
	ctx := context.Background()

	ada, grace := uuid.New(), uuid.New()
	testdb.Customer(t, db, ada.String(), "ada@example.com", "CUST-20001")
	testdb.Customer(t, db, grace.String(), "grace@example.com", "CUST-20002")

	insertBiller := func(userID uuid.UUID, name string) uuid.UUID {
		id := uuid.New()
		_, err := db.ExecContext(ctx, `
			INSERT INTO billers (id, user_id, name, category, account_id) VALUES ($1, $2, $3, 'UTILITIES', 'ACC')`,
			id, userID, name)
		require.NoError(t, err)
		return id
	}
	insertReceipt := func(userID, billerID uuid.UUID, amount string, paidOn time.Time, confirmation string) {
		_, err := db.ExecContext(ctx, `
			INSERT INTO receipts (id, user_id, biller_id, amount, paid_on, confirmation, notes)
			VALUES ($1, $2, $3, $4, $5, $6, 'autopay')`,
			uuid.New(), userID, billerID, amount, paidOn, confirmation)
		require.NoError(t, err)
	}

	now := time.Now().UTC()
	adaWater := insertBiller(ada, "Water")
	graceRent := insertBiller(grace, "Rent")
	insertReceipt(ada, adaWater, "10.00", now.AddDate(0, -1, 0), "CONF-OLD")
	insertReceipt(ada, adaWater, "25.75", now, "CONF-NEW")
	insertReceipt(grace, graceRent, "1200.00", now.AddDate(0, 0, -3), "RENT-77")

	t.Run("list by user", func(t *testing.T) {
		receipts, err := repo.ListByUser(ctx, ada)
		require.NoError(t, err)
		require.Len(t, receipts, 2)
		assert.Equal(t, "CONF-NEW", receipts[0].Confirmation)
		assert.Equal(t, "25.75", receipts[0].Amount.StringFixed(2))
		assert.Equal(t, "Water", receipts[0].Biller.Name)
		assert.Equal(t, "UTILITIES", receipts[0].Biller.Category)
		require.NotNil(t, receipts[0].Notes)
		assert.Nil(t, receipts[0].DownloadURL)
	})

	t.Run("search", func(t *testing.T) {
		all, err := repo.Search(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 3)

		byConfirmation, err := repo.Search(ctx, "rent-")
		require.NoError(t, err)
		require.Len(t, byConfirmation, 1)
		assert.Equal(t, "grace@example.com", byConfirmation[0].User.Email)

		byCustomerNumber, err := repo.Search(ctx, "cust-20001")
		require.NoError(t, err)
		assert.Len(t, byCustomerNumber, 2)
	})
}
