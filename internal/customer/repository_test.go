package customer

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sebuszqo/PayBillsWithUs/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerRepository(t *testing.T) {
	db := testdb.New(t)
	repo := NewCustomerRepository(db)
	ctx := context.Background()

	ada, grace := uuid.New(), uuid.New()
	testdb.Customer(t, db, ada.String(), "ada@example.com", "CUST-30001")
	testdb.Customer(t, db, grace.String(), "grace@navy.example", "CUST-30002")
	_, err := db.ExecContext(ctx, `UPDATE users SET first_name = 'Grace', last_name = 'Hopper', created_at = NOW() + INTERVAL '1 minute' WHERE id = $1`, grace)
	require.NoError(t, err)

	t.Run("search everything newest first", func(t *testing.T) {
		customers, err := repo.Search(ctx, "  ")
		require.NoError(t, err)
		require.Len(t, customers, 2)
		assert.Equal(t, grace, customers[0].ID)
	})

	t.Run("search is case insensitive", func(t *testing.T) {
		customers, err := repo.Search(ctx, "HOPPER")
		require.NoError(t, err)
		require.Len(t, customers, 1)
		assert.Equal(t, "CUST-30002", customers[0].CustomerNumber)

		byNumber, err := repo.Search(ctx, "cust-30001")
		require.NoError(t, err)
		require.Len(t, byNumber, 1)
		assert.Equal(t, ada, byNumber[0].ID)
	})

	t.Run("profile", func(t *testing.T) {
		profile, err := repo.GetProfile(ctx, ada)
		require.NoError(t, err)
		assert.Equal(t, "Springfield", profile.City)
		assert.Nil(t, profile.AddressLine2)
		require.NotNil(t, profile.Phone)

		_, err = repo.GetProfile(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrCustomerNotFound)
	})
}
