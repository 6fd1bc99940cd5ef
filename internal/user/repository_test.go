package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sebuszqo/PayBillsWithUs/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	db := testdb.New(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	phone := "555-0199"
	user := &User{
		ID: uuid.New(), Email: "grace@example.com", PasswordHash: "hash", FirstName: "Grace", LastName: "Hopper",
		CustomerNumber: "CUST-30001", DateOfBirth: time.Date(1985, 12, 9, 0, 0, 0, 0, time.UTC), SSNLast4: "4321",
		Phone: &phone, AddressLine1: "2 Navy Way", City: "Arlington", State: "VA", PostalCode: "22201",
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.createUser(ctx, user))

	t.Run("lookups", func(t *testing.T) {
		byEmail, err := repo.getUserByEmail(ctx, "grace@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)
		require.NotNil(t, byEmail.Phone)
		assert.Equal(t, phone, *byEmail.Phone)
		assert.Nil(t, byEmail.AddressLine2)

		_, err = repo.getUserByID(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrUserNotFound)

		exists, err := repo.userExists(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, exists)

		taken, err := repo.customerNumberExists(ctx, "CUST-30001")
		require.NoError(t, err)
		assert.True(t, taken)
	})

	t.Run("identity conflicts", func(t *testing.T) {
		conflicts, err := repo.identityConflicts(ctx, "grace@example.com", "0000", user.DateOfBirth)
		require.NoError(t, err)
		assert.Equal(t, IdentityConflicts{Email: true, DateOfBirth: true}, conflicts)

		inUse, err := repo.emailInUseByOther(ctx, "grace@example.com", user.ID)
		require.NoError(t, err)
		assert.False(t, inUse)
	})

	t.Run("update profile", func(t *testing.T) {
		line2 := "Suite 5"
		user.Phone = nil
		user.AddressLine2 = &line2
		user.City = "Washington"
		user.UpdatedAt = now.Add(time.Minute)
		require.NoError(t, repo.updateProfile(ctx, user))

		stored, err := repo.getUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.Phone)
		require.NotNil(t, stored.AddressLine2)
		assert.Equal(t, "Suite 5", *stored.AddressLine2)
		assert.Equal(t, "Washington", stored.City)
	})

	t.Run("reset tokens", func(t *testing.T) {
		first := &ResetToken{ID: uuid.New(), UserID: user.ID, Token: "first", ExpiresAt: now.Add(time.Hour), CreatedAt: now}
		second := &ResetToken{ID: uuid.New(), UserID: user.ID, Token: "second", ExpiresAt: now.Add(time.Hour), CreatedAt: now}
		require.NoError(t, repo.replaceResetToken(ctx, first))
		require.NoError(t, repo.replaceResetToken(ctx, second))

		_, err := repo.getResetToken(ctx, "first")
		assert.ErrorIs(t, err, ErrResetTokenNotFound)

		stored, err := repo.getResetToken(ctx, "second")
		require.NoError(t, err)
		assert.Nil(t, stored.UsedAt)

		require.NoError(t, repo.consumeResetToken(ctx, stored, "new-hash", now))
		assert.ErrorIs(t, repo.consumeResetToken(ctx, stored, "other-hash", now), ErrResetTokenNotFound)

		reloaded, err := repo.getUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "new-hash", reloaded.PasswordHash)

		used, err := repo.getResetToken(ctx, "second")
		require.NoError(t, err)
		assert.NotNil(t, used.UsedAt)

		purged, err := repo.purgeExpiredResetTokens(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, int64(1), purged)
	})
}
