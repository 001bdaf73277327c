package repository_test

import (
	"context"
	"testing"

	"github.com/rs-labo46/ec-backoffice/internal/domain/model"
	infra "github.com/rs-labo46/ec-backoffice/internal/infra/repository"
	repo "github.com/rs-labo46/ec-backoffice/internal/repository"
	"github.com/rs-labo46/ec-backoffice/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserGorm_CreateFindAndTokenVersion(t *testing.T) {
	ctx := context.Background()
	r := infra.NewUserGormRepository(testutil.NewDB(t))

	u := &model.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "hash"}
	require.NoError(t, r.Create(ctx, u))
	assert.NotZero(t, u.ID)

	dup := &model.User{Name: "Alice 2", Email: "alice@example.com", PasswordHash: "hash"}
	assert.ErrorIs(t, r.Create(ctx, dup), repo.ErrConflict)

	got, err := r.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	require.NoError(t, r.IncrementTokenVersion(ctx, u.ID))
	got, err = r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.TokenVersion+1, got.TokenVersion)

	_, err = r.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repo.ErrNotFound)
	assert.ErrorIs(t, r.IncrementTokenVersion(ctx, 9999), repo.ErrNotFound)
}

func TestAddressGorm_CRUD(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	u := testutil.CreateUser(t, db, "addr@example.com")
	r := infra.NewAddressGormRepository(db)

	billing, err := r.Create(ctx, model.Address{
		UserID: u.ID, Street: "Main 1", City: "Rosario", State: "SF", Zip: "2000",
		Country: "Argentina", Type: model.AddressTypeBilling,
	})
	require.NoError(t, err)
	testutil.CreateAddress(t, db, u.ID)

	all, err := r.ListByUserID(ctx, u.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyBilling, err := r.ListByUserID(ctx, u.ID, model.AddressTypeBilling)
	require.NoError(t, err)
	require.Len(t, onlyBilling, 1)
	assert.Equal(t, billing.ID, onlyBilling[0].ID)

	billing.City = "Cordoba"
	updated, err := r.Update(ctx, billing)
	require.NoError(t, err)
	assert.Equal(t, "Cordoba", updated.City)

	require.NoError(t, r.Delete(ctx, billing.ID))
	_, err = r.FindByID(ctx, billing.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, billing.ID), repo.ErrNotFound)
}
