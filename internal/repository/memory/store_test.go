package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmmarket/internal/models"
	"farmmarket/internal/repository"
)

func seedFarmer(t *testing.T, s *Store, id, name string, status models.UserStatus) models.User {
	t.Helper()
	u, err := s.Users().Create(context.Background(), models.User{
		ID: id, Name: name, Email: id + "@farm.test", Role: models.UserRoleFarmer, Status: status,
	})
	require.NoError(t, err)
	return u
}

func TestUsers_DuplicateEmail(t *testing.T) {
	s := NewStore()
	seedFarmer(t, s, "f1", "Alice", models.UserStatusPending)

	_, err := s.Users().Create(context.Background(), models.User{ID: "f2", Email: "F1@farm.test"})
	assert.ErrorIs(t, err, repository.ErrEmailTaken)
}

func TestUsers_ApproveFarmerOnce(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedFarmer(t, s, "f1", "Alice", models.UserStatusPending)
	_, err := s.Users().Create(ctx, models.User{ID: "c1", Email: "c@x", Role: models.UserRoleConsumer, Status: models.UserStatusApproved})
	require.NoError(t, err)

	require.NoError(t, s.Users().ApproveFarmer(ctx, "f1"))
	assert.ErrorIs(t, s.Users().ApproveFarmer(ctx, "f1"), repository.ErrFarmerNotPending)
	assert.ErrorIs(t, s.Users().ApproveFarmer(ctx, "c1"), repository.ErrFarmerNotPending)
	assert.ErrorIs(t, s.Users().ApproveFarmer(ctx, "missing"), repository.ErrFarmerNotPending)
}

func TestUsers_PendingOldestFirst(t *testing.T) {
	s := NewStore()
	seedFarmer(t, s, "f1", "First", models.UserStatusPending)
	seedFarmer(t, s, "f2", "Second", models.UserStatusPending)
	seedFarmer(t, s, "f3", "Done", models.UserStatusApproved)

	pending, err := s.Users().ListPendingFarmers(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "f1", pending[0].ID)
	assert.Equal(t, "f2", pending[1].ID)

	count, err := s.Users().CountPendingFarmers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestProducts_PublicListingFollowsOwnerStatus(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedFarmer(t, s, "f1", "Alice", models.UserStatusApproved)
	seedFarmer(t, s, "f2", "Bob", models.UserStatusPending)

	_, err := s.Products().Create(ctx, models.Product{ID: "p1", FarmerID: "f1", Name: "Eggs", Price: 3, Quantity: 12})
	require.NoError(t, err)
	_, err = s.Products().Create(ctx, models.Product{ID: "p2", FarmerID: "f2", Name: "Milk", Price: 2, Quantity: 4})
	require.NoError(t, err)
	_, err = s.Products().Create(ctx, models.Product{ID: "p3", FarmerID: "f1", Name: "Honey", Price: 8, Quantity: 1})
	require.NoError(t, err)

	listing, err := s.Products().ListPublic(ctx)
	require.NoError(t, err)
	require.Len(t, listing, 2)
	assert.Equal(t, "p3", listing[0].ID)
	assert.Equal(t, "p1", listing[1].ID)
	assert.Equal(t, "Alice", listing[0].FarmerName)

	require.NoError(t, s.Users().ApproveFarmer(ctx, "f2"))
	listing, err = s.Products().ListPublic(ctx)
	require.NoError(t, err)
	assert.Len(t, listing, 3)
}

func TestProducts_OwnershipScoped(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedFarmer(t, s, "f1", "Alice", models.UserStatusApproved)
	_, err := s.Products().Create(ctx, models.Product{ID: "p1", FarmerID: "f1", Name: "Eggs", Price: 3, Quantity: 12})
	require.NoError(t, err)

	name := "Duck eggs"
	_, err = s.Products().UpdateOwned(ctx, "p1", "f2", models.ProductPatch{Name: &name})
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
	assert.ErrorIs(t, s.Products().DeleteOwned(ctx, "p1", "f2"), repository.ErrProductNotFound)

	updated, err := s.Products().UpdateOwned(ctx, "p1", "f1", models.ProductPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Duck eggs", updated.Name)
	assert.Equal(t, 12, updated.Quantity)

	require.NoError(t, s.Products().DeleteOwned(ctx, "p1", "f1"))
	assert.ErrorIs(t, s.Products().DeleteOwned(ctx, "p1", "f1"), repository.ErrProductNotFound)
}

func TestAudit_RecordIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Audit().Record(ctx, models.AuditEvent{ID: "1-0", Type: "farmer.approved"}))
	require.NoError(t, s.Audit().Record(ctx, models.AuditEvent{ID: "1-0", Type: "farmer.approved"}))
	require.NoError(t, s.Audit().Record(ctx, models.AuditEvent{ID: "2-0", Type: "product.created"}))

	events, err := s.Audit().ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "2-0", events[0].ID)

	events, err = s.Audit().ListRecent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
