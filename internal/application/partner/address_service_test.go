package partner

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wcpa/backend/internal/domain/partner"
	"github.com/wcpa/backend/internal/domain/shared"
)

// MockAddressRepository is a mock implementation of partner.AddressRepository
type MockAddressRepository struct {
	mock.Mock
	transactions int
}

func (m *MockAddressRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Address, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Address), args.Error(1)
}

func (m *MockAddressRepository) FindByUser(ctx context.Context, userID string) ([]partner.Address, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Address), args.Error(1)
}

func (m *MockAddressRepository) Save(ctx context.Context, address *partner.Address) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}

func (m *MockAddressRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAddressRepository) UnsetDefaults(ctx context.Context, userID string, bucket partner.Bucket) error {
	args := m.Called(ctx, userID, bucket)
	return args.Error(0)
}

func (m *MockAddressRepository) InTransaction(ctx context.Context, fn func(partner.AddressRepository) error) error {
	m.transactions++
	return fn(m)
}

func newAddressTestService() (*AddressService, *MockAddressRepository) {
	repo := new(MockAddressRepository)
	return NewAddressService(repo, zap.NewNop()), repo
}

func validAddressCommand() AddressCommand {
	return AddressCommand{
		UserID:     "user-1",
		Type:       "shipping",
		FirstName:  "Jo",
		LastName:   "Smith",
		Line1:      "1 Main St",
		City:       "Springfield",
		State:      "IL",
		PostalCode: "62701",
		Country:    "US",
	}
}

func testAddress(t *testing.T, userID string, addrType partner.AddressType, isDefault bool) *partner.Address {
	t.Helper()
	addr, err := partner.NewAddress(userID, addrType, "Jo", "Smith", "1 Main St", "Springfield", "IL", "62701")
	require.NoError(t, err)
	addr.IsDefault = isDefault
	return addr
}

func TestAddAddress(t *testing.T) {
	t.Run("non-default add does not touch existing defaults", func(t *testing.T) {
		service, repo := newAddressTestService()

		repo.On("Save", mock.Anything, mock.MatchedBy(func(a *partner.Address) bool {
			return a.UserID == "user-1" && a.Type == partner.AddressTypeShipping && !a.IsDefault && a.Country == "US"
		})).Return(nil)

		address, err := service.Add(context.Background(), validAddressCommand())

		require.NoError(t, err)
		assert.False(t, address.IsDefault)
		repo.AssertNotCalled(t, "UnsetDefaults")
		assert.Zero(t, repo.transactions)
	})

	t.Run("default add clears the bucket first", func(t *testing.T) {
		service, repo := newAddressTestService()
		cmd := validAddressCommand()
		cmd.IsDefault = true

		repo.On("UnsetDefaults", mock.Anything, "user-1", partner.BucketShipping).Return(nil)
		repo.On("Save", mock.Anything, mock.MatchedBy(func(a *partner.Address) bool {
			return a.IsDefault
		})).Return(nil)

		address, err := service.Add(context.Background(), cmd)

		require.NoError(t, err)
		assert.True(t, address.IsDefault)
		assert.Equal(t, 1, repo.transactions)
		repo.AssertExpectations(t)
	})

	t.Run("default both-type add clears both buckets", func(t *testing.T) {
		service, repo := newAddressTestService()
		cmd := validAddressCommand()
		cmd.Type = "both"
		cmd.IsDefault = true

		repo.On("UnsetDefaults", mock.Anything, "user-1", partner.BucketShipping).Return(nil)
		repo.On("UnsetDefaults", mock.Anything, "user-1", partner.BucketBilling).Return(nil)
		repo.On("Save", mock.Anything, mock.Anything).Return(nil)

		_, err := service.Add(context.Background(), cmd)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("invalid type rejected", func(t *testing.T) {
		service, _ := newAddressTestService()
		cmd := validAddressCommand()
		cmd.Type = "warehouse"

		_, err := service.Add(context.Background(), cmd)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeValidation, domainErr.Code)
	})
}

func TestUpdateAddress(t *testing.T) {
	t.Run("replaces fields", func(t *testing.T) {
		service, repo := newAddressTestService()
		existing := testAddress(t, "user-1", partner.AddressTypeShipping, false)

		cmd := validAddressCommand()
		cmd.Line1 = "99 New St"

		repo.On("FindByID", mock.Anything, existing.ID).Return(existing, nil)
		repo.On("Save", mock.Anything, mock.MatchedBy(func(a *partner.Address) bool {
			return a.ID == existing.ID && a.Line1 == "99 New St"
		})).Return(nil)

		updated, err := service.Update(context.Background(), existing.ID, cmd)

		require.NoError(t, err)
		assert.Equal(t, "99 New St", updated.Line1)
	})

	t.Run("another user's address looks missing", func(t *testing.T) {
		service, repo := newAddressTestService()
		existing := testAddress(t, "user-2", partner.AddressTypeShipping, false)

		repo.On("FindByID", mock.Anything, existing.ID).Return(existing, nil)

		_, err := service.Update(context.Background(), existing.ID, validAddressCommand())

		assert.ErrorIs(t, err, shared.ErrNotFound)
		repo.AssertNotCalled(t, "Save")
	})

	t.Run("promoting to default clears the bucket", func(t *testing.T) {
		service, repo := newAddressTestService()
		existing := testAddress(t, "user-1", partner.AddressTypeShipping, false)

		cmd := validAddressCommand()
		cmd.IsDefault = true

		repo.On("FindByID", mock.Anything, existing.ID).Return(existing, nil)
		repo.On("UnsetDefaults", mock.Anything, "user-1", partner.BucketShipping).Return(nil)
		repo.On("Save", mock.Anything, mock.Anything).Return(nil)

		updated, err := service.Update(context.Background(), existing.ID, cmd)

		require.NoError(t, err)
		assert.True(t, updated.IsDefault)
		assert.Equal(t, 1, repo.transactions)
		repo.AssertExpectations(t)
	})

	t.Run("re-typing a default clears the new bucket", func(t *testing.T) {
		service, repo := newAddressTestService()
		existing := testAddress(t, "user-1", partner.AddressTypeShipping, true)

		cmd := validAddressCommand()
		cmd.Type = "billing"
		cmd.IsDefault = true

		repo.On("FindByID", mock.Anything, existing.ID).Return(existing, nil)
		repo.On("UnsetDefaults", mock.Anything, "user-1", partner.BucketBilling).Return(nil)
		repo.On("Save", mock.Anything, mock.MatchedBy(func(a *partner.Address) bool {
			return a.Type == partner.AddressTypeBilling && a.IsDefault
		})).Return(nil)

		updated, err := service.Update(context.Background(), existing.ID, cmd)

		require.NoError(t, err)
		assert.True(t, updated.IsDefault)
		repo.AssertExpectations(t)
	})
}

func TestRemoveAddress(t *testing.T) {
	t.Run("deleting a non-default does not promote", func(t *testing.T) {
		service, repo := newAddressTestService()
		existing := testAddress(t, "user-1", partner.AddressTypeShipping, false)

		repo.On("FindByID", mock.Anything, existing.ID).Return(existing, nil)
		repo.On("Delete", mock.Anything, existing.ID).Return(nil)

		err := service.Remove(context.Background(), "user-1", existing.ID)

		require.NoError(t, err)
		repo.AssertNotCalled(t, "FindByUser")
	})

	t.Run("deleting a default promotes the newest in the bucket", func(t *testing.T) {
		service, repo := newAddressTestService()
		deleted := testAddress(t, "user-1", partner.AddressTypeShipping, true)
		older := testAddress(t, "user-1", partner.AddressTypeShipping, false)
		older.CreatedAt = time.Now().Add(-2 * time.Hour)
		newer := testAddress(t, "user-1", partner.AddressTypeShipping, false)
		newer.CreatedAt = time.Now().Add(-1 * time.Hour)

		repo.On("FindByID", mock.Anything, deleted.ID).Return(deleted, nil)
		repo.On("Delete", mock.Anything, deleted.ID).Return(nil)
		repo.On("FindByUser", mock.Anything, "user-1").Return([]partner.Address{*older, *newer}, nil)
		repo.On("Save", mock.Anything, mock.MatchedBy(func(a *partner.Address) bool {
			return a.ID == newer.ID && a.IsDefault
		})).Return(nil)

		err := service.Remove(context.Background(), "user-1", deleted.ID)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("no promotion when the bucket still has a default", func(t *testing.T) {
		service, repo := newAddressTestService()
		deleted := testAddress(t, "user-1", partner.AddressTypeBilling, true)
		remaining := testAddress(t, "user-1", partner.AddressTypeBoth, true)

		repo.On("FindByID", mock.Anything, deleted.ID).Return(deleted, nil)
		repo.On("Delete", mock.Anything, deleted.ID).Return(nil)
		repo.On("FindByUser", mock.Anything, "user-1").Return([]partner.Address{*remaining}, nil)

		err := service.Remove(context.Background(), "user-1", deleted.ID)

		require.NoError(t, err)
		repo.AssertNotCalled(t, "Save")
	})

	t.Run("ownership enforced", func(t *testing.T) {
		service, repo := newAddressTestService()
		existing := testAddress(t, "user-2", partner.AddressTypeShipping, false)

		repo.On("FindByID", mock.Anything, existing.ID).Return(existing, nil)

		err := service.Remove(context.Background(), "user-1", existing.ID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		repo.AssertNotCalled(t, "Delete")
	})
}

func TestSetDefaultAddress(t *testing.T) {
	t.Run("clears buckets then saves", func(t *testing.T) {
		service, repo := newAddressTestService()
		existing := testAddress(t, "user-1", partner.AddressTypeBoth, false)

		repo.On("FindByID", mock.Anything, existing.ID).Return(existing, nil)
		repo.On("UnsetDefaults", mock.Anything, "user-1", partner.BucketShipping).Return(nil)
		repo.On("UnsetDefaults", mock.Anything, "user-1", partner.BucketBilling).Return(nil)
		repo.On("Save", mock.Anything, mock.MatchedBy(func(a *partner.Address) bool {
			return a.IsDefault
		})).Return(nil)

		updated, err := service.SetDefault(context.Background(), "user-1", existing.ID)

		require.NoError(t, err)
		assert.True(t, updated.IsDefault)
		assert.Equal(t, 1, repo.transactions)
		repo.AssertExpectations(t)
	})

	t.Run("unset failure aborts", func(t *testing.T) {
		service, repo := newAddressTestService()
		existing := testAddress(t, "user-1", partner.AddressTypeShipping, false)

		repo.On("FindByID", mock.Anything, existing.ID).Return(existing, nil)
		repo.On("UnsetDefaults", mock.Anything, "user-1", partner.BucketShipping).Return(fmt.Errorf("connection refused"))

		_, err := service.SetDefault(context.Background(), "user-1", existing.ID)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeLedgerWrite, domainErr.Code)
		repo.AssertNotCalled(t, "Save")
	})
}

func TestListAddresses(t *testing.T) {
	service, repo := newAddressTestService()
	addr := testAddress(t, "user-1", partner.AddressTypeShipping, true)

	repo.On("FindByUser", mock.Anything, "user-1").Return([]partner.Address{*addr}, nil)

	addresses, err := service.List(context.Background(), "user-1")

	require.NoError(t, err)
	require.Len(t, addresses, 1)
	assert.Equal(t, addr.ID, addresses[0].ID)

	_, err = service.List(context.Background(), "")
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, shared.CodeValidation, domainErr.Code)
}
