package cache

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context) ([]catalog.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// unreachableRedis returns a client whose commands always fail, which
// exercises the degrade-to-repository paths without a running server.
func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 1,
		MaxRetries:  -1,
	})
}

func newTestProduct(t *testing.T) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct("Margherita", decimal.NewFromFloat(9.99), nil)
	require.NoError(t, err)
	return product
}

func TestCachingProductRepository_FindByID(t *testing.T) {
	t.Run("falls through to repository when cache is unavailable", func(t *testing.T) {
		inner := new(MockProductRepository)
		repo := NewCachingProductRepository(inner, unreachableRedis())

		product := newTestProduct(t)
		inner.On("FindByID", mock.Anything, product.ID).Return(product, nil)

		got, err := repo.FindByID(context.Background(), product.ID)

		assert.NoError(t, err)
		assert.Equal(t, product, got)
		inner.AssertExpectations(t)
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		inner := new(MockProductRepository)
		repo := NewCachingProductRepository(inner, unreachableRedis())

		id := uuid.New()
		inner.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		got, err := repo.FindByID(context.Background(), id)

		assert.Nil(t, got)
		assert.Equal(t, shared.ErrNotFound, err)
	})
}

func TestCachingProductRepository_FindAll(t *testing.T) {
	t.Run("falls through to repository when cache is unavailable", func(t *testing.T) {
		inner := new(MockProductRepository)
		repo := NewCachingProductRepository(inner, unreachableRedis())

		products := []catalog.Product{*newTestProduct(t)}
		inner.On("FindAll", mock.Anything).Return(products, nil)

		got, err := repo.FindAll(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, products, got)
		inner.AssertExpectations(t)
	})
}

func TestCachingProductRepository_Writes(t *testing.T) {
	t.Run("write-through succeeds even when invalidation fails", func(t *testing.T) {
		inner := new(MockProductRepository)
		repo := NewCachingProductRepository(inner, unreachableRedis())

		product := newTestProduct(t)
		inner.On("Save", mock.Anything, product).Return(nil)
		inner.On("Update", mock.Anything, product).Return(nil)
		inner.On("Delete", mock.Anything, product.ID).Return(nil)

		assert.NoError(t, repo.Save(context.Background(), product))
		assert.NoError(t, repo.Update(context.Background(), product))
		assert.NoError(t, repo.Delete(context.Background(), product.ID))
		inner.AssertExpectations(t)
	})

	t.Run("repository failure is returned unchanged", func(t *testing.T) {
		inner := new(MockProductRepository)
		repo := NewCachingProductRepository(inner, unreachableRedis())

		product := newTestProduct(t)
		inner.On("Update", mock.Anything, product).Return(shared.ErrNotFound)

		assert.Equal(t, shared.ErrNotFound, repo.Update(context.Background(), product))
	})
}
