package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
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
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, product *catalog.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockOrderRepository is a mock implementation of order.Repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, filter order.ListFilter) ([]order.Order, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func newTestService() (*Service, *MockProductRepository, *MockOrderRepository) {
	productRepo := new(MockProductRepository)
	orderRepo := new(MockOrderRepository)
	return NewService(cart.NewSessions(), productRepo, orderRepo), productRepo, orderRepo
}

func newTestProduct(t *testing.T, name string, price float64) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(name, decimal.NewFromFloat(price), nil)
	require.NoError(t, err)
	return product
}

func TestService_AddItem(t *testing.T) {
	t.Run("adds resolved product to session cart", func(t *testing.T) {
		service, productRepo, _ := newTestService()

		product := newTestProduct(t, "Margherita", 9.99)
		productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)

		resp, err := service.AddItem(context.Background(), "session-1", AddItemRequest{
			ProductID: product.ID,
			Size:      "M",
		})

		require.NoError(t, err)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, product.ID, resp.Items[0].ProductID)
		assert.Equal(t, 1, resp.Items[0].Quantity)
		assert.True(t, resp.Total.Equal(decimal.NewFromFloat(9.99)))
	})

	t.Run("merges repeated adds of the same product and size", func(t *testing.T) {
		service, productRepo, _ := newTestService()

		product := newTestProduct(t, "Margherita", 9.99)
		productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)

		_, err := service.AddItem(context.Background(), "session-1", AddItemRequest{ProductID: product.ID, Size: "M"})
		require.NoError(t, err)
		resp, err := service.AddItem(context.Background(), "session-1", AddItemRequest{ProductID: product.ID, Size: "M"})
		require.NoError(t, err)

		require.Len(t, resp.Items, 1)
		assert.Equal(t, 2, resp.Items[0].Quantity)
	})

	t.Run("rejects unknown size before touching the catalog", func(t *testing.T) {
		service, productRepo, _ := newTestService()

		resp, err := service.AddItem(context.Background(), "session-1", AddItemRequest{
			ProductID: uuid.New(),
			Size:      "XS",
		})

		assert.Nil(t, resp)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_SIZE", domainErr.Code)
		productRepo.AssertNotCalled(t, "FindByID")
	})

	t.Run("propagates missing product", func(t *testing.T) {
		service, productRepo, _ := newTestService()

		id := uuid.New()
		productRepo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		resp, err := service.AddItem(context.Background(), "session-1", AddItemRequest{ProductID: id, Size: "M"})

		assert.Nil(t, resp)
		assert.Equal(t, shared.ErrNotFound, err)
	})

	t.Run("keeps sessions isolated", func(t *testing.T) {
		service, productRepo, _ := newTestService()

		product := newTestProduct(t, "Margherita", 9.99)
		productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)

		_, err := service.AddItem(context.Background(), "session-1", AddItemRequest{ProductID: product.ID, Size: "M"})
		require.NoError(t, err)

		assert.Empty(t, service.GetCart("session-2").Items)
	})
}

func TestService_UpdateQuantity(t *testing.T) {
	t.Run("decrement to zero removes the line", func(t *testing.T) {
		service, productRepo, _ := newTestService()

		product := newTestProduct(t, "Margherita", 9.99)
		productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)

		resp, err := service.AddItem(context.Background(), "session-1", AddItemRequest{ProductID: product.ID, Size: "M"})
		require.NoError(t, err)
		itemID := resp.Items[0].ID

		resp = service.UpdateQuantity("session-1", itemID, -1)

		assert.Empty(t, resp.Items)
		assert.True(t, resp.Total.IsZero())
	})

	t.Run("unknown item id is a no-op", func(t *testing.T) {
		service, _, _ := newTestService()

		resp := service.UpdateQuantity("session-1", uuid.New(), 1)

		assert.Empty(t, resp.Items)
	})
}

func TestService_Checkout(t *testing.T) {
	t.Run("persists order and clears the cart", func(t *testing.T) {
		service, productRepo, orderRepo := newTestService()

		product := newTestProduct(t, "Margherita", 9.99)
		productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		orderRepo.On("Create", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil)

		_, err := service.AddItem(context.Background(), "session-1", AddItemRequest{ProductID: product.ID, Size: "M"})
		require.NoError(t, err)
		_, err = service.AddItem(context.Background(), "session-1", AddItemRequest{ProductID: product.ID, Size: "M"})
		require.NoError(t, err)

		resp, err := service.Checkout(context.Background(), "session-1")

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, resp.OrderID)
		assert.True(t, resp.Total.Equal(decimal.NewFromFloat(19.98)))
		assert.Empty(t, service.GetCart("session-1").Items)
		orderRepo.AssertExpectations(t)
	})

	t.Run("rejects empty cart", func(t *testing.T) {
		service, _, orderRepo := newTestService()

		resp, err := service.Checkout(context.Background(), "session-1")

		assert.Nil(t, resp)
		assert.Equal(t, shared.ErrEmptyCart, err)
		orderRepo.AssertNotCalled(t, "Create")
	})

	t.Run("keeps cart on persistence failure", func(t *testing.T) {
		service, productRepo, orderRepo := newTestService()

		product := newTestProduct(t, "Margherita", 9.99)
		productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		orderRepo.On("Create", mock.Anything, mock.Anything).Return(assert.AnError)

		_, err := service.AddItem(context.Background(), "session-1", AddItemRequest{ProductID: product.ID, Size: "M"})
		require.NoError(t, err)

		resp, err := service.Checkout(context.Background(), "session-1")

		assert.Nil(t, resp)
		assert.Error(t, err)
		assert.Len(t, service.GetCart("session-1").Items, 1)
	})
}
