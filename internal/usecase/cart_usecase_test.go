package usecase_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"app/internal/domain/model"
	"app/internal/domain/purchase"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// Mocks
// =====================

type CartStoreMock struct{ mock.Mock }

func (m *CartStoreMock) Load(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	cart, _ := args.Get(0).(model.Cart)
	return cart, args.Error(1)
}

func (m *CartStoreMock) Save(ctx context.Context, userID int64, cart model.Cart) error {
	args := m.Called(ctx, userID, cart)
	return args.Error(0)
}

func (m *CartStoreMock) Clear(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type CartProductRepoMock struct{ mock.Mock }

func (m *CartProductRepoMock) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	panic("not used in CartUsecase tests")
}

func (m *CartProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *CartProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	panic("not used in CartUsecase tests")
}

func (m *CartProductRepoMock) Update(ctx context.Context, p model.Product) error {
	panic("not used in CartUsecase tests")
}

func (m *CartProductRepoMock) SoftDelete(ctx context.Context, id int64) error {
	panic("not used in CartUsecase tests")
}

type HistorySourceMock struct{ mock.Mock }

func (m *HistorySourceMock) Snapshot(ctx context.Context, userID int64) (*purchase.HistorySnapshot, error) {
	args := m.Called(ctx, userID)
	snap, _ := args.Get(0).(*purchase.HistorySnapshot)
	return snap, args.Error(1)
}

func assertHTTPStatus(t *testing.T, err error, status int) {
	t.Helper()
	he, ok := usecase.AsHTTPError(err)
	if assert.True(t, ok, "expected HTTPError, got %v", err) {
		assert.Equal(t, status, he.Status)
	}
}

func emptyHistory() *purchase.HistorySnapshot {
	return &purchase.HistorySnapshot{PerProduct: map[int64]int64{}, TotalQuantity: 0}
}

func activeProduct() model.Product {
	return model.Product{
		ID:       10,
		Name:     "Linen Shirt",
		Price:    4500,
		Stock:    8,
		Sizes:    model.StringList{"S", "M", "L"},
		Colors:   model.StringList{"white", "navy"},
		IsActive: true,
	}
}

// =====================
// GetCart
// =====================

func TestCartUsecase_GetCart_Empty(t *testing.T) {
	store := new(CartStoreMock)
	uc := usecase.NewCartUsecase(store, new(CartProductRepoMock), new(HistorySourceMock))

	store.On("Load", mock.Anything, int64(1)).Return(model.Cart{}, nil)

	out, err := uc.GetCart(context.Background(), 1)
	assert.NoError(t, err)
	assert.Empty(t, out.Items)
	assert.Equal(t, int64(0), out.Total)
}

// =====================
// AddToCart
// =====================

func TestCartUsecase_AddToCart_MergesSameVariant(t *testing.T) {
	store := new(CartStoreMock)
	pRepo := new(CartProductRepoMock)
	history := new(HistorySourceMock)
	uc := usecase.NewCartUsecase(store, pRepo, history)

	p := activeProduct()
	pRepo.On("FindByID", mock.Anything, int64(10)).Return(p, nil)
	history.On("Snapshot", mock.Anything, int64(1)).Return(emptyHistory(), nil)

	existing := model.Cart{Lines: []model.CartLine{
		{ProductID: 10, Name: p.Name, UnitPrice: p.Price, Quantity: 1, Size: "M", Color: "navy", Stock: 8},
	}}
	store.On("Load", mock.Anything, int64(1)).Return(existing, nil)
	store.On("Save", mock.Anything, int64(1), mock.Anything).Return(nil)

	out, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{
		ProductID: 10, Quantity: 2, Size: "M", Color: "navy",
	})
	assert.NoError(t, err)
	if assert.Len(t, out.Items, 1) {
		assert.Equal(t, int64(3), out.Items[0].Quantity)
		assert.Equal(t, int64(4500*3), out.Items[0].Subtotal)
	}
}

func TestCartUsecase_AddToCart_DifferentVariantNewLine(t *testing.T) {
	store := new(CartStoreMock)
	pRepo := new(CartProductRepoMock)
	history := new(HistorySourceMock)
	uc := usecase.NewCartUsecase(store, pRepo, history)

	p := activeProduct()
	pRepo.On("FindByID", mock.Anything, int64(10)).Return(p, nil)
	history.On("Snapshot", mock.Anything, int64(1)).Return(emptyHistory(), nil)

	existing := model.Cart{Lines: []model.CartLine{
		{ProductID: 10, Quantity: 1, Size: "M", Color: "navy", Stock: 8},
	}}
	store.On("Load", mock.Anything, int64(1)).Return(existing, nil)
	store.On("Save", mock.Anything, int64(1), mock.Anything).Return(nil)

	out, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{
		ProductID: 10, Quantity: 1, Size: "L", Color: "white",
	})
	assert.NoError(t, err)
	assert.Len(t, out.Items, 2)
}

func TestCartUsecase_AddToCart_SizeRequired(t *testing.T) {
	store := new(CartStoreMock)
	pRepo := new(CartProductRepoMock)
	uc := usecase.NewCartUsecase(store, pRepo, new(HistorySourceMock))

	pRepo.On("FindByID", mock.Anything, int64(10)).Return(activeProduct(), nil)

	_, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{
		ProductID: 10, Quantity: 1, Color: "navy",
	})
	assertHTTPStatus(t, err, 400)
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestCartUsecase_AddToCart_UnknownColorRejected(t *testing.T) {
	store := new(CartStoreMock)
	pRepo := new(CartProductRepoMock)
	uc := usecase.NewCartUsecase(store, pRepo, new(HistorySourceMock))

	pRepo.On("FindByID", mock.Anything, int64(10)).Return(activeProduct(), nil)

	_, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{
		ProductID: 10, Quantity: 1, Size: "M", Color: "pink",
	})
	assertHTTPStatus(t, err, 400)
}

func TestCartUsecase_AddToCart_PerPurchaseLimitRejected(t *testing.T) {
	store := new(CartStoreMock)
	pRepo := new(CartProductRepoMock)
	history := new(HistorySourceMock)
	uc := usecase.NewCartUsecase(store, pRepo, history)

	pRepo.On("FindByID", mock.Anything, int64(10)).Return(activeProduct(), nil)
	history.On("Snapshot", mock.Anything, int64(1)).Return(emptyHistory(), nil)
	store.On("Load", mock.Anything, int64(1)).Return(model.Cart{}, nil)

	_, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{
		ProductID: 10, Quantity: 4, Size: "M", Color: "navy",
	})
	assertHTTPStatus(t, err, 400)

	// 拒否時はカートを保存しない
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestCartUsecase_AddToCart_LifetimeTotalLimitRejected(t *testing.T) {
	store := new(CartStoreMock)
	pRepo := new(CartProductRepoMock)
	history := new(HistorySourceMock)
	uc := usecase.NewCartUsecase(store, pRepo, history)

	pRepo.On("FindByID", mock.Anything, int64(10)).Return(activeProduct(), nil)
	history.On("Snapshot", mock.Anything, int64(1)).Return(&purchase.HistorySnapshot{
		PerProduct:    map[int64]int64{99: 20},
		TotalQuantity: 20,
	}, nil)
	store.On("Load", mock.Anything, int64(1)).Return(model.Cart{}, nil)

	_, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{
		ProductID: 10, Quantity: 1, Size: "M", Color: "navy",
	})
	assertHTTPStatus(t, err, 400)
}

func TestCartUsecase_AddToCart_HistoryUnavailableIsPermissive(t *testing.T) {
	store := new(CartStoreMock)
	pRepo := new(CartProductRepoMock)
	history := new(HistorySourceMock)
	uc := usecase.NewCartUsecase(store, pRepo, history)

	pRepo.On("FindByID", mock.Anything, int64(10)).Return(activeProduct(), nil)
	history.On("Snapshot", mock.Anything, int64(1)).Return(nil, errors.New("db down"))
	store.On("Load", mock.Anything, int64(1)).Return(model.Cart{}, nil)
	store.On("Save", mock.Anything, int64(1), mock.Anything).Return(nil)

	out, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{
		ProductID: 10, Quantity: 3, Size: "M", Color: "navy",
	})
	assert.NoError(t, err)
	assert.Len(t, out.Items, 1)
}

func TestCartUsecase_AddToCart_HugeQuantityRejected(t *testing.T) {
	store := new(CartStoreMock)
	pRepo := new(CartProductRepoMock)
	uc := usecase.NewCartUsecase(store, pRepo, new(HistorySourceMock))

	// int64の合算で溢れる値は入口で弾く
	_, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{
		ProductID: 10, Quantity: math.MaxInt64 - 2, Size: "M", Color: "navy",
	})
	assertHTTPStatus(t, err, 400)
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestCartUsecase_AddToCart_StockExceeded(t *testing.T) {
	store := new(CartStoreMock)
	pRepo := new(CartProductRepoMock)
	history := new(HistorySourceMock)
	uc := usecase.NewCartUsecase(store, pRepo, history)

	p := activeProduct()
	p.Stock = 2
	pRepo.On("FindByID", mock.Anything, int64(10)).Return(p, nil)
	store.On("Load", mock.Anything, int64(1)).Return(model.Cart{}, nil)

	_, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{
		ProductID: 10, Quantity: 3, Size: "M", Color: "navy",
	})
	assertHTTPStatus(t, err, 400)
}

func TestCartUsecase_AddToCart_InactiveProduct(t *testing.T) {
	store := new(CartStoreMock)
	pRepo := new(CartProductRepoMock)
	uc := usecase.NewCartUsecase(store, pRepo, new(HistorySourceMock))

	p := activeProduct()
	p.IsActive = false
	pRepo.On("FindByID", mock.Anything, int64(10)).Return(p, nil)

	_, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{
		ProductID: 10, Quantity: 1, Size: "M", Color: "navy",
	})
	assertHTTPStatus(t, err, 400)
}

// =====================
// UpdateQuantity / RemoveLine / EmptyCart
// =====================

func TestCartUsecase_UpdateQuantity_ZeroRemovesLine(t *testing.T) {
	store := new(CartStoreMock)
	uc := usecase.NewCartUsecase(store, new(CartProductRepoMock), new(HistorySourceMock))

	existing := model.Cart{Lines: []model.CartLine{
		{ProductID: 10, Quantity: 2, Size: "M", Color: "navy"},
	}}
	store.On("Load", mock.Anything, int64(1)).Return(existing, nil)
	store.On("Save", mock.Anything, int64(1), mock.Anything).Return(nil)

	out, err := uc.UpdateQuantity(context.Background(), 1, 0, usecase.UpdateCartLineInput{Quantity: 0})
	assert.NoError(t, err)
	assert.Empty(t, out.Items)
}

func TestCartUsecase_UpdateQuantity_IndexOutOfRange(t *testing.T) {
	store := new(CartStoreMock)
	uc := usecase.NewCartUsecase(store, new(CartProductRepoMock), new(HistorySourceMock))

	store.On("Load", mock.Anything, int64(1)).Return(model.Cart{}, nil)

	_, err := uc.UpdateQuantity(context.Background(), 1, 3, usecase.UpdateCartLineInput{Quantity: 1})
	assertHTTPStatus(t, err, 404)
}

func TestCartUsecase_UpdateQuantity_PolicyRejectionKeepsCart(t *testing.T) {
	store := new(CartStoreMock)
	pRepo := new(CartProductRepoMock)
	history := new(HistorySourceMock)
	uc := usecase.NewCartUsecase(store, pRepo, history)

	pRepo.On("FindByID", mock.Anything, int64(10)).Return(activeProduct(), nil)

	// 既に4個購入済みなので2個には増やせない（5個上限）
	history.On("Snapshot", mock.Anything, int64(1)).Return(&purchase.HistorySnapshot{
		PerProduct:    map[int64]int64{10: 4},
		TotalQuantity: 4,
	}, nil)

	existing := model.Cart{Lines: []model.CartLine{
		{ProductID: 10, Quantity: 1, Size: "M", Color: "navy", Stock: 8},
	}}
	store.On("Load", mock.Anything, int64(1)).Return(existing, nil)

	_, err := uc.UpdateQuantity(context.Background(), 1, 0, usecase.UpdateCartLineInput{Quantity: 2})
	assertHTTPStatus(t, err, 400)
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestCartUsecase_UpdateQuantity_HugeQuantityRejected(t *testing.T) {
	store := new(CartStoreMock)
	pRepo := new(CartProductRepoMock)
	uc := usecase.NewCartUsecase(store, pRepo, new(HistorySourceMock))

	existing := model.Cart{Lines: []model.CartLine{
		{ProductID: 10, Quantity: 3, Size: "M", Color: "navy", Stock: 8},
	}}
	store.On("Load", mock.Anything, int64(1)).Return(existing, nil)

	_, err := uc.UpdateQuantity(context.Background(), 1, 0, usecase.UpdateCartLineInput{Quantity: math.MaxInt64 - 2})
	assertHTTPStatus(t, err, 400)
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	pRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestCartUsecase_RemoveLine_InvalidIndex(t *testing.T) {
	store := new(CartStoreMock)
	uc := usecase.NewCartUsecase(store, new(CartProductRepoMock), new(HistorySourceMock))

	store.On("Load", mock.Anything, int64(1)).Return(model.Cart{}, nil)

	_, err := uc.RemoveLine(context.Background(), 1, 0)
	assertHTTPStatus(t, err, 404)
}

func TestCartUsecase_EmptyCart(t *testing.T) {
	store := new(CartStoreMock)
	uc := usecase.NewCartUsecase(store, new(CartProductRepoMock), new(HistorySourceMock))

	store.On("Clear", mock.Anything, int64(1)).Return(nil)

	out, err := uc.EmptyCart(context.Background(), 1)
	assert.NoError(t, err)
	assert.Empty(t, out.Items)
	store.AssertCalled(t, "Clear", mock.Anything, int64(1))
}
