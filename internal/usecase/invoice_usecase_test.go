package usecase_test

import (
	"context"
	"testing"

	"app/internal/domain/model"
	"app/internal/domain/purchase"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// Mocks
// =====================

type InvoiceRepoMock struct{ mock.Mock }

func (m *InvoiceRepoMock) FindByID(ctx context.Context, invoiceID int64) (model.Invoice, error) {
	args := m.Called(ctx, invoiceID)
	inv, _ := args.Get(0).(model.Invoice)
	return inv, args.Error(1)
}

func (m *InvoiceRepoMock) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Invoice, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	list, _ := args.Get(0).([]model.Invoice)
	return list, args.Get(1).(int64), args.Error(2)
}

func (m *InvoiceRepoMock) Create(ctx context.Context, invoice model.Invoice) (int64, error) {
	args := m.Called(ctx, invoice)
	return args.Get(0).(int64), args.Error(1)
}

func (m *InvoiceRepoMock) UpdateStatus(ctx context.Context, invoiceID int64, status model.InvoiceStatus) error {
	args := m.Called(ctx, invoiceID, status)
	return args.Error(0)
}

func (m *InvoiceRepoMock) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Invoice, bool, error) {
	args := m.Called(ctx, userID, key)
	inv, _ := args.Get(0).(model.Invoice)
	return inv, args.Bool(1), args.Error(2)
}

func (m *InvoiceRepoMock) ListAdmin(ctx context.Context, f repo.AdminInvoiceListFilter) ([]model.Invoice, int64, error) {
	args := m.Called(ctx, f)
	list, _ := args.Get(0).([]model.Invoice)
	return list, args.Get(1).(int64), args.Error(2)
}

func (m *InvoiceRepoMock) SumCompletedByUser(ctx context.Context, userID int64) (repo.PurchaseTotals, error) {
	args := m.Called(ctx, userID)
	totals, _ := args.Get(0).(repo.PurchaseTotals)
	return totals, args.Error(1)
}

type InvoiceItemRepoMock struct{ mock.Mock }

func (m *InvoiceItemRepoMock) CreateBulk(ctx context.Context, invoiceID int64, items []model.InvoiceItem) error {
	args := m.Called(ctx, invoiceID, items)
	return args.Error(0)
}

func (m *InvoiceItemRepoMock) ListByInvoiceID(ctx context.Context, invoiceID int64) ([]model.InvoiceItem, error) {
	args := m.Called(ctx, invoiceID)
	items, _ := args.Get(0).([]model.InvoiceItem)
	return items, args.Error(1)
}

type InventoryRepoMock struct{ mock.Mock }

func (m *InventoryRepoMock) SetStock(ctx context.Context, productID int64, newStock int64) error {
	args := m.Called(ctx, productID, newStock)
	return args.Error(0)
}

func (m *InventoryRepoMock) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	args := m.Called(ctx, productID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *InventoryRepoMock) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	args := m.Called(ctx, productID, qty)
	return args.Error(0)
}

func (m *InventoryRepoMock) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	args := m.Called(ctx, adj)
	return args.Error(0)
}

// WithinTxを同期実行するだけのスタブ
type txReposStub struct {
	invoices  *InvoiceRepoMock
	items     *InvoiceItemRepoMock
	products  *CartProductRepoMock
	inventory *InventoryRepoMock
}

func (s txReposStub) Invoices() repo.InvoiceRepository         { return s.invoices }
func (s txReposStub) InvoiceItems() repo.InvoiceItemRepository { return s.items }
func (s txReposStub) Products() repo.ProductRepository         { return s.products }
func (s txReposStub) Inventory() repo.InventoryRepository      { return s.inventory }

type txManagerStub struct {
	repos   txReposStub
	entered bool
}

func (m *txManagerStub) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.entered = true
	return fn(m.repos)
}

type invoiceFixture struct {
	tx      *txManagerStub
	store   *CartStoreMock
	history *HistorySourceMock
	uc      *usecase.InvoiceUsecase
}

func newInvoiceFixture() invoiceFixture {
	tx := &txManagerStub{repos: txReposStub{
		invoices:  new(InvoiceRepoMock),
		items:     new(InvoiceItemRepoMock),
		products:  new(CartProductRepoMock),
		inventory: new(InventoryRepoMock),
	}}
	store := new(CartStoreMock)
	history := new(HistorySourceMock)
	uc := usecase.NewInvoiceUsecase(tx, store, history, zerolog.Nop())

	return invoiceFixture{tx: tx, store: store, history: history, uc: uc}
}

func checkoutCart() model.Cart {
	return model.Cart{Lines: []model.CartLine{
		{ProductID: 10, Name: "Linen Shirt", UnitPrice: 4500, Quantity: 2, Size: "M", Color: "navy", Stock: 8},
	}}
}

// =====================
// Checkout
// =====================

func TestInvoiceUsecase_Checkout_EmptyCart(t *testing.T) {
	f := newInvoiceFixture()

	f.store.On("Load", mock.Anything, int64(1)).Return(model.Cart{}, nil)

	_, err := f.uc.Checkout(context.Background(), 1, usecase.CheckoutInput{IdempotencyKey: "key-1"})
	assertHTTPStatus(t, err, 400)
	assert.False(t, f.tx.entered)
}

func TestInvoiceUsecase_Checkout_MissingIdempotencyKey(t *testing.T) {
	f := newInvoiceFixture()

	_, err := f.uc.Checkout(context.Background(), 1, usecase.CheckoutInput{})
	assertHTTPStatus(t, err, 400)
}

func TestInvoiceUsecase_Checkout_PolicyRejectionAborts(t *testing.T) {
	f := newInvoiceFixture()

	f.store.On("Load", mock.Anything, int64(1)).Return(checkoutCart(), nil)
	f.history.On("Snapshot", mock.Anything, int64(1)).Return(&purchase.HistorySnapshot{
		PerProduct:    map[int64]int64{10: 5},
		TotalQuantity: 5,
	}, nil)

	_, err := f.uc.Checkout(context.Background(), 1, usecase.CheckoutInput{IdempotencyKey: "key-1"})
	assertHTTPStatus(t, err, 400)
	assert.False(t, f.tx.entered)
	f.store.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
}

func TestInvoiceUsecase_Checkout_StockConflictAborts(t *testing.T) {
	f := newInvoiceFixture()

	f.store.On("Load", mock.Anything, int64(1)).Return(checkoutCart(), nil)
	f.history.On("Snapshot", mock.Anything, int64(1)).Return(emptyHistory(), nil)

	f.tx.repos.invoices.On("FindByIdempotencyKey", mock.Anything, int64(1), "key-1").
		Return(model.Invoice{}, false, nil)
	f.tx.repos.products.On("FindByID", mock.Anything, int64(10)).Return(activeProduct(), nil)
	f.tx.repos.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(10), int64(2)).
		Return(false, nil)

	_, err := f.uc.Checkout(context.Background(), 1, usecase.CheckoutInput{IdempotencyKey: "key-1"})
	assertHTTPStatus(t, err, 400)
	f.store.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
	f.tx.repos.invoices.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestInvoiceUsecase_Checkout_Success(t *testing.T) {
	f := newInvoiceFixture()

	f.store.On("Load", mock.Anything, int64(1)).Return(checkoutCart(), nil)
	f.store.On("Clear", mock.Anything, int64(1)).Return(nil)
	f.history.On("Snapshot", mock.Anything, int64(1)).Return(emptyHistory(), nil)

	f.tx.repos.invoices.On("FindByIdempotencyKey", mock.Anything, int64(1), "key-1").
		Return(model.Invoice{}, false, nil)
	f.tx.repos.products.On("FindByID", mock.Anything, int64(10)).Return(activeProduct(), nil)
	f.tx.repos.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(10), int64(2)).
		Return(true, nil)
	f.tx.repos.invoices.On("Create", mock.Anything, mock.Anything).Return(int64(77), nil)
	f.tx.repos.items.On("CreateBulk", mock.Anything, int64(77), mock.Anything).Return(nil)

	out, err := f.uc.Checkout(context.Background(), 1, usecase.CheckoutInput{IdempotencyKey: "key-1"})
	assert.NoError(t, err)

	// 小計9000 + 21%税 = 10890
	assert.Equal(t, int64(77), out.ID)
	assert.Equal(t, "pending", out.Status)
	assert.Equal(t, int64(10890), out.Total)
	if assert.Len(t, out.Items, 1) {
		assert.Equal(t, int64(4500), out.Items[0].Price)
		assert.Equal(t, "M", out.Items[0].Size)
	}

	f.store.AssertCalled(t, "Clear", mock.Anything, int64(1))
}

func TestInvoiceUsecase_Checkout_IdempotentReplay(t *testing.T) {
	f := newInvoiceFixture()

	f.store.On("Load", mock.Anything, int64(1)).Return(checkoutCart(), nil)
	f.store.On("Clear", mock.Anything, int64(1)).Return(nil)
	f.history.On("Snapshot", mock.Anything, int64(1)).Return(emptyHistory(), nil)

	existing := model.Invoice{ID: 55, UserID: 1, Status: model.InvoiceStatusPending, Total: 10890}
	f.tx.repos.invoices.On("FindByIdempotencyKey", mock.Anything, int64(1), "key-1").
		Return(existing, true, nil)
	f.tx.repos.items.On("ListByInvoiceID", mock.Anything, int64(55)).
		Return([]model.InvoiceItem{}, nil)

	out, err := f.uc.Checkout(context.Background(), 1, usecase.CheckoutInput{IdempotencyKey: "key-1"})
	assert.NoError(t, err)
	assert.Equal(t, int64(55), out.ID)

	// 同じキーの再送では在庫を二重に減らさない
	f.tx.repos.inventory.AssertNotCalled(t, "DecreaseStockIfEnough", mock.Anything, mock.Anything, mock.Anything)
	f.tx.repos.invoices.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// Test: 冪等キーはユーザー単位。別ユーザーが同じキーを使っても新規作成できる
func TestInvoiceUsecase_Checkout_SameKeyDifferentUser(t *testing.T) {
	f := newInvoiceFixture()

	f.store.On("Load", mock.Anything, int64(2)).Return(checkoutCart(), nil)
	f.store.On("Clear", mock.Anything, int64(2)).Return(nil)
	f.history.On("Snapshot", mock.Anything, int64(2)).Return(emptyHistory(), nil)

	// ユーザー2には同じキーの請求書はまだ無い
	f.tx.repos.invoices.On("FindByIdempotencyKey", mock.Anything, int64(2), "key-1").
		Return(model.Invoice{}, false, nil)
	f.tx.repos.products.On("FindByID", mock.Anything, int64(10)).Return(activeProduct(), nil)
	f.tx.repos.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(10), int64(2)).
		Return(true, nil)
	f.tx.repos.invoices.On("Create", mock.Anything, mock.Anything).Return(int64(88), nil)
	f.tx.repos.items.On("CreateBulk", mock.Anything, int64(88), mock.Anything).Return(nil)

	out, err := f.uc.Checkout(context.Background(), 2, usecase.CheckoutInput{IdempotencyKey: "key-1"})
	assert.NoError(t, err)
	assert.Equal(t, int64(88), out.ID)
}

// =====================
// ListMyInvoices / GetMyInvoiceDetail
// =====================

func TestInvoiceUsecase_ListMyInvoices(t *testing.T) {
	f := newInvoiceFixture()

	invoices := []model.Invoice{
		{ID: 1, UserID: 1, Status: model.InvoiceStatusCompleted, Total: 5445},
		{ID: 2, UserID: 1, Status: model.InvoiceStatusPending, Total: 10890},
	}
	f.tx.repos.invoices.On("ListByUserID", mock.Anything, int64(1), 1, 50).
		Return(invoices, int64(2), nil)
	f.tx.repos.items.On("ListByInvoiceID", mock.Anything, mock.Anything).
		Return([]model.InvoiceItem{}, nil)

	out, err := f.uc.ListMyInvoices(context.Background(), 1, 0, 0)
	assert.NoError(t, err)
	if assert.Len(t, out, 2) {
		assert.Equal(t, "completed", out[0].Status)
		assert.Equal(t, "pending", out[1].Status)
	}
}

func TestInvoiceUsecase_ListMyInvoices_PaginationPassedThrough(t *testing.T) {
	f := newInvoiceFixture()

	f.tx.repos.invoices.On("ListByUserID", mock.Anything, int64(1), 2, 10).
		Return([]model.Invoice{{ID: 60, UserID: 1, Status: model.InvoiceStatusPending}}, int64(11), nil)
	f.tx.repos.items.On("ListByInvoiceID", mock.Anything, int64(60)).
		Return([]model.InvoiceItem{}, nil)

	out, err := f.uc.ListMyInvoices(context.Background(), 1, 2, 10)
	assert.NoError(t, err)
	assert.Len(t, out, 1)
	f.tx.repos.invoices.AssertCalled(t, "ListByUserID", mock.Anything, int64(1), 2, 10)
}

func TestInvoiceUsecase_GetMyInvoiceDetail_OtherUser(t *testing.T) {
	f := newInvoiceFixture()

	f.tx.repos.invoices.On("FindByID", mock.Anything, int64(9)).
		Return(model.Invoice{ID: 9, UserID: 2}, nil)

	_, err := f.uc.GetMyInvoiceDetail(context.Background(), 1, 9)
	assertHTTPStatus(t, err, 404)
}
