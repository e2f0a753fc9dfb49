package usecase_test

import (
	"context"
	"testing"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	panic("not used in AdminInvoiceUsecase tests")
}

type adminInvoiceFixture struct {
	tx    *txManagerStub
	audit *AuditRepoMock
	uc    *usecase.AdminInvoiceUsecase
}

func newAdminInvoiceFixture() adminInvoiceFixture {
	tx := &txManagerStub{repos: txReposStub{
		invoices:  new(InvoiceRepoMock),
		items:     new(InvoiceItemRepoMock),
		products:  new(CartProductRepoMock),
		inventory: new(InventoryRepoMock),
	}}
	audit := new(AuditRepoMock)
	uc := usecase.NewAdminInvoiceUsecase(tx, audit, zerolog.Nop())

	return adminInvoiceFixture{tx: tx, audit: audit, uc: uc}
}

func TestAdminInvoiceUsecase_UpdateStatus_InvalidStatus(t *testing.T) {
	f := newAdminInvoiceFixture()

	_, err := f.uc.UpdateStatus(context.Background(), 99, 1, "shipped")
	assertHTTPStatus(t, err, 400)
}

func TestAdminInvoiceUsecase_UpdateStatus_Unchanged(t *testing.T) {
	f := newAdminInvoiceFixture()

	f.tx.repos.invoices.On("FindByID", mock.Anything, int64(1)).
		Return(model.Invoice{ID: 1, Status: model.InvoiceStatusPending}, nil)

	_, err := f.uc.UpdateStatus(context.Background(), 99, 1, "pending")
	assertHTTPStatus(t, err, 400)
}

func TestAdminInvoiceUsecase_UpdateStatus_CancelledIsTerminal(t *testing.T) {
	f := newAdminInvoiceFixture()

	f.tx.repos.invoices.On("FindByID", mock.Anything, int64(1)).
		Return(model.Invoice{ID: 1, Status: model.InvoiceStatusCancelled}, nil)

	_, err := f.uc.UpdateStatus(context.Background(), 99, 1, "pending")
	assertHTTPStatus(t, err, 400)
}

func TestAdminInvoiceUsecase_UpdateStatus_Complete(t *testing.T) {
	f := newAdminInvoiceFixture()

	f.tx.repos.invoices.On("FindByID", mock.Anything, int64(1)).
		Return(model.Invoice{ID: 1, UserID: 5, Status: model.InvoiceStatusPending}, nil)
	f.tx.repos.invoices.On("UpdateStatus", mock.Anything, int64(1), model.InvoiceStatusCompleted).
		Return(nil)
	f.tx.repos.items.On("ListByInvoiceID", mock.Anything, int64(1)).
		Return([]model.InvoiceItem{{ProductID: 10, Quantity: 2}}, nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	out, err := f.uc.UpdateStatus(context.Background(), 99, 1, "completed")
	assert.NoError(t, err)
	assert.Equal(t, "completed", out.Status)

	// completedでは在庫は戻さない
	f.tx.repos.inventory.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything)
	f.audit.AssertCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAdminInvoiceUsecase_UpdateStatus_CancelRestoresStock(t *testing.T) {
	f := newAdminInvoiceFixture()

	f.tx.repos.invoices.On("FindByID", mock.Anything, int64(1)).
		Return(model.Invoice{ID: 1, UserID: 5, Status: model.InvoiceStatusPending}, nil)
	f.tx.repos.invoices.On("UpdateStatus", mock.Anything, int64(1), model.InvoiceStatusCancelled).
		Return(nil)
	f.tx.repos.items.On("ListByInvoiceID", mock.Anything, int64(1)).
		Return([]model.InvoiceItem{
			{ProductID: 10, Quantity: 2},
			{ProductID: 11, Quantity: 1},
		}, nil)
	f.tx.repos.inventory.On("IncreaseStock", mock.Anything, int64(10), int64(2)).Return(nil)
	f.tx.repos.inventory.On("IncreaseStock", mock.Anything, int64(11), int64(1)).Return(nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	out, err := f.uc.UpdateStatus(context.Background(), 99, 1, "cancelled")
	assert.NoError(t, err)
	assert.Equal(t, "cancelled", out.Status)

	f.tx.repos.inventory.AssertCalled(t, "IncreaseStock", mock.Anything, int64(10), int64(2))
	f.tx.repos.inventory.AssertCalled(t, "IncreaseStock", mock.Anything, int64(11), int64(1))
}
