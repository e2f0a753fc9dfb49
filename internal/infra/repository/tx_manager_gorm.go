package repository

import (
	"context"

	repo "app/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	invoices     repo.InvoiceRepository
	invoiceItems repo.InvoiceItemRepository
	products     repo.ProductRepository
	inventory    repo.InventoryRepository
}

func (r *txReposGorm) Invoices() repo.InvoiceRepository         { return r.invoices }
func (r *txReposGorm) InvoiceItems() repo.InvoiceItemRepository { return r.invoiceItems }
func (r *txReposGorm) Products() repo.ProductRepository         { return r.products }
func (r *txReposGorm) Inventory() repo.InventoryRepository      { return r.inventory }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			invoices:     NewInvoiceGormRepository(tx),
			invoiceItems: NewInvoiceItemGormRepository(tx),
			products:     NewProductGormRepository(tx),
			inventory:    NewInventoryGormRepository(tx),
		}
		return fn(r)
	})
}
