package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type InvoiceGormRepository struct {
	db *gorm.DB
}

// DI
func NewInvoiceGormRepository(db *gorm.DB) *InvoiceGormRepository {
	return &InvoiceGormRepository{db: db}
}

func (r *InvoiceGormRepository) FindByID(ctx context.Context, invoiceID int64) (model.Invoice, error) {
	var inv model.Invoice
	err := r.db.WithContext(ctx).First(&inv, invoiceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Invoice{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Invoice{}, err
	}
	return inv, nil
}

func (r *InvoiceGormRepository) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Invoice, int64, error) {
	var invoices []model.Invoice
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.Invoice{}).Where("user_id = ?", userID)

	if err := tx.Count(&total).Error; err != nil {
		return []model.Invoice{}, 0, err
	}

	offset := (page - 1) * limit
	err := tx.Order("created_at desc").Order("id desc").
		Offset(offset).Limit(limit).
		Find(&invoices).Error
	if err != nil {
		return []model.Invoice{}, 0, err
	}

	return invoices, total, nil
}

func (r *InvoiceGormRepository) Create(ctx context.Context, invoice model.Invoice) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&invoice).Error; err != nil {
		return 0, err
	}
	return invoice.ID, nil
}

func (r *InvoiceGormRepository) UpdateStatus(ctx context.Context, invoiceID int64, status model.InvoiceStatus) error {
	res := r.db.WithContext(ctx).
		Model(&model.Invoice{}).
		Where("id = ?", invoiceID).
		Update("status", status)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 冪等キー検索（同じキーなら同じ結果を返す）
func (r *InvoiceGormRepository) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Invoice, bool, error) {
	var inv model.Invoice

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&inv).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Invoice{}, false, nil
	}
	if err != nil {
		return model.Invoice{}, false, err
	}
	return inv, true, nil
}

// 管理者用の一覧
func (r *InvoiceGormRepository) ListAdmin(ctx context.Context, f repo.AdminInvoiceListFilter) ([]model.Invoice, int64, error) {
	var invoices []model.Invoice
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.Invoice{})

	if f.Status != "" {
		tx = tx.Where("status = ?", f.Status)
	}
	if f.UserID != nil {
		tx = tx.Where("user_id = ?", *f.UserID)
	}
	if f.From != nil {
		tx = tx.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		tx = tx.Where("created_at <= ?", *f.To)
	}

	if err := tx.Count(&total).Error; err != nil {
		return []model.Invoice{}, 0, err
	}

	offset := (f.Page - 1) * f.Limit
	err := tx.Order("created_at desc").Order("id desc").
		Offset(offset).Limit(f.Limit).
		Find(&invoices).Error
	if err != nil {
		return []model.Invoice{}, 0, err
	}

	return invoices, total, nil
}

type productQuantityRow struct {
	ProductID int64
	Quantity  int64
}

// 完了済み請求書だけを商品別に集計する。未完了（pending）は数えない。
func (r *InvoiceGormRepository) SumCompletedByUser(ctx context.Context, userID int64) (repo.PurchaseTotals, error) {
	var rows []productQuantityRow

	err := r.db.WithContext(ctx).
		Table("invoice_items").
		Select("invoice_items.product_id as product_id, SUM(invoice_items.quantity) as quantity").
		Joins("join invoices on invoices.id = invoice_items.invoice_id").
		Where("invoices.user_id = ? AND invoices.status = ?", userID, model.InvoiceStatusCompleted).
		Group("invoice_items.product_id").
		Scan(&rows).Error
	if err != nil {
		return repo.PurchaseTotals{}, err
	}

	totals := repo.PurchaseTotals{PerProduct: make(map[int64]int64, len(rows))}
	for _, row := range rows {
		totals.PerProduct[row.ProductID] = row.Quantity
		totals.Total += row.Quantity
	}
	return totals, nil
}
