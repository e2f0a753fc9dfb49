package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

// 管理者用の請求書一覧の絞り込み
type AdminInvoiceListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

// 完了済み請求書から集計した購入実績
type PurchaseTotals struct {
	// 商品ID → 累計数量
	PerProduct map[int64]int64
	// 全商品の累計数量
	Total int64
}

type InvoiceRepository interface {
	FindByID(ctx context.Context, invoiceID int64) (model.Invoice, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Invoice, int64, error)
	Create(ctx context.Context, invoice model.Invoice) (int64, error)
	UpdateStatus(ctx context.Context, invoiceID int64, status model.InvoiceStatus) error

	// 冪等キー検索（同じキーなら同じ結果を返す）
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Invoice, bool, error)

	// 管理者用の一覧
	ListAdmin(ctx context.Context, f AdminInvoiceListFilter) ([]model.Invoice, int64, error)

	// 完了済み請求書だけを商品別に集計する。購入上限の履歴ソース。
	SumCompletedByUser(ctx context.Context, userID int64) (PurchaseTotals, error)
}

type InvoiceItemRepository interface {
	CreateBulk(ctx context.Context, invoiceID int64, items []model.InvoiceItem) error
	ListByInvoiceID(ctx context.Context, invoiceID int64) ([]model.InvoiceItem, error)
}
