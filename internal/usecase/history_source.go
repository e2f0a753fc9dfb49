package usecase

import (
	"context"

	"app/internal/domain/purchase"
	repo "app/internal/repository"
)

// 購入履歴のスナップショットを供給する。
// 実体は完了済み請求書の集計。取得失敗時はnilスナップショットで続行する
// （呼び出し側は寛容な既定値になる）。
type PurchaseHistorySource interface {
	Snapshot(ctx context.Context, userID int64) (*purchase.HistorySnapshot, error)
}

type invoiceHistorySource struct {
	invoices repo.InvoiceRepository
}

// 請求書リポジトリを履歴ソースとして使う
func NewInvoiceHistorySource(invoices repo.InvoiceRepository) PurchaseHistorySource {
	return &invoiceHistorySource{invoices: invoices}
}

func (s *invoiceHistorySource) Snapshot(ctx context.Context, userID int64) (*purchase.HistorySnapshot, error) {
	totals, err := s.invoices.SumCompletedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &purchase.HistorySnapshot{
		PerProduct:    totals.PerProduct,
		TotalQuantity: totals.Total,
	}, nil
}
