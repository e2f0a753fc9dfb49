package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	"app/internal/domain/purchase"
	repo "app/internal/repository"

	"github.com/rs/zerolog"
)

// IVA 21%
const taxRatePercent int64 = 21

// InvoiceUsecase はチェックアウトと請求書参照の業務ロジックです。
// 在庫減算と請求書作成は1トランザクション、カートのクリアはコミット後。
type InvoiceUsecase struct {
	tx      repo.TransactionManager
	store   repo.CartStore
	history PurchaseHistorySource
	logger  zerolog.Logger
}

func NewInvoiceUsecase(
	tx repo.TransactionManager,
	store repo.CartStore,
	history PurchaseHistorySource,
	logger zerolog.Logger,
) *InvoiceUsecase {
	return &InvoiceUsecase{
		tx:      tx,
		store:   store,
		history: history,
		logger:  logger,
	}
}

type CheckoutInput struct {
	IdempotencyKey string
	BillingAddress string
	Notes          string
}

type InvoiceItemOutput struct {
	ProductID int64  `json:"id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

type InvoiceOutput struct {
	ID        int64               `json:"id"`
	UserID    int64               `json:"user_id"`
	Status    string              `json:"status"`
	Total     int64               `json:"total"`
	Notes     string              `json:"notes,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	Items     []InvoiceItemOutput `json:"items"`
}

// Checkout はカートを請求書にする。
// 空カート→在庫→購入上限の順に再チェックし、1行でも弾かれたら全体を中止する。
func (u *InvoiceUsecase) Checkout(ctx context.Context, userID int64, in CheckoutInput) (InvoiceOutput, error) {
	if userID <= 0 {
		return InvoiceOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || len(key) > 255 {
		return InvoiceOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}

	cart, err := u.store.Load(ctx, userID)
	if err != nil {
		return InvoiceOutput{}, NewHTTPError(http.StatusInternalServerError, "cart store error")
	}
	if cart.IsEmpty() {
		return InvoiceOutput{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}

	// 追加時から在庫が減っている可能性があるので、最後に知っている値で先に弾く
	for _, line := range cart.Lines {
		if line.Quantity > line.Stock {
			return InvoiceOutput{}, NewHTTPError(http.StatusBadRequest, "insufficient stock: "+line.Name)
		}
	}

	// 購入上限も最新の履歴で全行を再チェック
	snapshot := u.snapshotOrNil(ctx, userID)
	for _, line := range cart.Lines {
		decision := purchase.Evaluate(line.ProductID, cart.QuantityOf(line.ProductID), snapshot)
		if !decision.Allowed {
			return InvoiceOutput{}, NewHTTPError(http.StatusBadRequest, decision.Reason)
		}
	}

	var out InvoiceOutput

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		existing, found, err := r.Invoices().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if found {
			items, err := r.InvoiceItems().ListByInvoiceID(ctx, existing.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			out = toInvoiceOutput(existing, items)
			return nil
		}

		// 在庫を確定時に再チェックして減らす
		invoiceItems := make([]model.InvoiceItem, 0, len(cart.Lines))
		var subtotal int64 = 0

		for _, line := range cart.Lines {
			p, err := r.Products().FindByID(ctx, line.ProductID)
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusBadRequest, "invalid")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !p.IsActive {
				return NewHTTPError(http.StatusBadRequest, "invalid")
			}

			// 在庫減算（足りないなら false）
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, "insufficient stock: "+p.Name)
			}

			// スナップショット
			invoiceItems = append(invoiceItems, model.InvoiceItem{
				ProductID:           line.ProductID,
				ProductNameSnapshot: p.Name,
				UnitPriceSnapshot:   line.UnitPrice,
				Quantity:            line.Quantity,
				Size:                line.Size,
				Color:               line.Color,
				CreatedAt:           time.Now(),
			})

			subtotal += line.UnitPrice * line.Quantity
		}

		tax := subtotal * taxRatePercent / 100
		total := subtotal + tax

		now := time.Now()
		invoiceID, err := r.Invoices().Create(ctx, model.Invoice{
			UserID:         userID,
			Status:         model.InvoiceStatusPending,
			Total:          total,
			BillingAddress: in.BillingAddress,
			Notes:          in.Notes,
			IdempotencyKey: key,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err != nil {
			// 競合（同時に同じキーが入った等）はもう一回検索して同じ結果を返す
			ex2, found2, err2 := r.Invoices().FindByIdempotencyKey(ctx, userID, key)
			if err2 == nil && found2 {
				items2, err3 := r.InvoiceItems().ListByInvoiceID(ctx, ex2.ID)
				if err3 != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
				out = toInvoiceOutput(ex2, items2)
				return nil
			}
			return NewHTTPError(http.StatusBadRequest, "idempotency conflict")
		}

		if err := r.InvoiceItems().CreateBulk(ctx, invoiceID, invoiceItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		created := model.Invoice{
			ID:        invoiceID,
			UserID:    userID,
			Status:    model.InvoiceStatusPending,
			Total:     total,
			Notes:     in.Notes,
			CreatedAt: now,
		}
		out = toInvoiceOutput(created, invoiceItems)
		return nil
	})

	if err != nil {
		return InvoiceOutput{}, err
	}

	// コミット後にカートを空にする。失敗しても注文は成立している。
	if err := u.store.Clear(ctx, userID); err != nil {
		u.logger.Warn().Err(err).Int64("user_id", userID).Msg("failed to clear cart after checkout")
	}

	return out, nil
}

// 自分の請求書一覧。statusとitemsを含むので、フロントは
// completedだけを拾って購入履歴を組み立てられる。
func (u *InvoiceUsecase) ListMyInvoices(ctx context.Context, userID int64, page int, limit int) ([]InvoiceOutput, error) {
	if userID <= 0 {
		return []InvoiceOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	var outs []InvoiceOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		invoices, _, err := r.Invoices().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]InvoiceOutput, 0, len(invoices))
		for _, inv := range invoices {
			items, err := r.InvoiceItems().ListByInvoiceID(ctx, inv.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toInvoiceOutput(inv, items))
		}
		return nil
	})

	if err != nil {
		return []InvoiceOutput{}, err
	}
	return outs, nil
}

func (u *InvoiceUsecase) GetMyInvoiceDetail(ctx context.Context, userID int64, invoiceID int64) (InvoiceOutput, error) {
	if userID <= 0 {
		return InvoiceOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if invoiceID <= 0 {
		return InvoiceOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out InvoiceOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		inv, err := r.Invoices().FindByID(ctx, invoiceID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if inv.UserID != userID {
			// 他人の請求書は「存在しない扱い」
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		items, err := r.InvoiceItems().ListByInvoiceID(ctx, invoiceID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toInvoiceOutput(inv, items)
		return nil
	})

	if err != nil {
		return InvoiceOutput{}, err
	}
	return out, nil
}

func (u *InvoiceUsecase) snapshotOrNil(ctx context.Context, userID int64) *purchase.HistorySnapshot {
	snap, err := u.history.Snapshot(ctx, userID)
	if err != nil {
		u.logger.Warn().Err(err).Int64("user_id", userID).Msg("purchase history unavailable, using permissive default")
		return nil
	}
	return snap
}

func toInvoiceOutput(inv model.Invoice, items []model.InvoiceItem) InvoiceOutput {
	outItems := make([]InvoiceItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, InvoiceItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
			Size:      it.Size,
			Color:     it.Color,
		})
	}

	return InvoiceOutput{
		ID:        inv.ID,
		UserID:    inv.UserID,
		Status:    string(inv.Status),
		Total:     inv.Total,
		Notes:     inv.Notes,
		CreatedAt: inv.CreatedAt,
		Items:     outItems,
	}
}
